// Command ckbsim-debug is an interactive console for inspecting a
// running simulator process: it fetches the trace pages hostabi serves
// when CKB_SIM_TRACE_ADDR is set, and lists the OS threads a
// simulation has pinned one per process by reading /proc directly,
// for a test operator at a terminal.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/simlog"
	"github.com/ckblabs/ckb-x64-simulator-go/internal/threadwatch"
)

const banner = "ckbsim-debug: interactive simulator console. Type 'help' for commands."

var (
	f_addr = flag.String("addr", "http://127.0.0.1:6060", "base URL of the simulator's CKB_SIM_TRACE_ADDR debug server")
	f_pid  = flag.Int("pid", 0, "pid of the simulator process to inspect with 'threads' (0 = this process)")
)

func usage() {
	fmt.Println(banner)
	fmt.Println("usage: ckbsim-debug [option]...")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	simlog.AddLogger("stdio", os.Stderr, simlog.Info, false)

	fmt.Println(banner)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		cmd, err := line.Prompt("ckbsim> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return
			}
			simlog.Errorf("prompt: %v", err)
			return
		}
		line.AppendHistory(cmd)

		if quit := dispatch(strings.TrimSpace(cmd)); quit {
			return
		}
	}
}

func dispatch(cmd string) (quit bool) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "help":
		fmt.Println("commands: help, requests, events, threads [pid], quit")
	case "requests":
		fetchDebug("/debug/requests")
	case "events":
		fetchDebug("/debug/events")
	case "threads":
		pid := *f_pid
		if len(fields) > 1 {
			if p, err := strconv.Atoi(fields[1]); err == nil {
				pid = p
			}
		}
		printThreads(pid)
	case "quit", "exit":
		return true
	default:
		fmt.Printf("unknown command %q, try 'help'\n", fields[0])
	}
	return false
}

func fetchDebug(path string) {
	resp, err := http.Get(strings.TrimRight(*f_addr, "/") + path)
	if err != nil {
		simlog.Errorf("%s: %v", path, err)
		return
	}
	defer resp.Body.Close()
	io.Copy(os.Stdout, resp.Body)
	fmt.Println()
}

func printThreads(pid int) {
	if pid == 0 {
		pid = os.Getpid()
	}
	tasks, err := threadwatch.Tasks(pid)
	if err != nil {
		simlog.Errorf("threads: %v", err)
		return
	}
	fmt.Printf("pid %d: %d OS threads\n", pid, len(tasks))
	for _, t := range tasks {
		fmt.Printf("  tid=%d state=%s\n", t.Pid, t.State)
	}
}
