// Command ckbsim-fetch downloads a compiled native contract .so from a
// ckbsim-serve cache over FTP, grounded on the teacher's own FTP client
// usage (src/protonuke/ftp.go's ftpClient: Connect, Login, List, Retr).
// Listing uses jlaffaye/ftp's NameList instead of dutchcoders/goftp's
// own List, since test runners want a plain filename per line to
// script against and NameList is exactly that.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dutchcoders/goftp"
	jlftp "github.com/jlaffaye/ftp"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/simlog"
)

const banner = "ckbsim-fetch: FTP client for compiled native contracts."

var (
	f_host = flag.String("host", "127.0.0.1", "ckbsim-serve host")
	f_port = flag.Int("port", 2121, "ckbsim-serve FTP port")
	f_user = flag.String("user", "ckbsim", "FTP username")
	f_pass = flag.String("pass", "ckbsim", "FTP password")
	f_list = flag.Bool("list", false, "list available contracts instead of fetching one")
	f_out  = flag.String("out", "", "local path to write the fetched contract to (default: basename of remote path)")
)

func usage() {
	fmt.Println(banner)
	fmt.Println("usage: ckbsim-fetch [option]... <remote-path>")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	simlog.AddLogger("stdio", os.Stderr, simlog.Info, false)

	host := *f_host + ":" + strconv.Itoa(*f_port)

	if *f_list {
		listRemote(host)
		return
	}

	client, err := goftp.Connect(host)
	if err != nil {
		simlog.Fatalf("ckbsim-fetch: connect %s: %v", host, err)
	}
	defer client.Quit()

	if err := client.Login(*f_user, *f_pass); err != nil {
		simlog.Fatalf("ckbsim-fetch: login: %v", err)
	}

	args := flag.Args()
	if len(args) != 1 {
		usage()
		os.Exit(2)
	}
	remote := args[0]

	out := *f_out
	if out == "" {
		out = remote
		for i := len(out) - 1; i >= 0; i-- {
			if out[i] == '/' {
				out = out[i+1:]
				break
			}
		}
	}

	f, err := os.Create(out)
	if err != nil {
		simlog.Fatalf("ckbsim-fetch: create %s: %v", out, err)
	}
	defer f.Close()

	_, err = client.Retr(remote, func(r io.Reader) error {
		_, err := io.Copy(f, r)
		return err
	})
	if err != nil {
		simlog.Fatalf("ckbsim-fetch: retr %s: %v", remote, err)
	}
	simlog.Infof("fetched %s -> %s", remote, out)
}

func listRemote(host string) {
	conn, err := jlftp.Dial(host)
	if err != nil {
		simlog.Fatalf("ckbsim-fetch: dial %s: %v", host, err)
	}
	defer conn.Quit()

	if err := conn.Login(*f_user, *f_pass); err != nil {
		simlog.Fatalf("ckbsim-fetch: login: %v", err)
	}

	names, err := conn.NameList("/")
	if err != nil {
		simlog.Fatalf("ckbsim-fetch: list: %v", err)
	}
	for _, n := range names {
		fmt.Println(n)
	}
}
