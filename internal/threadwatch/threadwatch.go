// Package threadwatch lists the OS threads of a running simulator
// process, one entry per /proc/<pid>/task/<tid>, grounded on the
// teacher's own goprocinfo-based process inspection in
// src/minimega/proc.go (which reads a single process's /proc/<pid>/stat
// through the same library); this just points it at the task directory
// instead, since a simulation pins one OS thread per simulated process
// and ckbsim-debug's "threads" command exists to make that literal.
package threadwatch

import (
	"fmt"
	"os"
	"strconv"

	proc "github.com/c9s/goprocinfo/linux"
)

// Task describes one OS thread of a process.
type Task struct {
	Pid   int
	State string
}

// Tasks lists every OS thread currently owned by pid.
func Tasks(pid int) ([]Task, error) {
	dir := fmt.Sprintf("/proc/%d/task", pid)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("threadwatch: %w", err)
	}

	var tasks []Task
	for _, e := range entries {
		tid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		stat, err := proc.ReadProcessStat(fmt.Sprintf("%s/%d/stat", dir, tid))
		if err != nil {
			// A thread can exit between the readdir and the stat
			// read; skip it rather than failing the whole listing.
			continue
		}
		tasks = append(tasks, Task{Pid: stat.Pid, State: stat.State})
	}
	return tasks, nil
}
