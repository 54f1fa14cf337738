package main

import (
	"net"
	"net/http"

	"golang.org/x/net/trace"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/simlog"
)

// schedTrace is the event log that pipe creation, spawn_cell, process
// exit and recovered handler panics write to; it stays nil, and
// tracef/traceErrorf do nothing, unless CKB_SIM_TRACE_ADDR is set.
var schedTrace trace.EventLog

func startTraceServer(addr string) {
	schedTrace = trace.NewEventLog("ckbsim.scheduler", "root")

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/requests", trace.Traces)
	mux.HandleFunc("/debug/events", trace.Events)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		simlog.Errorf("hostabi: trace server not started: %v", err)
		return
	}
	go func() {
		simlog.Infof("trace server listening on %s", ln.Addr())
		if err := http.Serve(ln, mux); err != nil {
			simlog.Errorf("hostabi: trace server exited: %v", err)
		}
	}()
}

func tracef(format string, args ...interface{}) {
	if schedTrace == nil {
		return
	}
	schedTrace.Printf(format, args...)
}

func traceErrorf(format string, args ...interface{}) {
	if schedTrace == nil {
		return
	}
	schedTrace.Errorf(format, args...)
}
