package loader

import (
	"os"

	"github.com/kr/pty"

	"github.com/ckblabs/ckb-x64-simulator-go/internal/simlog"
)

// DebugPTYEnv is the toggle that makes hostabi run a guest's entry point
// inside WithDebugPTY. Grounded on the teacher's own
// rationale for giving an attached monitor a controlling terminal
// (src/minimega's qemu monitor connections).
const DebugPTYEnv = "CKB_SIM_DEBUG_PTY"

// DebugPTYEnabled reports whether DebugPTYEnv requests the pty path.
func DebugPTYEnabled() bool {
	return os.Getenv(DebugPTYEnv) == "1"
}

// WithDebugPTY points the process-wide os.Stdout and os.Stderr variables
// at a freshly allocated pty for the duration of fn, restoring the
// originals afterward. Only Go code writing through those variables is
// affected; native code writing to file descriptors 1 and 2 (a loaded
// guest's own output) is not redirected. The slave side's name is
// logged at Info level.
func WithDebugPTY(fn func() (int8, error)) (int8, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return 0, err
	}
	defer master.Close()
	defer slave.Close()

	simlog.Infof("debug pty allocated at %s", slave.Name())

	origOut, origErr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = slave, slave
	defer func() { os.Stdout, os.Stderr = origOut, origErr }()

	return fn()
}
