package gate

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/nhaumann/boardsync/internal/logging"
)

// State of the readiness check. The board remounts its storage read-only while
// the USB interface is busy, so only the operator can move the gate forward in
// the non-writable states.
type State int

const (
	Unknown State = iota
	NotFound
	ReadOnly
	Writable
)

func (s State) String() string {
	switch s {
	case NotFound:
		return "not found"
	case ReadOnly:
		return "read-only"
	case Writable:
		return "writable"
	default:
		return "unknown"
	}
}

// Next is the pure transition function: a writable probe is terminal, every
// other probe result sends the gate back through Unknown for another attempt.
func Next(current, probe State) State {
	if current == Writable {
		return Writable
	}
	return probe
}

type Gate struct {
	Attempts int

	// Probe, Prompt and Unmount default to the real implementations; tests
	// swap them out.
	Probe   func(targetDir string) State
	Prompt  func(advice string)
	Unmount func(targetDir string)
}

func New(attempts int) *Gate {
	return &Gate{
		Attempts: attempts,
		Probe:    ProbeTarget,
		Prompt:   promptOperator,
		Unmount:  advisoryUnmount,
	}
}

// Wait blocks until the target mount is writable, prompting the operator
// between attempts. Exhausting the attempt budget is fatal for the deployment.
func (g *Gate) Wait(targetDir string) error {
	state := Unknown
	for attempt := 1; attempt <= g.Attempts; attempt++ {
		state = Next(state, g.Probe(targetDir))
		logging.Debugf("Mount probe %d/%d: '%s' is %s", attempt, g.Attempts, targetDir, state)
		switch state {
		case Writable:
			return nil
		case NotFound:
			g.Prompt(fmt.Sprintf("'%s' is not mounted. Connect the board and press enter", targetDir))
		case ReadOnly:
			g.Unmount(targetDir)
			g.Prompt(fmt.Sprintf("'%s' is read-only. Power-cycle the board and press enter", targetDir))
		}
		state = Unknown
	}
	return fmt.Errorf("target '%s' was not writable after %d attempts", targetDir, g.Attempts)
}

// ProbeTarget checks for the mount and then attempts a real write, since a
// read-only FAT remount is only visible when a write fails.
func ProbeTarget(targetDir string) State {
	info, err := os.Stat(targetDir)
	if err != nil || !info.IsDir() {
		return NotFound
	}
	probe := filepath.Join(targetDir, ".boardsync_probe")
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return ReadOnly
	}
	_, werr := f.WriteString("probe")
	cerr := f.Close()
	_ = os.Remove(probe)
	if werr != nil || cerr != nil {
		return ReadOnly
	}
	return Writable
}

func promptOperator(advice string) {
	fmt.Printf("%s: ", advice)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
}

// advisoryUnmount asks the OS to release the volume so the board can remount
// it cleanly. Failures are logged and ignored.
func advisoryUnmount(targetDir string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("diskutil", "unmount", targetDir)
	default:
		cmd = exec.Command("umount", targetDir)
	}
	if err := cmd.Run(); err != nil {
		logging.Debugf("Advisory unmount of '%s' failed: %s", targetDir, err)
	}
}
