package sprites

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = []rune{'|', '/', '-', '\\'}

// withSpinner runs fn while animating a terminal spinner next to label.
// Presentation only: fn's result passes through untouched, and on a non-tty
// the call degrades to running fn directly.
func withSpinner(label string, fn func() error) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return fn()
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()
	i := 0
	for {
		select {
		case err := <-done:
			fmt.Printf("\r%*s\r", len(label)+2, "")
			return err
		case <-ticker.C:
			fmt.Printf("\r%c %s", spinnerFrames[i%len(spinnerFrames)], label)
			i++
		}
	}
}
