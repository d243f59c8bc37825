package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a status line with the elapsed time while a slow export
// step runs. Frames go to stderr so they never mix with exported trees on
// stdout.
type spinner struct {
	out      io.Writer
	message  string
	interval time.Duration

	mu    sync.Mutex
	width int
}

func newSpinner(message string) *spinner {
	return &spinner{out: os.Stderr, message: message, interval: 80 * time.Millisecond}
}

// run calls fn while animating, then clears the line and returns fn's error.
// The animation also stops when ctx is done; fn is expected to observe ctx
// itself.
func (s *spinner) run(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		s.animate(ctx)
	}()

	err := fn()
	cancel()
	<-stopped
	s.clearLine()
	return err
}

func (s *spinner) animate(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	start := time.Now()
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			elapsed := time.Since(start).Round(100 * time.Millisecond)
			line := fmt.Sprintf("%s %s %s",
				styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]),
				StyleDim.Render(s.message),
				StyleDim.Render(elapsed.String()))
			s.mu.Lock()
			fmt.Fprintf(s.out, "\r%s", line)
			s.width = max(s.width, len(line))
			s.mu.Unlock()
		}
	}
}

func (s *spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
	s.width = 0
}
