package ui

import (
	"fmt"
	"io"

	"github.com/desertthunder/v4vx/internal/tasks"
)

// WatchProgress prints every update received on ch until it is closed. The returned channel is
// closed once the last update has been written.
func WatchProgress(w io.Writer, ch <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range ch {
			fmt.Fprintln(w, RenderProgress(u))
		}
	}()
	return done
}
