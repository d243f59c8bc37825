package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/infinri/layoutc/pkg/pipeline"
)

// newLogger creates the CLI logger. Timestamps are "HH:MM:SS.ms"
// (e.g. "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one pipeline run for the command that started it.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the wall time since newProgress, followed by the
// per-stage timings and merge cache state of stats:
//
//	Rendered 2 handle(s) (12ms) merge=3ms build=1ms render=8ms cached=false
func (p *progress) done(msg string, stats pipeline.Stats, cached bool) {
	p.logger.Info(fmt.Sprintf("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond)),
		"merge", stats.MergeTime.Round(time.Microsecond),
		"build", stats.BuildTime.Round(time.Microsecond),
		"render", stats.RenderTime.Round(time.Microsecond),
		"cached", cached)
}
