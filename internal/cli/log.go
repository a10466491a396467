package cli

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/groboclown/mvn2get/pkg/config"
	"github.com/groboclown/mvn2get/pkg/problems"
)

// Log levels exported for use in main.go.
const (
	LogWarn  = log.WarnLevel
	LogInfo  = log.InfoLevel
	LogDebug = log.DebugLevel
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// logLevelFor maps the configuration's log level onto the logger's.
// Trace has no native level; it maps to debug and the sink gates the
// extra detail itself.
func logLevelFor(configured string) log.Level {
	switch configured {
	case config.LogInfo:
		return log.InfoLevel
	case config.LogDebug, config.LogTrace:
		return log.DebugLevel
	default:
		return log.WarnLevel
	}
}

// eventSink adapts the logger and spinner into the resolver's
// EventSink. The spinner is nil unless progress display is enabled.
type eventSink struct {
	logger *log.Logger
	trace  bool
	spin   *Spinner
}

func (s *eventSink) Info(format string, args ...any) { s.logger.Infof(format, args...) }

func (s *eventSink) Warn(format string, args ...any) { s.logger.Warnf(format, args...) }

func (s *eventSink) Debug(format string, args ...any) { s.logger.Debugf(format, args...) }

func (s *eventSink) Trace(format string, args ...any) {
	if s.trace {
		s.logger.Debugf("TRACE: "+format, args...)
	}
}

func (s *eventSink) Progress(msg string) {
	if s.spin != nil {
		s.spin.SetMessage(msg)
		return
	}
	s.logger.Debugf("%s", msg)
}

func (s *eventSink) Problem(p problems.Problem) {
	if p.Recoverable {
		s.logger.Warnf("%s", p.String())
		return
	}
	s.logger.Errorf("%s", p.String())
}
