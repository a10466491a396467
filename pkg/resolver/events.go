package resolver

import "github.com/groboclown/mvn2get/pkg/problems"

// EventSink receives the resolver's narration. The CLI backs this with
// its logger and spinner; tests usually pass NullSink.
//
// Info through Trace take printf-style arguments. Progress carries a
// short transient status line for the spinner. Problem fires for every
// ledger entry as it is recorded.
type EventSink interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Debug(format string, args ...any)
	Trace(format string, args ...any)
	Progress(msg string)
	Problem(p problems.Problem)
}

// NullSink discards every event.
type NullSink struct{}

func (NullSink) Info(string, ...any)      {}
func (NullSink) Warn(string, ...any)      {}
func (NullSink) Debug(string, ...any)     {}
func (NullSink) Trace(string, ...any)     {}
func (NullSink) Progress(string)          {}
func (NullSink) Problem(problems.Problem) {}
