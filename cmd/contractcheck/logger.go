package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"moodtunes/internal/contract"
)

// consoleLogger prints one line per case and indented assertion failures.
type consoleLogger struct {
	out     io.Writer
	pending []error
	pass    func(a ...interface{}) string
	fail    func(a ...interface{}) string
	skip    func(a ...interface{}) string
	detail  func(a ...interface{}) string
}

func newConsoleLogger(out io.Writer) *consoleLogger {
	return &consoleLogger{
		out:    out,
		pass:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		fail:   color.New(color.FgRed, color.Bold).SprintFunc(),
		skip:   color.New(color.FgYellow).SprintFunc(),
		detail: color.New(color.FgRed).SprintFunc(),
	}
}

func (l *consoleLogger) TestStarted(contract.TestID) {}

func (l *consoleLogger) TestError(_ contract.TestID, err error) {
	l.pending = append(l.pending, err)
}

func (l *consoleLogger) TestFinished(id contract.TestID, failed bool) {
	if !failed {
		fmt.Fprintf(l.out, "%s  %s\n", l.pass("PASS"), id)
		return
	}
	fmt.Fprintf(l.out, "%s  %s\n", l.fail("FAIL"), id)
	for _, err := range l.pending {
		fmt.Fprintf(l.out, "      %s\n", l.detail(err))
	}
	l.pending = nil
}

func (l *consoleLogger) TestSkipped(id contract.TestID, reason string) {
	fmt.Fprintf(l.out, "%s  %s (%s)\n", l.skip("SKIP"), id, reason)
}

func (l *consoleLogger) Summary(r contract.Results) {
	fmt.Fprintln(l.out)
	line := fmt.Sprintf("%d passed, %d failed, %d skipped", r.Passed(), len(r.Failures), r.Skipped())
	if r.OK() {
		fmt.Fprintln(l.out, l.pass(line))
		return
	}
	fmt.Fprintln(l.out, l.fail(line))
	for _, f := range r.Failures {
		fmt.Fprintf(l.out, "  %s\n", f.TestID)
	}
}
