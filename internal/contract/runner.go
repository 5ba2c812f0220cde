package contract

import (
	"context"
	"fmt"
)

// TestLogger receives progress while cases run.
type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)
	TestFinished(id TestID, failed bool)
	TestSkipped(id TestID, reason string)
}

// NullLogger discards all progress.
type NullLogger struct{}

func (NullLogger) TestStarted(TestID)         {}
func (NullLogger) TestError(TestID, error)    {}
func (NullLogger) TestFinished(TestID, bool)  {}
func (NullLogger) TestSkipped(TestID, string) {}

// ClientFactory returns a fresh client for each case.
type ClientFactory func() (*Client, error)

// Runner executes cases.
type Runner struct {
	NewClient ClientFactory
	Filter    Filter
	Logger    TestLogger
}

// Run executes every case, continuing past failures, and returns the results.
func (r *Runner) Run(ctx context.Context, cases []Case) Results {
	logger := r.Logger
	if logger == nil {
		logger = NullLogger{}
	}

	var results Results
	for i, tc := range cases {
		id := TestID{Path: []string{fmt.Sprintf("%02d %s %s", i+1, tc.Method, tc.Path), tc.Name}}
		if r.Filter != nil && !r.Filter(id) {
			logger.TestSkipped(id, "excluded by filter")
			results.Tests = append(results.Tests, TestResult{TestID: id, Skipped: true})
			continue
		}

		logger.TestStarted(id)
		errs := r.runCase(ctx, tc)
		for _, err := range errs {
			logger.TestError(id, err)
		}
		logger.TestFinished(id, len(errs) > 0)

		result := TestResult{TestID: id, Errors: errs}
		results.Tests = append(results.Tests, result)
		if len(errs) > 0 {
			results.Failures = append(results.Failures, result)
		}
	}
	return results
}

func (r *Runner) runCase(ctx context.Context, tc Case) []error {
	client, err := r.NewClient()
	if err != nil {
		return []error{fmt.Errorf("create client: %w", err)}
	}

	var resp *Response
	send := func() error {
		var err error
		resp, err = client.Do(ctx, tc.Method, tc.Path, tc.Form)
		return err
	}

	if tc.Authenticated() {
		err = client.SessionTransaction(tc.Session, send)
	} else {
		err = send()
	}
	if err != nil {
		return []error{fmt.Errorf("request failed: %w", err)}
	}
	return Check(tc.Expect, resp)
}
