package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodtunes/internal/contract"
)

func TestConsoleLogger(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	l := newConsoleLogger(&buf)

	ok := contract.TestID{Path: []string{"01 GET /health", "health"}}
	bad := contract.TestID{Path: []string{"02 GET /ping", "ping"}}
	skipped := contract.TestID{Path: []string{"03 GET /test", "test endpoint"}}

	l.TestStarted(ok)
	l.TestFinished(ok, false)
	l.TestStarted(bad)
	l.TestError(bad, errors.New("expected status 200, got 500"))
	l.TestFinished(bad, true)
	l.TestSkipped(skipped, "excluded by filter")
	l.Summary(contract.Results{
		Tests: []contract.TestResult{
			{TestID: ok},
			{TestID: bad, Errors: []error{errors.New("x")}},
			{TestID: skipped, Skipped: true},
		},
		Failures: []contract.TestResult{{TestID: bad, Errors: []error{errors.New("x")}}},
	})

	assert.Equal(t, ""+
		"PASS  01 GET /health/health\n"+
		"FAIL  02 GET /ping/ping\n"+
		"      expected status 200, got 500\n"+
		"SKIP  03 GET /test/test endpoint (excluded by filter)\n"+
		"\n"+
		"1 passed, 1 failed, 1 skipped\n"+
		"  02 GET /ping/ping\n", buf.String())
}

func TestParseFilters(t *testing.T) {
	f, err := parseFilters([]string{"health"}, []string{"ping"})
	require.NoError(t, err)
	assert.True(t, f.AsFilter(contract.TestID{Path: []string{"01 GET /health"}}))
	assert.False(t, f.AsFilter(contract.TestID{Path: []string{"02 GET /ping"}}))

	_, err = parseFilters([]string{"("}, nil)
	assert.ErrorContains(t, err, "--run")
	_, err = parseFilters(nil, []string{"["})
	assert.ErrorContains(t, err, "--skip")
}

func TestWithoutSessionCases(t *testing.T) {
	all := contract.DefaultCases()
	anon := withoutSessionCases(all)

	assert.Len(t, anon, len(all)-2)
	for _, c := range anon {
		assert.False(t, c.Authenticated(), c.Name)
	}
	assert.Len(t, contract.DefaultCases(), 14)
}
