// Command contractcheck runs the moodtunes HTTP contract against a live server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"moodtunes/internal/contract"
	"moodtunes/internal/session"
	"moodtunes/internal/version"
)

var errContractFailed = errors.New("contract check failed")

func main() {
	app := &cli.Command{
		Name:    "contractcheck",
		Usage:   "Verify a running moodtunes server against its HTTP contract",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Aliases: []string{"u"},
				Usage:   "Base URL of the server under test",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("MOODTUNES_BASE_URL"),
			},
			&cli.StringSliceFlag{
				Name:  "run",
				Usage: "Only run cases whose ID matches this regex (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "skip",
				Usage: "Skip cases whose ID matches this regex (repeatable)",
			},
			&cli.StringFlag{
				Name:    "session-secret",
				Usage:   "Server session secret, used to mint cookies for session cases",
				Sources: cli.EnvVars("SESSION_SECRET"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout",
				Value: contract.DefaultTimeout,
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errContractFailed) {
			fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("no-color") {
		color.NoColor = true
	}

	filters, err := parseFilters(cmd.StringSlice("run"), cmd.StringSlice("skip"))
	if err != nil {
		return err
	}

	baseURL := cmd.String("base-url")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}

	var sessions contract.SessionEncoder
	cases := contract.DefaultCases()
	if secret := cmd.String("session-secret"); secret != "" {
		codec, _, err := session.NewCodec(secret, time.Hour, parsed.Scheme == "https")
		if err != nil {
			return err
		}
		sessions = codec
	} else {
		cases = withoutSessionCases(cases)
		fmt.Println(color.YellowString("No --session-secret given: session cases will not run."))
		fmt.Println()
	}

	timeout := cmd.Duration("timeout")
	out := newConsoleLogger(os.Stdout)
	runner := &contract.Runner{
		NewClient: func() (*contract.Client, error) {
			c, err := contract.NewClient(baseURL, nil, sessions)
			if err != nil {
				return nil, err
			}
			c.SetTimeout(timeout)
			return c, nil
		},
		Filter: filters.AsFilter,
		Logger: out,
	}

	printFilterDescription(filters)
	fmt.Printf("Checking %s\n\n", baseURL)

	results := runner.Run(ctx, cases)
	out.Summary(results)

	if !results.OK() {
		return errContractFailed
	}
	return nil
}

func parseFilters(run, skip []string) (contract.RegexFilters, error) {
	mustMatch, err := contract.ParseRegexList(run)
	if err != nil {
		return contract.RegexFilters{}, fmt.Errorf("--run: %w", err)
	}
	mustNotMatch, err := contract.ParseRegexList(skip)
	if err != nil {
		return contract.RegexFilters{}, fmt.Errorf("--skip: %w", err)
	}
	return contract.RegexFilters{MustMatch: mustMatch, MustNotMatch: mustNotMatch}, nil
}

func withoutSessionCases(cases []contract.Case) []contract.Case {
	out := cases[:0:0]
	for _, c := range cases {
		if !c.Authenticated() {
			out = append(out, c)
		}
	}
	return out
}

func printFilterDescription(filters contract.RegexFilters) {
	if !filters.MustMatch.IsDefined() && !filters.MustNotMatch.IsDefined() {
		return
	}
	fmt.Println("Some cases will be skipped based on the filter criteria for this run:")
	if filters.MustMatch.IsDefined() {
		fmt.Printf("  skip any not matching %s\n", filters.MustMatch)
	}
	if filters.MustNotMatch.IsDefined() {
		fmt.Printf("  skip any matching %s\n", filters.MustNotMatch)
	}
	fmt.Println()
}
