package contract

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Check returns one error per unmet expectation, each naming the asserted
// condition and the observed value.
func Check(exp Expectation, resp *Response) []error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if exp.Status != 0 && resp.Status != exp.Status {
		fail("expected status %d, got %d", exp.Status, resp.Status)
	}

	body := string(resp.Body)
	if exp.Body != "" && body != exp.Body {
		fail("expected body %q, got %q", exp.Body, truncate(body))
	}
	if exp.BodyContains != "" && !strings.Contains(body, exp.BodyContains) {
		fail("expected body to contain %q, got %q", exp.BodyContains, truncate(body))
	}

	if len(exp.JSONKeys) > 0 {
		parsed := gjson.ParseBytes(resp.Body)
		if !gjson.ValidBytes(resp.Body) || !parsed.IsObject() {
			fail("expected a JSON object body, got %q", truncate(body))
		} else {
			for _, key := range exp.JSONKeys {
				if !parsed.Get(gjson.Escape(key)).Exists() {
					fail("expected JSON key %q, got keys %v", key, objectKeys(parsed))
				}
			}
		}
	}

	location := resp.Header.Get("Location")
	if exp.Redirect && location == "" {
		fail("expected a Location header, got none")
	}
	if exp.LocationContains != "" && !strings.Contains(location, exp.LocationContains) {
		fail("expected Location to contain %q, got %q", exp.LocationContains, location)
	}
	return errs
}

func objectKeys(obj gjson.Result) []string {
	var keys []string
	obj.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

const maxReportedBody = 200

func truncate(s string) string {
	if len(s) <= maxReportedBody {
		return s
	}
	return s[:maxReportedBody] + "..."
}
