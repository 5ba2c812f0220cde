// Package contract verifies the HTTP contract of a running moodtunes server.
//
// Each Case is a request, an optional session written before the request and
// an Expectation. Cases run independently against a fresh Client; a failed
// assertion is recorded and the run moves on to the next case.
package contract

import (
	"net/http"
	"net/url"
)

// Case is one contract check.
type Case struct {
	Name   string
	Method string
	Path   string
	// Form is sent url-encoded when non-nil.
	Form url.Values
	// Session is written through a session transaction before the request.
	Session map[string]string
	Expect  Expectation
}

// Authenticated reports whether the case runs with a session.
func (c Case) Authenticated() bool {
	return len(c.Session) > 0
}

// Expectation lists what a response must satisfy. Zero fields are not checked.
type Expectation struct {
	Status int
	// Body must equal the response body exactly.
	Body string
	// BodyContains must appear somewhere in the body.
	BodyContains string
	// JSONKeys must be present in a JSON object body; value types are not checked.
	JSONKeys []string
	// LocationContains must appear in the Location header.
	LocationContains string
	// Redirect requires a non-empty Location header.
	Redirect bool
}

// TestUsername is the username written into session-bearing cases.
const TestUsername = "testuser"

// DefaultCases returns the contract table in order.
func DefaultCases() []Case {
	testSession := map[string]string{"username": TestUsername}

	return []Case{
		{Name: "health", Method: http.MethodGet, Path: "/health",
			Expect: Expectation{Status: http.StatusOK, Body: "OK"}},
		{Name: "ping", Method: http.MethodGet, Path: "/ping",
			Expect: Expectation{Status: http.StatusOK, Body: "OK"}},
		{Name: "test endpoint", Method: http.MethodGet, Path: "/test",
			Expect: Expectation{Status: http.StatusOK, JSONKeys: []string{"status", "message"}}},
		{Name: "index requires login", Method: http.MethodGet, Path: "/",
			Expect: Expectation{Status: http.StatusFound, LocationContains: "/login"}},
		{Name: "login page", Method: http.MethodGet, Path: "/login",
			Expect: Expectation{Status: http.StatusOK, BodyContains: "Login"}},
		{Name: "register absent", Method: http.MethodGet, Path: "/register",
			Expect: Expectation{Status: http.StatusNotFound}},
		{Name: "logout redirects", Method: http.MethodGet, Path: "/logout",
			Expect: Expectation{Status: http.StatusFound, Redirect: true}},
		{Name: "history requires login", Method: http.MethodGet, Path: "/history",
			Expect: Expectation{Status: http.StatusFound, LocationContains: "/login"}},
		{Name: "spotify playlist absent", Method: http.MethodGet, Path: "/spotify_playlist",
			Expect: Expectation{Status: http.StatusNotFound}},
		{Name: "recommend without auth", Method: http.MethodPost, Path: "/recommend",
			Form:   url.Values{"mood_text": {"I am happy"}},
			Expect: Expectation{Status: http.StatusOK}},
		{Name: "feedback requires login", Method: http.MethodPost, Path: "/feedback",
			Form:   url.Values{"song_id": {"test"}, "rating": {"5"}},
			Expect: Expectation{Status: http.StatusFound, LocationContains: "/"}},
		{Name: "index with session", Method: http.MethodGet, Path: "/",
			Session: testSession,
			Expect:  Expectation{Status: http.StatusOK, BodyContains: TestUsername}},
		{Name: "history with unverified session", Method: http.MethodGet, Path: "/history",
			Session: testSession,
			Expect:  Expectation{Status: http.StatusFound, LocationContains: "/login"}},
		{Name: "unknown route", Method: http.MethodGet, Path: "/nonexistent",
			Expect: Expectation{Status: http.StatusNotFound}},
	}
}
