// Package session implements signed, stateless session cookies.
//
// A session token is base64url(JSON payload) + "." + base64url(HMAC-SHA256).
// Handlers never read ambient state: the middleware decodes the cookie once
// and stores the resulting Values on the request context.
package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CookieName is the name of the session cookie.
const CookieName = "moodtunes_session"

// Keys accepted by EncodeCookie.
const (
	KeyUsername = "username"
	KeyUserID   = "user_id"
)

// ErrInvalidSession is returned for malformed, tampered or expired tokens.
var ErrInvalidSession = errors.New("invalid session")

// Values is the decoded identity carried by a session.
type Values struct {
	ID        string `json:"sid"`
	Username  string `json:"username,omitempty"`
	UserID    string `json:"uid,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Authenticated reports whether the session names a user.
func (v Values) Authenticated() bool {
	return v.Username != ""
}

// Verified reports whether the session was minted by a successful login,
// i.e. it carries both the username and the account id.
func (v Values) Verified() bool {
	return v.Username != "" && v.UserID != ""
}

// Codec signs and verifies session tokens.
type Codec struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewCodec creates a codec. An empty secret is replaced by 32 random bytes;
// generated reports whether that happened.
func NewCodec(secret string, ttl time.Duration, secure bool) (c *Codec, generated bool, err error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, false, fmt.Errorf("failed to generate session secret: %w", err)
		}
		generated = true
	}
	if ttl <= 0 {
		return nil, false, fmt.Errorf("session ttl must be positive")
	}
	return &Codec{secret: key, ttl: ttl, secure: secure, now: time.Now}, generated, nil
}

// New returns fresh Values for the given identity, expiring after the codec TTL.
func (c *Codec) New(username, userID string) Values {
	now := c.now()
	return Values{
		ID:        uuid.NewString(),
		Username:  username,
		UserID:    userID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(c.ttl).Unix(),
	}
}

// Encode signs v into a token.
func (c *Codec) Encode(v Values) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + base64.RawURLEncoding.EncodeToString(c.sign(body)), nil
}

// Decode verifies token and returns its Values.
func (c *Codec) Decode(token string) (Values, error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return Values{}, fmt.Errorf("%w: malformed token", ErrInvalidSession)
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return Values{}, fmt.Errorf("%w: malformed signature", ErrInvalidSession)
	}
	if !hmac.Equal(got, c.sign(body)) {
		return Values{}, fmt.Errorf("%w: bad signature", ErrInvalidSession)
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Values{}, fmt.Errorf("%w: malformed payload", ErrInvalidSession)
	}
	var v Values
	if err := json.Unmarshal(payload, &v); err != nil {
		return Values{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if c.now().Unix() >= v.ExpiresAt {
		return Values{}, fmt.Errorf("%w: expired", ErrInvalidSession)
	}
	return v, nil
}

// Cookie returns the Set-Cookie value for v.
func (c *Codec) Cookie(v Values) (*http.Cookie, error) {
	token, err := c.Encode(v)
	if err != nil {
		return nil, err
	}
	expires := time.Unix(v.ExpiresAt, 0)
	maxAge := int(expires.Sub(c.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ExpiredCookie returns a cookie that deletes the session in the browser.
func (c *Codec) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// EncodeCookie builds a session cookie from raw key/value pairs, the way a
// test client writes a session before issuing a request. Unknown keys are
// rejected so a typo cannot silently produce an anonymous session.
func (c *Codec) EncodeCookie(values map[string]string) (*http.Cookie, error) {
	v := c.New("", "")
	for k, val := range values {
		switch k {
		case KeyUsername:
			v.Username = val
		case KeyUserID:
			v.UserID = val
		default:
			return nil, fmt.Errorf("unsupported session key %q", k)
		}
	}
	return c.Cookie(v)
}

func (c *Codec) sign(body string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(body))
	return mac.Sum(nil)
}
