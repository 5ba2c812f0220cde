package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"moodtunes/internal/core"
	"moodtunes/internal/session"
)

// historyPageLimit bounds the entries shown on the history page.
const historyPageLimit = 50

// Handler holds the HTTP handlers
type Handler struct {
	deps    Deps
	testing bool
	now     func() time.Time
}

// NewHandler creates a new handler over the given services
func NewHandler(deps Deps, testing bool) *Handler {
	return &Handler{
		deps:    deps,
		testing: testing,
		now:     time.Now,
	}
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Ping handles GET /ping
func (h *Handler) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Test handles GET /test
func (h *Handler) Test(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "MoodTunes is running",
		"testing": h.testing,
	})
}

// Index handles GET /
func (h *Handler) Index(c echo.Context) error {
	sess := session.FromContext(c)
	if !sess.Authenticated() {
		return c.Redirect(http.StatusFound, "/login")
	}
	return c.Render(http.StatusOK, pageIndex, h.page(c))
}

// LoginPage handles GET /login
func (h *Handler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, pageLogin, pageData{})
}

// Login handles POST /login
func (h *Handler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	user, created, err := h.deps.Users.Login(ctx, c.FormValue("username"), c.FormValue("password"))
	if err != nil {
		var appErr *core.AppError
		if errors.As(err, &appErr) &&
			(appErr.Type == core.ErrorTypeInvalidRequest || appErr.Type == core.ErrorTypeAuthentication) {
			core.Logger(ctx).Info("login rejected", "reason", appErr.Message)
			return c.Render(appErr.HTTPStatusCode(), pageLogin, pageData{Error: appErr.Message})
		}
		return err
	}

	if err := session.Save(c, h.deps.Sessions, h.deps.Sessions.New(user.Username, user.ID)); err != nil {
		return core.NewInternalError("failed to create session", err)
	}
	core.Logger(ctx).Info("user logged in", "user_id", user.ID, "created", created)
	return c.Redirect(http.StatusFound, "/")
}

// Logout handles GET /logout
func (h *Handler) Logout(c echo.Context) error {
	session.Clear(c, h.deps.Sessions)
	return c.Redirect(http.StatusFound, "/login")
}

// History handles GET /history. It requires a session minted by POST /login.
func (h *Handler) History(c echo.Context) error {
	sess := session.FromContext(c)
	if !sess.Verified() {
		return c.Redirect(http.StatusFound, "/login")
	}
	ctx := c.Request().Context()

	entries, err := h.deps.History.List(ctx, sess.UserID, historyPageLimit)
	if err != nil {
		return core.NewStorageError("failed to load history", err)
	}
	ratings, err := h.deps.Feedback.ListByUser(ctx, sess.UserID, 0)
	if err != nil {
		return core.NewStorageError("failed to load feedback", err)
	}

	cat := h.deps.Recommender.Catalog()
	data := h.page(c)
	for _, e := range entries {
		view := historyView{Entry: e}
		for _, id := range e.SongIDs {
			if song, ok := cat.Get(id); ok {
				view.Songs = append(view.Songs, song)
			}
		}
		data.History = append(data.History, view)
	}
	for _, fb := range ratings {
		song, ok := cat.Get(fb.SongID)
		if !ok {
			song = core.Song{ID: fb.SongID, Title: fb.SongID}
		}
		data.Feedback = append(data.Feedback, feedbackView{Feedback: fb, Song: song})
	}
	return c.Render(http.StatusOK, pageHistory, data)
}

// Recommend handles POST /recommend. It does not require a session; verified
// sessions also get the result appended to their history.
func (h *Handler) Recommend(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 0
	if raw := strings.TrimSpace(c.FormValue("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 50 {
			return core.NewInvalidRequestError("limit must be an integer between 1 and 50", err)
		}
		limit = n
	}

	rec, err := h.deps.Recommender.Recommend(ctx, c.FormValue("mood_text"), limit)
	if err != nil {
		return err
	}

	sess := session.FromContext(c)
	if sess.Verified() {
		entry := &core.HistoryEntry{
			ID:        uuid.NewString(),
			UserID:    sess.UserID,
			MoodText:  rec.MoodText,
			Mood:      rec.Mood,
			SongIDs:   make([]string, len(rec.Songs)),
			CreatedAt: h.now().UTC(),
		}
		for i, s := range rec.Songs {
			entry.SongIDs[i] = s.ID
		}
		if err := h.deps.History.Append(ctx, entry); err != nil {
			core.Logger(ctx).Warn("failed to record history", "user_id", sess.UserID, "error", err)
		}
	}

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, rec)
	}
	data := h.page(c)
	data.Recommendation = rec
	return c.Render(http.StatusOK, pageResults, data)
}

// Feedback handles POST /feedback. Unverified sessions are sent home.
func (h *Handler) Feedback(c echo.Context) error {
	sess := session.FromContext(c)
	if !sess.Verified() {
		return c.Redirect(http.StatusFound, "/")
	}

	songID := strings.TrimSpace(c.FormValue("song_id"))
	if _, ok := h.deps.Recommender.Catalog().Get(songID); !ok {
		return core.NewInvalidRequestError("unknown song: "+songID, nil)
	}
	rating, err := strconv.Atoi(strings.TrimSpace(c.FormValue("rating")))
	if err != nil {
		return core.NewInvalidRequestError("rating must be an integer", err)
	}

	fb := &core.Feedback{
		ID:        uuid.NewString(),
		UserID:    sess.UserID,
		SongID:    songID,
		Rating:    rating,
		CreatedAt: h.now().UTC(),
	}
	if err := fb.Validate(); err != nil {
		return core.NewInvalidRequestError(err.Error(), err)
	}
	if err := h.deps.Feedback.Record(c.Request().Context(), fb); err != nil {
		return core.NewStorageError("failed to record feedback", err)
	}
	return c.Redirect(http.StatusFound, "/history")
}

func (h *Handler) page(c echo.Context) pageData {
	sess := session.FromContext(c)
	return pageData{
		Username: sess.Username,
		Verified: sess.Verified(),
		Moods:    core.AllMoods,
	}
}

func sessionUsername(c echo.Context) string {
	return session.FromContext(c).Username
}
