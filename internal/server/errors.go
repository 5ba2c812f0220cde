package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"moodtunes/internal/core"
)

// errorHandler renders every handler error once: JSON for JSON clients, the
// error page otherwise.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	appErr := toAppError(err)
	status := appErr.HTTPStatusCode()
	logger := core.Logger(c.Request().Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err, "path", c.Request().URL.Path)
	}

	var writeErr error
	switch {
	case c.Request().Method == http.MethodHead:
		writeErr = c.NoContent(status)
	case wantsJSON(c):
		writeErr = c.JSON(status, appErr.ToJSON())
	default:
		writeErr = c.Render(status, pageError, pageData{
			Username: sessionUsername(c),
			Status:   status,
			Message:  appErr.Message,
		})
	}
	if writeErr != nil {
		logger.Error("failed to write error response", "error", writeErr)
	}
}

// toAppError maps Echo's routing and binding errors into the application
// error taxonomy.
func toAppError(err error) *core.AppError {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return core.AsAppError(err)
	}

	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	} else if he.Message != nil {
		msg = fmt.Sprint(he.Message)
	}

	switch {
	case he.Code == http.StatusNotFound:
		return core.NewNotFoundError(msg)
	case he.Code == http.StatusUnauthorized:
		return core.NewAuthenticationError(msg)
	case he.Code >= 500:
		return core.NewInternalError(msg, err)
	default:
		appErr := core.NewInvalidRequestError(msg, err)
		appErr.StatusCode = he.Code
		return appErr
	}
}

func wantsJSON(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	if strings.Contains(accept, echo.MIMEApplicationJSON) {
		return true
	}
	return accept == "" && strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}
