package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// FieldErrors is implemented by errors that name the request fields they
// reject. The error handler lists them under "fields".
type FieldErrors interface {
	FieldNames() []string
}

// ErrorHandler renders every error as {"success": false, "error": ...}.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
			if he.Internal != nil && code >= 500 {
				err = he.Internal
			}
		}

		body := map[string]interface{}{
			"success": false,
			"error":   msg,
		}
		var fe FieldErrors
		if errors.As(err, &fe) {
			body["fields"] = fe.FieldNames()
		}

		if code >= 500 {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Int("status", code).Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}
