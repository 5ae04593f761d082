package booking

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPError maps a domain error to its HTTP status. The domain error stays
// reachable through Internal.
func HTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var code int
	msg := err.Error()
	switch {
	case IsValidation(err):
		code = http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrSlotUnavailable):
		code = http.StatusConflict
		msg = ErrSlotUnavailable.Error()
	case errors.Is(err, ErrScheduleNotFound):
		code = http.StatusConflict
		msg = ErrScheduleNotFound.Error()
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, ErrStoreUnavailable):
		code = http.StatusServiceUnavailable
		msg = "service temporarily unavailable, please retry"
	default:
		code = http.StatusInternalServerError
		msg = "internal server error"
	}

	he = echo.NewHTTPError(code, msg)
	he.Internal = err
	return he
}

// ListResponse is the body of every list endpoint.
type ListResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data"`
	Count    int         `json:"count"`
	Source   Source      `json:"source"`
	Fallback bool        `json:"fallback"`
	Reason   string      `json:"reason,omitempty"`
}

func RespondList[T any](c echo.Context, l Listing[T]) error {
	return c.JSON(http.StatusOK, ListResponse{
		Success:  true,
		Data:     l.Items,
		Count:    len(l.Items),
		Source:   l.Source,
		Fallback: l.Fallback(),
		Reason:   l.Reason,
	})
}

// Respond writes {"success": true, "data": data}.
func Respond(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}
