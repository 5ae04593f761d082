package schedule

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/schedules")
	g.GET("/:doctorId", h.GetSchedule)
	g.PUT("", h.ReplaceSchedule, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
}

func (h *Handler) GetSchedule(c echo.Context) error {
	lookup, err := h.svc.Get(c.Request().Context(), c.Param("doctorId"), c.QueryParam("date"))
	if err != nil {
		return booking.HTTPError(err)
	}
	body := map[string]interface{}{
		"success":  true,
		"data":     lookup.Schedule,
		"source":   lookup.Source,
		"fallback": lookup.Source == booking.SourceSample,
	}
	if lookup.Reason != "" {
		body["reason"] = lookup.Reason
	}
	return c.JSON(http.StatusOK, body)
}

func (h *Handler) ReplaceSchedule(c echo.Context) error {
	var req ReplaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// Doctors may only replace their own schedule. An email match counts only
	// when it is the email on the schedule already stored under doctorId.
	actor, _ := auth.ActorFromContext(c.Request().Context())
	if !actor.HasRole(auth.RoleAdmin) {
		doctorID := strings.TrimSpace(req.DoctorID)
		if actor.ID == "" || actor.ID != doctorID {
			owned, err := h.svc.OwnedBy(c.Request().Context(), doctorID, actor.Email)
			if err != nil {
				return booking.HTTPError(err)
			}
			if !owned {
				return booking.HTTPError(booking.ErrForbidden)
			}
		}
	}

	sched, err := h.svc.Replace(c.Request().Context(), req)
	if err != nil {
		return booking.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Schedule updated successfully",
		"data":    sched,
	})
}
