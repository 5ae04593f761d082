package ambulance

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/platform/auth"
	"github.com/medconnect/medconnect/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/ambulances")
	g.POST("", h.CreateBooking)
	g.GET("", h.ListBookings, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	g.GET("/:id", h.GetBooking, auth.RequireAuth())
	g.PATCH("/:id/status", h.UpdateStatus, auth.RequireAuth())
	g.DELETE("/:id", h.DeleteBooking, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) CreateBooking(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	b, err := h.svc.Create(c.Request().Context(), req, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return booking.HTTPError(err)
	}
	return booking.Respond(c, http.StatusCreated, b)
}

func (h *Handler) ListBookings(c echo.Context) error {
	var f Filter
	if raw := c.QueryParam("status"); raw != "" {
		st, err := booking.ParseStatus(raw)
		if err != nil {
			return booking.HTTPError(booking.Invalid("status", "%v", err))
		}
		f.Status = st
	}
	listing, err := h.svc.List(c.Request().Context(), f, pagination.FromContext(c))
	if err != nil {
		return booking.HTTPError(err)
	}
	return booking.RespondList(c, listing)
}

func canAccess(c echo.Context, b *Booking) bool {
	actor, _ := auth.ActorFromContext(c.Request().Context())
	return actor.HasRole(auth.RoleDoctor, auth.RoleAdmin) || (b.RequestedBy != "" && b.RequestedBy == actor.ID)
}

func (h *Handler) GetBooking(c echo.Context) error {
	id, err := booking.ParseID(c.Param("id"))
	if err != nil {
		return booking.HTTPError(err)
	}
	b, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return booking.HTTPError(err)
	}
	if !canAccess(c, b) {
		return booking.HTTPError(booking.ErrForbidden)
	}
	return booking.Respond(c, http.StatusOK, b)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := booking.ParseID(c.Param("id"))
	if err != nil {
		return booking.HTTPError(err)
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// Requesters may cancel their own booking; dispatch handles the rest.
	actor, _ := auth.ActorFromContext(c.Request().Context())
	if !actor.HasRole(auth.RoleDoctor, auth.RoleAdmin) {
		if target, err := booking.ParseStatus(req.Status); err == nil && target != booking.StatusCancelled {
			return booking.HTTPError(booking.ErrForbidden)
		}
		current, err := h.svc.Get(c.Request().Context(), id)
		if err != nil {
			return booking.HTTPError(err)
		}
		if !canAccess(c, current) {
			return booking.HTTPError(booking.ErrForbidden)
		}
	}

	b, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return booking.HTTPError(err)
	}
	return booking.Respond(c, http.StatusOK, b)
}

func (h *Handler) DeleteBooking(c echo.Context) error {
	id, err := booking.ParseID(c.Param("id"))
	if err != nil {
		return booking.HTTPError(err)
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return booking.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Ambulance booking deleted",
	})
}
