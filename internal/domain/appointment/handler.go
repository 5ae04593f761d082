package appointment

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/domain/schedule"
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
	g := api.Group("/appointments")
	g.POST("", h.CreateAppointment)

	authed := g.Group("", auth.RequireAuth())
	authed.GET("", h.ListAppointments)
	authed.GET("/:id", h.GetAppointment)
	authed.PATCH("/status", h.UpdateStatus)
	authed.PATCH("/:id/status", h.UpdateStatus)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Create(c.Request().Context(), req, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return booking.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":       true,
		"message":       "Appointment booked successfully",
		"appointmentId": a.ID,
		"data":          a,
	})
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := booking.ParseID(c.Param("id"))
	if err != nil {
		return booking.HTTPError(err)
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return booking.HTTPError(err)
	}
	if !canView(c, a) {
		return booking.HTTPError(booking.ErrForbidden)
	}
	return booking.Respond(c, http.StatusOK, a)
}

func canView(c echo.Context, a *Appointment) bool {
	actor, _ := auth.ActorFromContext(c.Request().Context())
	return actor.HasRole(auth.RoleDoctor, auth.RoleAdmin) || (a.PatientID != "" && a.PatientID == actor.ID)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	f := Filter{
		DoctorID:       c.QueryParam("doctorId"),
		DoctorEmail:    c.QueryParam("doctorEmail"),
		Specialization: c.QueryParam("specialization"),
	}
	if raw := c.QueryParam("status"); raw != "" {
		st, err := booking.ParseStatus(raw)
		if err != nil {
			return booking.HTTPError(booking.Invalid("status", "%v", err))
		}
		f.Status = st
	}
	date := c.QueryParam("date")
	if date == "" {
		date = c.QueryParam("appointmentDate")
	}
	if date != "" {
		d, err := schedule.NormalizeDate(date)
		if err != nil {
			return booking.HTTPError(booking.Invalid("date", "%v", err))
		}
		f.AppointmentDate = d
	}

	// Patients only see their own bookings.
	actor, _ := auth.ActorFromContext(c.Request().Context())
	if !actor.HasRole(auth.RoleDoctor, auth.RoleAdmin) {
		f.PatientID = actor.ID
	}

	listing, err := h.svc.List(c.Request().Context(), f, pagination.FromContext(c))
	if err != nil {
		return booking.HTTPError(err)
	}
	return booking.RespondList(c, listing)
}

type statusRequest struct {
	AppointmentID string `json:"appointmentId"`
	Status        string `json:"status"`
}

// UpdateStatus serves both PATCH /appointments/:id/status and the body
// addressed PATCH /appointments/status.
func (h *Handler) UpdateStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rawID := c.Param("id")
	if rawID == "" {
		rawID = req.AppointmentID
	}

	var r booking.Required
	if err := r.Check("appointmentId", rawID).Check("status", req.Status).Err(); err != nil {
		return booking.HTTPError(err)
	}
	id, err := booking.ParseID(rawID)
	if err != nil {
		return booking.HTTPError(err)
	}

	// Patients may cancel their own appointments; any other change is the
	// practice's call.
	actor, _ := auth.ActorFromContext(c.Request().Context())
	if !actor.HasRole(auth.RoleDoctor, auth.RoleAdmin) {
		if target, err := booking.ParseStatus(req.Status); err == nil && target != booking.StatusCancelled {
			return booking.HTTPError(booking.ErrForbidden)
		}
		current, err := h.svc.Get(c.Request().Context(), id)
		if err != nil {
			return booking.HTTPError(err)
		}
		if !canView(c, current) {
			return booking.HTTPError(booking.ErrForbidden)
		}
	}

	a, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return booking.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Appointment status updated to " + string(a.Status),
		"data":    a,
	})
}
