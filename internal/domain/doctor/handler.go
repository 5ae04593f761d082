package doctor

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
	g := api.Group("/doctors")
	g.GET("", h.ListDoctors)
	g.GET("/:id", h.GetDoctor)
	g.POST("", h.CreateDoctor, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) ListDoctors(c echo.Context) error {
	f := Filter{
		Email:          c.QueryParam("doctorEmail"),
		Specialization: c.QueryParam("specialization"),
		Gender:         c.QueryParam("gender"),
		Hospital:       c.QueryParam("hospital"),
	}
	listing, err := h.svc.List(c.Request().Context(), f, pagination.FromContext(c))
	if err != nil {
		return booking.HTTPError(err)
	}
	return booking.RespondList(c, listing)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := booking.ParseID(c.Param("id"))
	if err != nil {
		return booking.HTTPError(err)
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return booking.HTTPError(err)
	}
	return booking.Respond(c, http.StatusOK, d)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), &d); err != nil {
		return booking.HTTPError(err)
	}
	return booking.Respond(c, http.StatusCreated, &d)
}
