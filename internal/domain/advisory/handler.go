package advisory

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the advisory gateway to the consultation screen.
type Handler struct {
	dispatcher *Dispatcher
}

func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/advisory/analyze", h.Analyze)
}

// Analyze runs one advisory call. Degraded results (missing credential,
// upstream failure) are a 200 with the placeholder payload; only input
// validation and supersede are surfaced as errors.
func (h *Handler) Analyze(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.dispatcher.Analyze(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, ErrSuperseded) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
