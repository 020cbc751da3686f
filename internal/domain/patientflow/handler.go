package patientflow

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/opdflow/opdflow/pkg/pagination"
)

// Handler exposes the workflow over HTTP for the role screens.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.RegisterPatient)
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.POST("/patients/:id/vitals", h.RecordVitals)
	api.POST("/patients/:id/consultation", h.FinalizeConsultation)
	api.POST("/patients/:id/payment", h.RecordPayment)
	api.POST("/patients/:id/prescriptions/:itemID/dispense", h.Dispense)
	api.PATCH("/patients/:id/stage", h.OverrideStage)
	api.GET("/queues/:stage", h.StageQueue)
	api.GET("/stats", h.Stats)
	api.GET("/drugs", h.ListDrugs)
}

// httpError maps domain errors onto HTTP status codes: validation 400,
// not-found 404, stage conflicts and duplicates 409.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrPrescriptionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case IsWrongStage(err), errors.Is(err, ErrDuplicateID):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidStage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// ListPatients returns all patients in arrival order, optionally filtered
// by ?stage=, paginated.
func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	var (
		patients []*Patient
		err      error
	)
	if stage := c.QueryParam("stage"); stage != "" {
		patients, err = h.svc.PatientsByStage(ctx, Stage(stage))
	} else {
		patients, err = h.svc.ListPatients(ctx)
	}
	if err != nil {
		return httpError(err)
	}

	total := len(patients)
	page := pg.Slice(total)
	return c.JSON(http.StatusOK, pagination.NewResponse(patients[page.Start:page.End], total, pg.Limit, pg.Offset))
}

// StageQueue returns one stage's queue in arrival order; this backs every
// role screen's work list.
func (h *Handler) StageQueue(c echo.Context) error {
	patients, err := h.svc.PatientsByStage(c.Request().Context(), Stage(c.Param("stage")))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) RecordVitals(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var vitals Vitals
	if err := c.Bind(&vitals); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.RecordVitals(c.Request().Context(), id, vitals)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type consultationRequest struct {
	Diagnosis     string              `json:"diagnosis"`
	Symptoms      string              `json:"symptoms"`
	Prescriptions []PrescriptionInput `json:"prescriptions"`
}

func (h *Handler) FinalizeConsultation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req consultationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.FinalizeConsultation(c.Request().Context(), id, req.Diagnosis, req.Symptoms, req.Prescriptions)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type paymentRequest struct {
	Method PaymentMethod `json:"method"`
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.RecordPayment(c.Request().Context(), id, req.Method)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Dispense(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}
	p, err := h.svc.Dispense(c.Request().Context(), id, itemID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type overrideStageRequest struct {
	Stage Stage `json:"stage"`
}

func (h *Handler) OverrideStage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req overrideStageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.OverrideStage(c.Request().Context(), id, req.Stage)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Stats(c echo.Context) error {
	st, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ListDrugs(c echo.Context) error {
	return c.JSON(http.StatusOK, CommonDrugs)
}
