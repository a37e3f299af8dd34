package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/service"
	"github.com/clipforge/api/internal/store"
	"github.com/clipforge/api/pkg/response"
)

// JobsHandler serves the dashboard read boundary and the operator
// trigger.
type JobsHandler struct {
	store     store.JobStore
	intake    *service.IntakeService
	validator *validator.Validate
}

func NewJobsHandler(jobStore store.JobStore, intake *service.IntakeService, v *validator.Validate) *JobsHandler {
	return &JobsHandler{
		store:     jobStore,
		intake:    intake,
		validator: v,
	}
}

// List handles GET /api/jobs. Returns every job, newest first; the
// dashboard truncates client-side.
func (h *JobsHandler) List(c *fiber.Ctx) error {
	jobs, err := h.store.List(c.Context())
	if err != nil {
		return response.StorageError(c, err.Error())
	}
	return response.OK(c, model.JobListResponse{Jobs: jobs})
}

// Get handles GET /api/jobs/:jobId
func (h *JobsHandler) Get(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.store.Get(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.StorageError(c, err.Error())
	}

	return response.OK(c, job)
}

// Create handles POST /api/jobs — the operator trigger.
func (h *JobsHandler) Create(c *fiber.Ctx) error {
	var req model.CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	job, err := h.intake.AcceptKeyword(c.Context(), req.Keyword, req.ChatID)
	if err != nil {
		return response.StorageError(c, err.Error())
	}

	return response.Accepted(c, model.CreateJobResponse{
		JobID:     job.ID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
	})
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errs := make(map[string]string)
		for _, e := range validationErrors {
			errs[e.Field()] = e.Tag()
		}
		return errs
	}
	return nil
}
