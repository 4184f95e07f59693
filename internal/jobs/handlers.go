package jobs

import (
	"errors"

	"tradenet-backend/internal/allocator"
	"tradenet-backend/internal/domain"
	"tradenet-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// CreateJob POST /api/v1/jobs/create-job
func (h *Handlers) CreateJob(c *fiber.Ctx) error {
	var body struct {
		ClientID    string `json:"client_id"`
		TradeType   string `json:"trade_type"`
		Description string `json:"description"`
		Location    string `json:"location"`
		Urgency     string `json:"urgency"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.ClientID == "" || body.TradeType == "" || body.Description == "" || body.Location == "" || body.Urgency == "" {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	clientID, err := uuid.Parse(body.ClientID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for client_id", 400, nil)
	}
	if !domain.ValidTradeType(body.TradeType) {
		return response.Error(c, "Unknown trade type", 400, nil)
	}
	if !domain.ValidUrgency(body.Urgency) {
		return response.Error(c, "Unknown urgency level", 400, nil)
	}

	job, matches, err := h.Service.Create(c.Context(), clientID, body.TradeType, body.Description, body.Location, body.Urgency)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Job created", fiber.Map{
		"job":     job,
		"matches": matches,
	}, fiber.Map{
		"match_count": len(matches),
	})
}

// GetJob GET /api/v1/jobs/view-job/:job_id
func (h *Handlers) GetJob(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for job_id", 400, nil)
	}
	job, err := h.Service.Get(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return response.Error(c, "Job not found", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Job retrieved", job, nil)
}

// CloseJob POST /api/v1/jobs/close-job
func (h *Handlers) CloseJob(c *fiber.Ctx) error {
	var body struct {
		JobID string `json:"job_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	jobID, err := uuid.Parse(body.JobID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for job_id", 400, nil)
	}

	if err := h.Service.Close(c.Context(), jobID); err != nil {
		switch {
		case errors.Is(err, allocator.ErrJobNotFound):
			return response.Error(c, "Job not found", 404, nil)
		case errors.Is(err, allocator.ErrInvalidTransition):
			return response.Error(c, "Job is already closed", 409, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Job closed", fiber.Map{"job_id": jobID}, nil)
}
