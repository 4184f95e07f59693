package jobs

import (
	"context"
	"errors"

	"tradenet-backend/internal/allocator"
	"tradenet-backend/internal/domain"
	"tradenet-backend/internal/matching"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("job not found")

// Service owns job intake. Creating a job immediately runs the matcher and
// hands the ranked candidates to the allocator.
type Service struct {
	DB        *gorm.DB
	Matcher   *matching.Matcher
	Allocator *allocator.Service
}

// Create stores the job, ranks candidates and allocates leads. A job with
// no eligible candidates stays open with zero matches.
func (s *Service) Create(ctx context.Context, clientID uuid.UUID, tradeType, description, location, urgency string) (*domain.Job, []domain.Match, error) {
	job := &domain.Job{
		ClientID:    clientID,
		TradeType:   tradeType,
		Description: description,
		Location:    location,
		Urgency:     urgency,
		Status:      domain.JobStatusOpen,
	}
	if err := s.DB.WithContext(ctx).Create(job).Error; err != nil {
		return nil, nil, err
	}

	ranked, err := s.Matcher.Rank(ctx, *job)
	if err != nil {
		return nil, nil, err
	}
	matches, err := s.Allocator.Allocate(ctx, job.JobID, ranked)
	if err != nil {
		return nil, nil, err
	}
	if len(matches) > 0 {
		job.Status = domain.JobStatusMatched
	}
	return job, matches, nil
}

// Get returns a job by id.
func (s *Service) Get(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	var job domain.Job
	if err := s.DB.WithContext(ctx).Where("job_id = ?", jobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Close closes the job; pending matches are implicit-declined by the
// allocator.
func (s *Service) Close(ctx context.Context, jobID uuid.UUID) error {
	return s.Allocator.CancelJob(ctx, jobID)
}
