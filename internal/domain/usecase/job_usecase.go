package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/domain/entity"
	"github.com/Liquid9001/WeatherImageGeneratorEB/pkg/utils"
)

// JobStatusStore is the durable aggregate record shared by the dispatcher,
// the fan-out and the workers.
type JobStatusStore interface {
	InitializeQueued(ctx context.Context, jobID string) error
	SetTotal(ctx context.Context, jobID string, total int) error
	IncrementDone(ctx context.Context, jobID string) error
	Fail(ctx context.Context, jobID, message string) error
	GetStatus(ctx context.Context, jobID string) (*entity.Job, error)
	UploadImage(ctx context.Context, jobID, fileName string, content []byte) error
	ListImageURLs(ctx context.Context, jobID string) ([]string, error)
}

type Publisher interface {
	Publish(ctx context.Context, body json.RawMessage) error
}

type JobIndex interface {
	CreateJob(ctx context.Context, record *entity.JobRecord) error
	ListRecent(ctx context.Context, limit int) ([]entity.JobRecord, error)
}

// JobUseCase is the pipeline entry point plus the read side the HTTP surface
// serves from.
type JobUseCase struct {
	Status    JobStatusStore
	Index     JobIndex
	Publisher Publisher
}

func NewJobUseCase(status JobStatusStore, index JobIndex, pub Publisher) *JobUseCase {
	return &JobUseCase{
		Status:    status,
		Index:     index,
		Publisher: pub,
	}
}

// StartJob mints a fresh job id, seeds the queued status record so the job
// is observable before any work happens, then enqueues the start message.
// Each call mints a new job; client retries are not deduplicated here.
func (u *JobUseCase) StartJob(ctx context.Context, requestedBy string) (string, error) {
	jobID := uuid.New().String()

	if err := u.Status.InitializeQueued(ctx, jobID); err != nil {
		return "", err
	}

	record := &entity.JobRecord{
		JobID:       jobID,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := u.Index.CreateJob(ctx, record); err != nil {
		return "", err
	}

	msg := entity.StartJobMessage{
		JobID:        jobID,
		CreatedAtUTC: time.Now().UTC(),
		RequestedBy:  requestedBy,
	}
	msgJSON, err := utils.ToRawMessage(msg)
	if err != nil {
		return "", err
	}

	if err := u.publishWithRetry(ctx, msgJSON); err != nil {
		return "", err
	}

	return jobID, nil
}

func (u *JobUseCase) GetStatus(ctx context.Context, jobID string) (*entity.Job, error) {
	return u.Status.GetStatus(ctx, jobID)
}

func (u *JobUseCase) ListImages(ctx context.Context, jobID string) ([]string, error) {
	return u.Status.ListImageURLs(ctx, jobID)
}

func (u *JobUseCase) ListJobs(ctx context.Context, limit int) ([]entity.JobRecord, error) {
	return u.Index.ListRecent(ctx, limit)
}

func (u *JobUseCase) publishWithRetry(ctx context.Context, msg json.RawMessage) error {
	var (
		baseDelay   = 500 * time.Millisecond
		maxDelay    = 10 * time.Second
		maxAttempts = 5
	)

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := u.Publisher.Publish(ctx, msg); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == maxAttempts {
			break
		}

		backoff := baseDelay << (attempt - 1)
		if backoff > maxDelay {
			backoff = maxDelay
		}

		select {
		case <-time.After(backoff):

		case <-ctx.Done():
			return errors.New("publish canceled by context")
		}
	}

	return fmt.Errorf("publish start message: %w", lastErr)
}
