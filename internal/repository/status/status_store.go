// Package status keeps the durable per-job progress record on the object
// store, one JSON object per job under jobs/{jobId}/status.json.
//
// Writes after the initial create are plain read-modify-write with a blind
// overwrite: two concurrent IncrementDone calls can read the same snapshot
// and lose one increment. The fan-out per job is small and delivery is
// at-least-once anyway, so the counter is treated as approximate.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/domain/entity"
	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/repository/s3"
)

const (
	imageContentType  = "image/jpeg"
	statusContentType = "application/json"

	// urlExpiry bounds presigned artifact URLs.
	urlExpiry = 4 * time.Hour
)

// ObjectStore is the slice of the object-store contract the status store
// consumes. *s3.S3Repo satisfies it.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	UploadIfAbsent(ctx context.Context, key string, data []byte, contentType string) (bool, error)
	Download(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	URLFor(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type StatusStore struct {
	store ObjectStore
}

func NewStatusStore(store ObjectStore) *StatusStore {
	return &StatusStore{store: store}
}

func statusPath(jobID string) string {
	return fmt.Sprintf("jobs/%s/status.json", jobID)
}

func imagePrefix(jobID string) string {
	return fmt.Sprintf("jobs/%s/images/", jobID)
}

// InitializeQueued seeds the initial queued record. First writer wins: a
// duplicate start-message delivery finds the record present and leaves any
// progress already made untouched.
func (s *StatusStore) InitializeQueued(ctx context.Context, jobID string) error {
	job := entity.NewQueuedJob(jobID)
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if _, err := s.store.UploadIfAbsent(ctx, statusPath(jobID), data, statusContentType); err != nil {
		return fmt.Errorf("initialize status: %w", err)
	}
	return nil
}

// SetTotal records the fan-out size. total>0 moves the job to running,
// total==0 completes it immediately.
func (s *StatusStore) SetTotal(ctx context.Context, jobID string, total int) error {
	job, err := s.getOrDefault(ctx, jobID)
	if err != nil {
		return err
	}
	job.Total = total
	if total > 0 {
		job.State = entity.StateRunning
	} else {
		job.State = entity.StateCompleted
	}
	return s.write(ctx, job)
}

// IncrementDone advances progress by one, capped at Total, and completes the
// job once done reaches total.
func (s *StatusStore) IncrementDone(ctx context.Context, jobID string) error {
	job, err := s.getOrDefault(ctx, jobID)
	if err != nil {
		return err
	}
	job.Done++
	if job.Done > job.Total {
		job.Done = job.Total
	}
	if job.Total > 0 && job.Done >= job.Total {
		job.State = entity.StateCompleted
	} else {
		job.State = entity.StateRunning
	}
	return s.write(ctx, job)
}

// Fail marks the job failed with a human-readable message. In-flight workers
// for the same job are not cancelled and may still advance Done afterwards.
func (s *StatusStore) Fail(ctx context.Context, jobID, message string) error {
	job, err := s.getOrDefault(ctx, jobID)
	if err != nil {
		return err
	}
	job.State = entity.StateFailed
	job.Error = message
	return s.write(ctx, job)
}

func (s *StatusStore) GetStatus(ctx context.Context, jobID string) (*entity.Job, error) {
	data, err := s.store.Download(ctx, statusPath(jobID))
	if err != nil {
		if errors.Is(err, s3.ErrObjectNotFound) {
			return nil, entity.ErrJobNotFound
		}
		return nil, fmt.Errorf("read status: %w", err)
	}

	var job entity.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &job, nil
}

// UploadImage persists one rendered artifact under the job's image prefix.
// Redelivered tasks overwrite the same key, which is safe.
func (s *StatusStore) UploadImage(ctx context.Context, jobID, fileName string, content []byte) error {
	key := imagePrefix(jobID) + fileName
	if err := s.store.Upload(ctx, key, content, imageContentType); err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	return nil
}

// ListImageURLs returns one readable URL per artifact written for the job.
func (s *StatusStore) ListImageURLs(ctx context.Context, jobID string) ([]string, error) {
	keys, err := s.store.List(ctx, imagePrefix(jobID))
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		u, err := s.store.URLFor(ctx, key, urlExpiry)
		if err != nil {
			return nil, fmt.Errorf("image url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func (s *StatusStore) getOrDefault(ctx context.Context, jobID string) (*entity.Job, error) {
	job, err := s.GetStatus(ctx, jobID)
	if err == nil {
		return job, nil
	}
	if errors.Is(err, entity.ErrJobNotFound) {
		return entity.NewQueuedJob(jobID), nil
	}
	return nil, err
}

func (s *StatusStore) write(ctx context.Context, job *entity.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := s.store.Upload(ctx, statusPath(job.JobID), data, statusContentType); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}
