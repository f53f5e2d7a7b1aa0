package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/domain/entity"
	"github.com/Liquid9001/WeatherImageGeneratorEB/pkg/utils"
)

// maxFanOut bounds the number of task messages per job, keeping per-job cost
// predictable however many stations the feed reports.
const maxFanOut = 20

type WeatherSource interface {
	GetStationReadings(ctx context.Context) ([]entity.StationReading, error)
}

// FanOutUseCase turns one start message into up to maxFanOut task messages
// and records the expected total. Total is written before the enqueue loop;
// a failure partway through leaves the job short of its total permanently
// (the transport retries the whole message, but a poisoned one will not).
type FanOutUseCase struct {
	Weather   WeatherSource
	Status    JobStatusStore
	Publisher Publisher
	Log       *logrus.Logger
}

func NewFanOutUseCase(weather WeatherSource, status JobStatusStore, pub Publisher, log *logrus.Logger) *FanOutUseCase {
	return &FanOutUseCase{
		Weather:   weather,
		Status:    status,
		Publisher: pub,
		Log:       log,
	}
}

// ProcessStart handles one start-queue delivery. A body that does not parse
// is unrecoverable here: the job id cannot be trusted, so no status is
// written and the error propagates to the transport's poison policy.
func (u *FanOutUseCase) ProcessStart(ctx context.Context, body []byte) error {
	var start entity.StartJobMessage
	if err := json.Unmarshal(body, &start); err != nil {
		return fmt.Errorf("could not parse start message: %w", err)
	}
	if start.JobID == "" {
		return fmt.Errorf("start message without jobId")
	}

	if err := u.fanOut(ctx, start.JobID); err != nil {
		if failErr := u.Status.Fail(ctx, start.JobID, err.Error()); failErr != nil {
			u.Log.WithField("jobId", start.JobID).WithError(failErr).Error("failed to record job failure")
		}
		return err
	}
	return nil
}

func (u *FanOutUseCase) fanOut(ctx context.Context, jobID string) error {
	readings, err := u.Weather.GetStationReadings(ctx)
	if err != nil {
		return fmt.Errorf("weather source: %w", err)
	}

	if len(readings) > maxFanOut {
		readings = readings[:maxFanOut]
	}

	if err := u.Status.SetTotal(ctx, jobID, len(readings)); err != nil {
		return fmt.Errorf("set total: %w", err)
	}

	u.Log.WithFields(logrus.Fields{
		"jobId": jobID,
		"total": len(readings),
	}).Info("fanning out image tasks")

	for _, r := range readings {
		task := entity.ImageTaskMessage{
			JobID:        jobID,
			StationID:    r.StationID,
			StationName:  r.StationName,
			TemperatureC: r.TemperatureC,
			Description:  r.Condition,
		}

		taskJSON, err := utils.ToRawMessage(task)
		if err != nil {
			return err
		}

		if err := u.Publisher.Publish(ctx, taskJSON); err != nil {
			return fmt.Errorf("enqueue task for %s: %w", r.StationName, err)
		}
	}

	return nil
}
