package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/domain/entity"
	"github.com/Liquid9001/WeatherImageGeneratorEB/pkg/utils"
)

type BackgroundProvider interface {
	GetBackground(ctx context.Context, query string) ([]byte, error)
}

type Renderer interface {
	Compose(background []byte, stationLine, temperatureLine, conditionLine string) ([]byte, error)
}

// TaskUseCase processes one image task: resolve a background, render the
// card, persist the artifact, advance job progress. Delivery is
// at-least-once: the artifact write is an idempotent overwrite, the Done
// increment is not deduplicated.
type TaskUseCase struct {
	Backgrounds BackgroundProvider
	Renderer    Renderer
	Status      JobStatusStore
	Log         *logrus.Logger
}

func NewTaskUseCase(backgrounds BackgroundProvider, renderer Renderer, status JobStatusStore, log *logrus.Logger) *TaskUseCase {
	return &TaskUseCase{
		Backgrounds: backgrounds,
		Renderer:    renderer,
		Status:      status,
		Log:         log,
	}
}

// ProcessTask handles one task-queue delivery. Parse failures carry no
// usable job id and propagate without a status write; anything later marks
// the job failed and propagates so the transport redelivers.
func (u *TaskUseCase) ProcessTask(ctx context.Context, body []byte) error {
	var task entity.ImageTaskMessage
	if err := json.Unmarshal(body, &task); err != nil {
		return fmt.Errorf("could not parse image task message: %w", err)
	}
	if task.JobID == "" {
		return fmt.Errorf("image task message without jobId")
	}

	if err := u.process(ctx, &task); err != nil {
		if failErr := u.Status.Fail(ctx, task.JobID, err.Error()); failErr != nil {
			u.Log.WithField("jobId", task.JobID).WithError(failErr).Error("failed to record job failure")
		}
		return err
	}
	return nil
}

func (u *TaskUseCase) process(ctx context.Context, task *entity.ImageTaskMessage) error {
	query := task.Description
	if query == "" {
		query = "weather"
	}

	background, err := u.Backgrounds.GetBackground(ctx, query)
	if err != nil {
		return err
	}

	stationLine := fmt.Sprintf("Meetstation %s", task.StationName)
	tempLine := fmt.Sprintf("%.1f °C", task.TemperatureC)

	rendered, err := u.Renderer.Compose(background, stationLine, tempLine, task.Description)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	fileName := utils.SafeFileName(task.StationName) + ".jpg"
	if err := u.Status.UploadImage(ctx, task.JobID, fileName, rendered); err != nil {
		return err
	}

	if err := u.Status.IncrementDone(ctx, task.JobID); err != nil {
		return err
	}

	u.Log.WithFields(logrus.Fields{
		"jobId":   task.JobID,
		"station": task.StationName,
	}).Info("image task completed")

	return nil
}
