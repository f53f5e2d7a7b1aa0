package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/domain/entity"
)

func taskBody(t *testing.T, task entity.ImageTaskMessage) []byte {
	t.Helper()
	body, err := json.Marshal(task)
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestProcessTaskHappyPath(t *testing.T) {
	status := newFakeStatusStore()
	status.SetTotal(context.Background(), "job-1", 5)
	renderer := &fakeRenderer{}
	uc := NewTaskUseCase(&fakeBackgrounds{content: []byte("bg")}, renderer, status, testLogger())

	body := taskBody(t, entity.ImageTaskMessage{
		JobID:        "job-1",
		StationName:  "De Bilt",
		TemperatureC: 12.3,
		Description:  "Zwaar bewolkt",
	})
	if err := uc.ProcessTask(context.Background(), body); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}

	assert.Equal(t, []string{"jobs/job-1/images/De_Bilt.jpg"}, status.uploaded)
	job, _ := status.GetStatus(context.Background(), "job-1")
	assert.Equal(t, 1, job.Done)
	assert.Equal(t, entity.StateRunning, job.State)

	if assert.Len(t, renderer.lines, 1) {
		assert.Equal(t, "Meetstation De Bilt", renderer.lines[0][0])
		assert.Equal(t, "12.3 °C", renderer.lines[0][1])
		assert.Equal(t, "Zwaar bewolkt", renderer.lines[0][2])
	}
}

func TestProcessTaskCompletesJobOnLastItem(t *testing.T) {
	status := newFakeStatusStore()
	status.SetTotal(context.Background(), "job-1", 2)
	uc := NewTaskUseCase(&fakeBackgrounds{content: []byte("bg")}, &fakeRenderer{}, status, testLogger())

	for _, name := range []string{"Arcen", "Eindhoven"} {
		body := taskBody(t, entity.ImageTaskMessage{JobID: "job-1", StationName: name, TemperatureC: 1})
		if err := uc.ProcessTask(context.Background(), body); err != nil {
			t.Fatal(err)
		}
	}

	job, _ := status.GetStatus(context.Background(), "job-1")
	assert.Equal(t, entity.StateCompleted, job.State)
	assert.Equal(t, 2, job.Done)
	assert.Equal(t, 100.0, job.Percent())
}

func TestProcessTaskEmptyDescriptionQueriesWeather(t *testing.T) {
	status := newFakeStatusStore()
	status.SetTotal(context.Background(), "job-1", 1)
	provider := &countingProvider{content: []byte("bg")}
	cache := NewBackgroundCache(newFakeCacheStore(), provider)
	uc := NewTaskUseCase(cache, &fakeRenderer{}, status, testLogger())

	body := taskBody(t, entity.ImageTaskMessage{JobID: "job-1", StationName: "X", TemperatureC: 0})
	if err := uc.ProcessTask(context.Background(), body); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []string{"weather"}, provider.seeds)
}

func TestProcessTaskRenderFailure(t *testing.T) {
	status := newFakeStatusStore()
	status.SetTotal(context.Background(), "job-1", 1)
	uc := NewTaskUseCase(&fakeBackgrounds{content: []byte("bg")}, &fakeRenderer{err: errors.New("font missing")}, status, testLogger())

	body := taskBody(t, entity.ImageTaskMessage{JobID: "job-1", StationName: "De Bilt", TemperatureC: 1})
	err := uc.ProcessTask(context.Background(), body)
	assert.Error(t, err)

	job, _ := status.GetStatus(context.Background(), "job-1")
	assert.Equal(t, entity.StateFailed, job.State)
	assert.Contains(t, job.Error, "font missing")
	// No artifact for the failed task.
	assert.Empty(t, status.uploaded)
	assert.Equal(t, 0, job.Done)
}

func TestProcessTaskBackgroundFailure(t *testing.T) {
	status := newFakeStatusStore()
	uc := NewTaskUseCase(&fakeBackgrounds{err: errors.New("image source down")}, &fakeRenderer{}, status, testLogger())

	body := taskBody(t, entity.ImageTaskMessage{JobID: "job-1", StationName: "A", TemperatureC: 1})
	err := uc.ProcessTask(context.Background(), body)
	assert.Error(t, err)

	job, _ := status.GetStatus(context.Background(), "job-1")
	assert.Equal(t, entity.StateFailed, job.State)
}

func TestProcessTaskMalformedMessage(t *testing.T) {
	status := newFakeStatusStore()
	uc := NewTaskUseCase(&fakeBackgrounds{content: []byte("bg")}, &fakeRenderer{}, status, testLogger())

	assert.Error(t, uc.ProcessTask(context.Background(), []byte("!!")))
	assert.Error(t, uc.ProcessTask(context.Background(), []byte(`{"stationName":"no job id"}`)))
	assert.Empty(t, status.jobs)
}

// Redelivery of an already-processed task overwrites the artifact and, by
// design, inflates Done. Documented at-least-once behavior.
func TestProcessTaskRedeliveryInflatesDone(t *testing.T) {
	status := newFakeStatusStore()
	status.SetTotal(context.Background(), "job-1", 5)
	uc := NewTaskUseCase(&fakeBackgrounds{content: []byte("bg")}, &fakeRenderer{}, status, testLogger())

	body := taskBody(t, entity.ImageTaskMessage{JobID: "job-1", StationName: "De Bilt", TemperatureC: 1})
	for i := 0; i < 2; i++ {
		if err := uc.ProcessTask(context.Background(), body); err != nil {
			t.Fatal(err)
		}
	}

	job, _ := status.GetStatus(context.Background(), "job-1")
	assert.Equal(t, 2, job.Done)
	assert.LessOrEqual(t, job.Done, job.Total)
	// Same key twice: one object, overwritten.
	assert.Equal(t, []string{"jobs/job-1/images/De_Bilt.jpg", "jobs/job-1/images/De_Bilt.jpg"}, status.uploaded)
}
