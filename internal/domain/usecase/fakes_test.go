package usecase

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/domain/entity"
	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/repository/s3"
)

// fakeStatusStore mirrors the status store's read-modify-write semantics
// in memory.
type fakeStatusStore struct {
	mu       sync.Mutex
	jobs     map[string]*entity.Job
	images   map[string][]byte // full key -> content
	failErr  error
	setErr   error
	uploaded []string
}

func newFakeStatusStore() *fakeStatusStore {
	return &fakeStatusStore{
		jobs:   make(map[string]*entity.Job),
		images: make(map[string][]byte),
	}
}

func (f *fakeStatusStore) getOrDefault(jobID string) *entity.Job {
	if j, ok := f.jobs[jobID]; ok {
		return j
	}
	j := entity.NewQueuedJob(jobID)
	f.jobs[jobID] = j
	return j
}

func (f *fakeStatusStore) InitializeQueued(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[jobID]; ok {
		return nil
	}
	f.jobs[jobID] = entity.NewQueuedJob(jobID)
	return nil
}

func (f *fakeStatusStore) SetTotal(ctx context.Context, jobID string, total int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	j := f.getOrDefault(jobID)
	j.Total = total
	if total > 0 {
		j.State = entity.StateRunning
	} else {
		j.State = entity.StateCompleted
	}
	return nil
}

func (f *fakeStatusStore) IncrementDone(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j := f.getOrDefault(jobID)
	j.Done++
	if j.Done > j.Total {
		j.Done = j.Total
	}
	if j.Total > 0 && j.Done >= j.Total {
		j.State = entity.StateCompleted
	} else {
		j.State = entity.StateRunning
	}
	return nil
}

func (f *fakeStatusStore) Fail(ctx context.Context, jobID, message string) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	j := f.getOrDefault(jobID)
	j.State = entity.StateFailed
	j.Error = message
	return nil
}

func (f *fakeStatusStore) GetStatus(ctx context.Context, jobID string) (*entity.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok {
		return nil, entity.ErrJobNotFound
	}
	copied := *j
	return &copied, nil
}

func (f *fakeStatusStore) UploadImage(ctx context.Context, jobID, fileName string, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := "jobs/" + jobID + "/images/" + fileName
	f.images[key] = content
	f.uploaded = append(f.uploaded, key)
	return nil
}

func (f *fakeStatusStore) ListImageURLs(ctx context.Context, jobID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := "jobs/" + jobID + "/images/"
	var urls []string
	for _, key := range f.uploaded {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			urls = append(urls, "mem://"+key)
		}
	}
	return urls, nil
}

type fakePublisher struct {
	mu         sync.Mutex
	messages   []json.RawMessage
	err        error
	errUntilN  int // fail the first N publishes when set
	callsSoFar int
}

func (p *fakePublisher) Publish(ctx context.Context, body json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callsSoFar++
	if p.errUntilN > 0 && p.callsSoFar <= p.errUntilN {
		return p.err
	}
	if p.errUntilN == 0 && p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, body)
	return nil
}

type fakeWeather struct {
	readings []entity.StationReading
	err      error
}

func (w *fakeWeather) GetStationReadings(ctx context.Context) ([]entity.StationReading, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.readings, nil
}

type fakeIndex struct {
	mu      sync.Mutex
	records []entity.JobRecord
	err     error
}

func (i *fakeIndex) CreateJob(ctx context.Context, record *entity.JobRecord) error {
	if i.err != nil {
		return i.err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.records = append(i.records, *record)
	return nil
}

func (i *fakeIndex) ListRecent(ctx context.Context, limit int) ([]entity.JobRecord, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if limit > len(i.records) {
		limit = len(i.records)
	}
	out := make([]entity.JobRecord, limit)
	copy(out, i.records[len(i.records)-limit:])
	return out, nil
}

// fakeCacheStore is an in-memory CacheStore.
type fakeCacheStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{objects: make(map[string][]byte)}
}

func (c *fakeCacheStore) Download(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.objects[key]
	if !ok {
		return nil, s3.ErrObjectNotFound
	}
	return data, nil
}

func (c *fakeCacheStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[key] = data
	return nil
}

type countingProvider struct {
	mu      sync.Mutex
	fetches int
	content []byte
	err     error
	seeds   []string
}

func (p *countingProvider) Fetch(ctx context.Context, query, seed string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetches++
	p.seeds = append(p.seeds, seed)
	if p.err != nil {
		return nil, p.err
	}
	return p.content, nil
}

type fakeRenderer struct {
	err   error
	lines [][3]string
}

func (r *fakeRenderer) Compose(background []byte, station, temp, cond string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.lines = append(r.lines, [3]string{station, temp, cond})
	return append([]byte("rendered:"), background...), nil
}

type fakeBackgrounds struct {
	content []byte
	err     error
}

func (b *fakeBackgrounds) GetBackground(ctx context.Context, query string) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.content, nil
}
