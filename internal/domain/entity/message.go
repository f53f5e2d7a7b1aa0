package entity

import "time"

// StartJobMessage is the payload on the image.start queue. Immutable once
// enqueued; readers tolerate any field casing, writers emit camelCase.
type StartJobMessage struct {
	JobID        string    `json:"jobId"`
	CreatedAtUTC time.Time `json:"createdAtUtc"`
	RequestedBy  string    `json:"requestedBy,omitempty"`
}

// ImageTaskMessage is the payload on the image.process queue, one per
// retained station reading.
type ImageTaskMessage struct {
	JobID        string  `json:"jobId"`
	StationID    int     `json:"stationId,omitempty"`
	StationName  string  `json:"stationName"`
	TemperatureC float64 `json:"temperatureC"`
	Description  string  `json:"description"`
}

// StationReading is the normalized record produced by the weather adapter.
type StationReading struct {
	StationID    int
	StationName  string
	TemperatureC float64
	Condition    string
}
