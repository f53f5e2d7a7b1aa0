package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCanonicalFeed(t *testing.T) {
	payload := []byte(`{
		"actual": {
			"stationmeasurements": [
				{"stationid": 6260, "stationname": "Meetstation De Bilt", "temperature": 12.3, "weatherdescription": "Zwaar bewolkt"},
				{"stationid": 6391, "stationname": "Meetstation Arcen", "temperature": "8,5", "weatherdescription": "Regen"}
			]
		}
	}`)

	readings, err := ParseStationReadings(payload)
	if err != nil {
		t.Fatalf("ParseStationReadings: %v", err)
	}
	if assert.Len(t, readings, 2) {
		assert.Equal(t, "Meetstation De Bilt", readings[0].StationName)
		assert.Equal(t, 12.3, readings[0].TemperatureC)
		assert.Equal(t, "Zwaar bewolkt", readings[0].Condition)
		assert.Equal(t, 6260, readings[0].StationID)
		// Comma decimal parsed.
		assert.Equal(t, 8.5, readings[1].TemperatureC)
	}
}

func TestParseAlternateCasing(t *testing.T) {
	payload := []byte(`{
		"Actual": {
			"StationMeasurements": [
				{"stationName": "Eindhoven", "temperatureC": "4.0", "weatherDescription": "Mist"}
			]
		}
	}`)

	readings, err := ParseStationReadings(payload)
	if err != nil {
		t.Fatal(err)
	}
	if assert.Len(t, readings, 1) {
		assert.Equal(t, "Eindhoven", readings[0].StationName)
		assert.Equal(t, 4.0, readings[0].TemperatureC)
		assert.Equal(t, "Mist", readings[0].Condition)
	}
}

func TestParseArrayDiscoveryFallback(t *testing.T) {
	// No actual.stationmeasurements path; the parser should find the buried
	// array that looks like station measurements.
	payload := []byte(`{
		"meta": {"version": 2},
		"payload": {
			"nested": {
				"measurements": [
					{"name": "Rotterdam", "stationname": "Rotterdam", "temperature": 9.1}
				]
			}
		}
	}`)

	readings, err := ParseStationReadings(payload)
	if err != nil {
		t.Fatal(err)
	}
	if assert.Len(t, readings, 1) {
		assert.Equal(t, "Rotterdam", readings[0].StationName)
		assert.Empty(t, readings[0].Condition)
	}
}

func TestParseSkipsUnusableRecords(t *testing.T) {
	payload := []byte(`{
		"actual": {
			"stationmeasurements": [
				{"stationname": "", "temperature": 1.0},
				{"stationname": "No Temp"},
				{"stationname": "Bad Temp", "temperature": "n/a"},
				{"stationname": "Good", "temperature": 2.0},
				"not an object"
			]
		}
	}`)

	readings, err := ParseStationReadings(payload)
	if err != nil {
		t.Fatal(err)
	}
	if assert.Len(t, readings, 1) {
		assert.Equal(t, "Good", readings[0].StationName)
	}
}

func TestParseDescriptionAliasPriority(t *testing.T) {
	payload := []byte(`{
		"actual": {
			"stationmeasurements": [
				{"stationname": "A", "temperature": 1, "description": "low", "weatherdescription": "high"}
			]
		}
	}`)

	readings, err := ParseStationReadings(payload)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "high", readings[0].Condition)
}

func TestParseMalformedPayload(t *testing.T) {
	_, err := ParseStationReadings([]byte("{not json"))
	assert.Error(t, err)
}

func TestClientNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL)
	_, err := client.GetStationReadings(context.Background())
	assert.Error(t, err)
}

func TestClientFetchesAndParses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"actual":{"stationmeasurements":[{"stationname":"X","temperature":3.2}]}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL)
	readings, err := client.GetStationReadings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	assert.Len(t, readings, 1)
}
