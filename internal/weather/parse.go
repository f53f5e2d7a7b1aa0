package weather

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Liquid9001/WeatherImageGeneratorEB/internal/domain/entity"
)

// Field alias priority, highest first. The upstream feed has drifted between
// casings over the years, so lookups are case-insensitive on top of these.
var (
	nameAliases = []string{"stationname", "stationName", "name"}
	tempAliases = []string{"temperature", "temperatureC", "temp"}
	condAliases = []string{
		"weatherdescription", "weatherDescription",
		"weatherdescriptionlong", "weatherDescriptionLong",
		"description",
	}
	idAliases = []string{"stationid", "stationId", "id"}
)

// ParseStationReadings extracts normalized station readings from a raw feed
// payload. It prefers the documented actual.stationmeasurements array and
// falls back to the first array that looks like station measurements.
// Records missing a usable name or temperature are skipped.
func ParseStationReadings(payload []byte) ([]entity.StationReading, error) {
	var root any
	if err := json.Unmarshal(payload, &root); err != nil {
		return nil, fmt.Errorf("decode weather feed: %w", err)
	}

	items := measurementArray(root)

	var readings []entity.StationReading
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		name := stringField(obj, nameAliases)
		tempRaw := stringField(obj, tempAliases)
		if strings.TrimSpace(name) == "" || strings.TrimSpace(tempRaw) == "" {
			continue
		}

		temp, ok := parseTemperature(tempRaw)
		if !ok {
			continue
		}

		reading := entity.StationReading{
			StationName:  name,
			TemperatureC: temp,
			Condition:    stringField(obj, condAliases),
		}
		if idRaw := stringField(obj, idAliases); idRaw != "" {
			if id, err := strconv.Atoi(strings.TrimSuffix(idRaw, ".0")); err == nil {
				reading.StationID = id
			}
		}
		readings = append(readings, reading)
	}

	return readings, nil
}

func measurementArray(root any) []any {
	if arr, ok := lookupPath(root, "actual", "stationmeasurements"); ok {
		if items, ok := arr.([]any); ok {
			return items
		}
	}
	if found := findLikelyStationArray(root); found != nil {
		return found
	}
	return nil
}

func lookupPath(node any, path ...string) (any, bool) {
	cur := node
	for _, p := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = lookupIgnoreCase(obj, p)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// findLikelyStationArray walks the document depth-first for the first array
// whose leading object carries both a station-name and a temperature field.
func findLikelyStationArray(node any) []any {
	switch v := node.(type) {
	case []any:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				_, hasName := lookupIgnoreCase(first, "stationname")
				if !hasName {
					_, hasName = lookupIgnoreCase(first, "stationName")
				}
				_, hasTemp := lookupIgnoreCase(first, "temperature")
				if !hasTemp {
					_, hasTemp = lookupIgnoreCase(first, "temperatureC")
				}
				if hasName && hasTemp {
					return v
				}
			}
		}
	case map[string]any:
		for _, child := range v {
			if found := findLikelyStationArray(child); found != nil {
				return found
			}
		}
	}
	return nil
}

func lookupIgnoreCase(obj map[string]any, name string) (any, bool) {
	if v, ok := obj[name]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

// stringField returns the first alias present as a string, rendering numbers
// compactly. Missing or non-scalar fields yield "".
func stringField(obj map[string]any, aliases []string) string {
	for _, alias := range aliases {
		v, ok := lookupIgnoreCase(obj, alias)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			return t
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return ""
}

// parseTemperature accepts dot decimals and the comma decimals the feed
// occasionally emits.
func parseTemperature(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v, true
	}
	if v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64); err == nil {
		return v, true
	}
	return 0, false
}
