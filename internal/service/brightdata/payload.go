package brightdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kapu/wykra-go/internal/domain"
	"github.com/kapu/wykra-go/internal/service/normalize"
)

// Status tokens and message phrases the snapshot endpoint uses while the
// result file is still being materialized.
var (
	buildingStatuses = map[string]struct{}{
		"building":    {},
		"running":     {},
		"pending":     {},
		"collecting":  {},
		"starting":    {},
		"in_progress": {},
		"not_ready":   {},
	}
	notReadyPhrases = []string{"not ready", "still in progress", "try again", "is building"}
	messageKeys     = []string{"message", "error", "detail"}
)

// snapshotPayload is the decoded body of one snapshot request.
type snapshotPayload struct {
	records  []domain.Record
	building bool
}

// decodeSnapshot classifies a snapshot body: a JSON array of records, a
// single JSON record, a still-building marker, or CSV text when format is
// csv. An empty body counts as still building. Rows without any recognized
// profile field are discarded; a body left with no rows is an error.
func decodeSnapshot(body []byte, format domain.SnapshotFormat) (snapshotPayload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return snapshotPayload{building: true}, nil
	}

	switch {
	case trimmed[0] == '[':
		return decodeRecordArray(trimmed)
	case trimmed[0] == '{':
		return decodeRecordObject(trimmed)
	case format == domain.SnapshotFormatCSV:
		return decodeCSV(trimmed)
	default:
		return snapshotPayload{}, fmt.Errorf("snapshot body is not JSON: %s", preview(trimmed))
	}
}

func decodeCSV(body []byte) (snapshotPayload, error) {
	rows, err := normalize.ParseCSV(body)
	if err != nil {
		return snapshotPayload{}, err
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		if normalize.HasProfileFields(row) {
			records = append(records, row)
		}
	}
	if len(records) == 0 {
		return snapshotPayload{}, fmt.Errorf("csv snapshot held %d rows but no profile records", len(rows))
	}
	return snapshotPayload{records: records}, nil
}

func decodeRecordArray(body []byte) (snapshotPayload, error) {
	var items []any
	if err := decodeJSON(body, &items); err != nil {
		return snapshotPayload{}, fmt.Errorf("decode snapshot array: %w", err)
	}

	records := make([]domain.Record, 0, len(items))
	for _, item := range items {
		object, ok := item.(map[string]any)
		if !ok || !normalize.HasProfileFields(object) {
			continue
		}
		records = append(records, domain.Record(object))
	}

	if len(records) == 0 {
		return snapshotPayload{}, fmt.Errorf("snapshot array held %d items but no profile records", len(items))
	}
	return snapshotPayload{records: records}, nil
}

func decodeRecordObject(body []byte) (snapshotPayload, error) {
	var object map[string]any
	if err := decodeJSON(body, &object); err != nil {
		return snapshotPayload{}, fmt.Errorf("decode snapshot object: %w", err)
	}

	if normalize.HasProfileFields(object) {
		return snapshotPayload{records: []domain.Record{domain.Record(object)}}, nil
	}
	if isBuildingMarker(object) {
		return snapshotPayload{building: true}, nil
	}
	return snapshotPayload{}, fmt.Errorf("snapshot object has no profile fields (keys: %s)", strings.Join(sortedKeys(object), ", "))
}

func isBuildingMarker(object map[string]any) bool {
	for _, key := range []string{"status", "state"} {
		if value, ok := object[key].(string); ok {
			if _, building := buildingStatuses[strings.ToLower(strings.TrimSpace(value))]; building {
				return true
			}
		}
	}
	for _, key := range messageKeys {
		message, ok := object[key].(string)
		if !ok {
			continue
		}
		message = strings.ToLower(message)
		for _, phrase := range notReadyPhrases {
			if strings.Contains(message, phrase) {
				return true
			}
		}
	}
	return false
}

// decodeJSON keeps numbers as json.Number so raw records round-trip unchanged.
func decodeJSON(body []byte, dest any) error {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	return decoder.Decode(dest)
}
