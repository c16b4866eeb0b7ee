package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Fixed slot keys for the two persisted collections.
const (
	SlotTemperatures = "SavedTemperatures"
	SlotCycles       = "SavedCycleRecords"
)

// ErrSlotNotFound is returned by a SlotStore when nothing was saved under a key.
var ErrSlotNotFound = errors.New("slot not found")

// SlotStore is the port for the durable key-value storage backing the record
// store. Each slot holds one serialized collection.
type SlotStore interface {
	LoadSlot(ctx context.Context, key string) ([]byte, error)
	SaveSlot(ctx context.Context, key string, payload []byte) error
}

// EncodeTemperatures serializes temperature records as a JSON array of
// {id, dateTime, temperature}.
func EncodeTemperatures(records []TemperatureRecord) ([]byte, error) {
	if records == nil {
		records = []TemperatureRecord{}
	}
	return json.Marshal(records)
}

// DecodeTemperatures parses the output of EncodeTemperatures.
func DecodeTemperatures(data []byte) ([]TemperatureRecord, error) {
	var out []TemperatureRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode temperatures: %w", err)
	}
	return out, nil
}

// EncodeCycles serializes cycle records as a JSON array of {id, startDate}.
func EncodeCycles(records []CycleRecord) ([]byte, error) {
	if records == nil {
		records = []CycleRecord{}
	}
	return json.Marshal(records)
}

// DecodeCycles parses the output of EncodeCycles.
func DecodeCycles(data []byte) ([]CycleRecord, error) {
	var out []CycleRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode cycles: %w", err)
	}
	return out, nil
}
