package gtfs

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// SerializeSchedule encodes the raw schedule tables with gob. Parsing a
// large static feed can take seconds; a disk cache of the tables skips the
// CSV pass on restart while the derived index is rebuilt cheaply.
func SerializeSchedule(s *Schedule) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("gtfs: encode schedule: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeSchedule decodes tables previously written by
// SerializeSchedule.
func DeserializeSchedule(data []byte) (*Schedule, error) {
	var s Schedule
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("gtfs: decode schedule: %w", err)
	}
	return &s, nil
}

// SerializeScheduleToWriter streams the gob encoding to w for callers with
// their own storage backend.
func SerializeScheduleToWriter(s *Schedule, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("gtfs: encode schedule: %w", err)
	}
	return nil
}

// DeserializeScheduleFromReader reads a gob-encoded schedule from r.
func DeserializeScheduleFromReader(r io.Reader) (*Schedule, error) {
	var s Schedule
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("gtfs: decode schedule: %w", err)
	}
	return &s, nil
}

// SerializeScheduleToFile writes the cache file, creating or truncating it.
func SerializeScheduleToFile(s *Schedule, path string) error {
	data, err := SerializeSchedule(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DeserializeScheduleFromFile reads a cache file written by
// SerializeScheduleToFile. A missing or corrupt file is an error; callers
// fall back to a fresh LoadSchedule.
func DeserializeScheduleFromFile(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gtfs: read schedule cache: %w", err)
	}
	return DeserializeSchedule(data)
}
