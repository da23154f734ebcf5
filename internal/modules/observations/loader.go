package observations

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aristath/sentinel-tuner/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
)

// Format identifies the encoding of an observation cache file
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// FormatFromPath infers the cache format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".msgpack", ".mpk":
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("unsupported observation cache extension: %q", filepath.Ext(path))
}

// LoadFile reads an observation cache (a top-level array of records) from disk
func LoadFile(path string) ([]domain.Observation, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open observation cache: %w", err)
	}
	defer f.Close()

	obs, err := Load(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return obs, nil
}

// Load decodes an observation cache from r
func Load(r io.Reader, format Format) ([]domain.Observation, error) {
	var records []Record

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode JSON cache: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode msgpack cache: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown observation cache format: %q", format)
	}

	return DecodeRecords(records)
}

// EncodeMsgpack writes observations as a msgpack cache
func EncodeMsgpack(w io.Writer, observations []domain.Observation) error {
	if err := msgpack.NewEncoder(w).Encode(observations); err != nil {
		return fmt.Errorf("failed to encode msgpack cache: %w", err)
	}
	return nil
}
