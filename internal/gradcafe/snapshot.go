package gradcafe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// SaveSnapshot writes fetched records as a JSON object keyed by sequence id,
// the raw-data shape the loader reads its delta marker from.
func SaveSnapshot(path string, records []RawRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}

	keyed := make(map[string]RawRecord, len(records))
	for _, r := range records {
		keyed[strconv.Itoa(r.Seq)] = r
	}

	data, err := json.MarshalIndent(keyed, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// LoadMarker reads back a snapshot and returns the full text of its newest
// entry (the lowest sequence id — page 1, row 1 of the previous fetch).
// A missing, empty, or undecodable snapshot yields no marker.
//
// The marker is compared by raw full-text equality downstream; any upstream
// formatting change makes it miss, in which case conflict-skip inserts are
// the only duplicate defense.
func LoadMarker(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var keyed map[string]RawRecord
	if err := json.Unmarshal(data, &keyed); err != nil {
		return ""
	}
	if len(keyed) == 0 {
		return ""
	}

	keys := make([]int, 0, len(keyed))
	for k := range keyed {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		keys = append(keys, n)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Ints(keys)
	return keyed[strconv.Itoa(keys[0])].FullText
}
