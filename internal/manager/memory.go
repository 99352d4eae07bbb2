package manager

import (
	"encoding/json"
	"log/slog"
	"os"
)

const maxRecords = 10

// CycleRecord captures what happened in a single manager cycle.
type CycleRecord struct {
	Tick         uint64  `json:"tick"`
	Action       string  `json:"action"`
	Kind         string  `json:"kind,omitempty"`
	Satisfaction float64 `json:"satisfaction"`
	Litter       int     `json:"litter"`
	Level        Level   `json:"level"`
	Rationale    string  `json:"rationale,omitempty"`
}

// CycleMemory manages a ring of recent cycle records.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`
	path    string
}

// LoadMemory reads the memory file at path. Returns empty memory if the file
// is missing or unreadable.
func LoadMemory(path string) *CycleMemory {
	mem := &CycleMemory{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return mem
	}
	if err := json.Unmarshal(data, mem); err != nil {
		slog.Warn("manager memory corrupted, starting fresh", "error", err)
		return &CycleMemory{path: path}
	}
	return mem
}

// Save writes the memory to disk. In-memory only when no path was given.
func (m *CycleMemory) Save() {
	if m.path == "" {
		return
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		slog.Error("failed to marshal manager memory", "error", err)
		return
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		slog.Error("failed to write manager memory", "error", err)
	}
}

// Record adds a cycle record, trimming to maxRecords.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// HiredRecently reports whether kind was hired in the last n cycles.
func (m *CycleMemory) HiredRecently(kind string, n int) bool {
	for i := len(m.Records) - 1; i >= 0 && i >= len(m.Records)-n; i-- {
		if r := m.Records[i]; r.Action == "hire" && r.Kind == kind {
			return true
		}
	}
	return false
}
