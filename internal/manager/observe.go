// Package manager implements the autonomous park manager. It observes the
// park through the public API, triages its health, decides on at most one
// staffing change per cycle and acts through the admin API.
package manager

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Snapshot holds all data collected during an observation cycle.
type Snapshot struct {
	Status  Status       `json:"status"`
	Stats   Stats        `json:"stats"`
	Rides   []RideInfo   `json:"rides"`
	Staff   []StaffInfo  `json:"staff"`
	History []HistoryRow `json:"history"`
}

// Status mirrors GET /api/v1/status.
type Status struct {
	RunID   string  `json:"run_id"`
	Tick    uint64  `json:"tick"`
	SimTime string  `json:"sim_time"`
	Speed   float64 `json:"speed"`
	Running bool    `json:"running"`
	Closed  bool    `json:"closed"`
	Guests  int     `json:"guests"`
	Balance int64   `json:"balance"`
}

// Stats mirrors the fields of GET /api/v1/stats the manager reads.
type Stats struct {
	Guests          int     `json:"guests"`
	Queued          int     `json:"queued"`
	AvgSatisfaction float64 `json:"avg_satisfaction"`
	BrokenRides     int     `json:"broken_rides"`
	Litter          int     `json:"litter"`
	FullBins        int     `json:"full_bins"`
	LawnLength      float64 `json:"lawn_length"`
	StaffStriking   int     `json:"staff_striking"`
}

// Point mirrors a grid cell.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RideInfo mirrors items from GET /api/v1/rides.
type RideInfo struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Entrance    *Point `json:"entrance,omitempty"`
	QueueLength int    `json:"queue_length"`
	ClaimedBy   uint64 `json:"claimed_by,omitempty"`
}

// StaffInfo mirrors items from GET /api/v1/staff.
type StaffInfo struct {
	ID      uint64  `json:"id"`
	Name    string  `json:"name"`
	Kind    string  `json:"kind"`
	State   string  `json:"state"`
	Pos     Point   `json:"pos"`
	Penalty float64 `json:"penalty"`
}

// HistoryRow mirrors items from GET /api/v1/stats/history.
type HistoryRow struct {
	Tick            uint64  `json:"tick"`
	Guests          int     `json:"guests"`
	AvgSatisfaction float64 `json:"avg_satisfaction"`
	Litter          int     `json:"litter"`
	BrokenRides     int     `json:"broken_rides"`
}

// Observer fetches park state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches the five endpoints and returns a Snapshot. History is
// optional; a server without a database still yields a snapshot.
func (o *Observer) Observe() (*Snapshot, error) {
	snap := &Snapshot{}

	if err := o.fetchJSON("/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON("/api/v1/stats", &snap.Stats); err != nil {
		return nil, fmt.Errorf("fetch stats: %w", err)
	}
	if err := o.fetchJSON("/api/v1/rides", &snap.Rides); err != nil {
		return nil, fmt.Errorf("fetch rides: %w", err)
	}
	if err := o.fetchJSON("/api/v1/staff", &snap.Staff); err != nil {
		return nil, fmt.Errorf("fetch staff: %w", err)
	}
	if err := o.fetchJSON("/api/v1/stats/history?limit=10", &snap.History); err != nil {
		snap.History = nil
	}

	return snap, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
