// Package api provides the HTTP API for observing and steering the park.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/talgya/parkworld/internal/agents"
	"github.com/talgya/parkworld/internal/engine"
	"github.com/talgya/parkworld/internal/grid"
	"github.com/talgya/parkworld/internal/persistence"
	"github.com/talgya/parkworld/internal/staff"
)

const maxSSEConns = 4

// Server serves the park state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; history endpoints answer 503 without it
	RunID    string
	Addr     string
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// Active SSE connection count (atomic).
	sseConns int32
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	adminLimiter := NewRateLimiter(60, time.Minute)

	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints.
		r.Get("/status", s.handleStatus)
		r.Get("/stats", s.handleStats)
		r.Get("/stats/history", s.handleStatsHistory)
		r.Get("/guests", s.handleGuests)
		r.Get("/guests/{id}", s.handleGuest)
		r.Get("/rides", s.handleRides)
		r.Get("/queues", s.handleQueues)
		r.Get("/staff", s.handleStaff)
		r.Get("/facilities", s.handleFacilities)
		r.Get("/finances", s.handleFinances)
		r.Get("/events", s.handleEvents)
		r.Get("/runs", s.handleRuns)
		r.Get("/stream", s.handleStream)

		// Admin endpoints.
		r.Group(func(r chi.Router) {
			r.Use(s.adminOnly, adminLimiter.Middleware)
			r.Post("/speed", s.handleSpeed)
			r.Post("/close", s.handleClose)
			r.Post("/open", s.handleOpen)
			r.Post("/staff", s.handleHire)
			r.Post("/staff/penalty", s.handlePenalty)
		})
	})
	return r
}

// Start begins serving the HTTP API in a goroutine. The returned server can
// be shut down by the caller.
func (s *Server) Start() *http.Server {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly rejects requests without the admin bearer token.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no PARKSIM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.CurrentStats()
	var closed bool
	s.Sim.Read(func() { closed = s.Sim.Closed })

	writeJSON(w, map[string]any{
		"run_id":           s.RunID,
		"tick":             st.Tick,
		"sim_time":         s.Sim.SimTime(),
		"speed":            s.Eng.Speed(),
		"running":          s.Eng.Running(),
		"closed":           closed,
		"guests":           st.Guests,
		"admitted":         st.Admitted,
		"avg_satisfaction": st.AvgSatisfaction,
		"broken_rides":     st.BrokenRides,
		"balance":          st.Balance,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.CurrentStats())
}

type guestSummary struct {
	ID           uint64            `json:"id"`
	Name         string            `json:"name"`
	State        agents.GuestState `json:"state"`
	Pos          grid.Point        `json:"pos"`
	Satisfaction float64           `json:"satisfaction"`
	Happiness    float64           `json:"happiness"`
	RidesTaken   int               `json:"rides_taken"`
}

func (s *Server) handleGuests(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100, 1, 1000)
	state := r.URL.Query().Get("state")

	out := []guestSummary{}
	s.Sim.Read(func() {
		for _, g := range s.Sim.Guests {
			if state != "" && g.State.String() != state {
				continue
			}
			out = append(out, guestSummary{
				ID:           g.ID,
				Name:         g.Name,
				State:        g.State,
				Pos:          g.Pos,
				Satisfaction: g.Satisfaction,
				Happiness:    g.Happiness,
				RidesTaken:   g.RidesTaken,
			})
			if len(out) == limit {
				break
			}
		}
	})
	writeJSON(w, out)
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid guest id", http.StatusBadRequest)
		return
	}

	var (
		snapshot agents.Guest
		found    bool
		queuePos int
	)
	s.Sim.Read(func() {
		if g := s.Sim.Guest(id); g != nil {
			snapshot, found = *g, true
			queuePos = g.QueuePosition()
		}
	})
	if !found {
		http.Error(w, "guest not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"guest":          &snapshot,
		"queue_position": queuePos,
	})
}

type rideView struct {
	ID          uint64      `json:"id"`
	Name        string      `json:"name"`
	Status      string      `json:"status"`
	Footprint   grid.Rect   `json:"footprint"`
	Entrance    *grid.Point `json:"entrance,omitempty"`
	Exit        *grid.Point `json:"exit,omitempty"`
	Riders      int         `json:"riders"`
	Capacity    int         `json:"capacity"`
	QueueLength int         `json:"queue_length"`
	ClaimedBy   uint64      `json:"claimed_by,omitempty"`
	Cycles      int         `json:"cycles"`
	Breakdowns  int         `json:"breakdowns"`
	TotalRiders int         `json:"total_riders"`
}

func (s *Server) handleRides(w http.ResponseWriter, r *http.Request) {
	var out []rideView
	s.Sim.Read(func() {
		out = make([]rideView, 0, len(s.Sim.Park.Rides))
		for _, rd := range s.Sim.Park.Rides {
			v := rideView{
				ID:          rd.ID,
				Name:        rd.Def.Name,
				Status:      rd.Status(),
				Footprint:   rd.Footprint,
				Entrance:    rd.Entrance,
				Exit:        rd.Exit,
				Riders:      len(rd.Riders),
				Capacity:    rd.Def.Capacity,
				ClaimedBy:   rd.ClaimedBy,
				Cycles:      rd.Cycles,
				Breakdowns:  rd.Breakdowns,
				TotalRiders: rd.TotalRiders,
			}
			if rd.Queue != nil {
				v.QueueLength = rd.Queue.Len()
			}
			out = append(out, v)
		}
	})
	writeJSON(w, out)
}

func (s *Server) handleQueues(w http.ResponseWriter, r *http.Request) {
	var out []engine.QueueInfo
	s.Sim.Read(func() { out = s.Sim.Queues() })
	writeJSON(w, out)
}

func (s *Server) handleStaff(w http.ResponseWriter, r *http.Request) {
	var out []staff.Info
	s.Sim.Read(func() { out = s.Sim.StaffInfo() })
	writeJSON(w, out)
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	var out []engine.FacilityInfo
	s.Sim.Read(func() { out = s.Sim.Facilities() })
	writeJSON(w, out)
}

func (s *Server) handleFinances(w http.ResponseWriter, r *http.Request) {
	income, expenses := s.Sim.Book.Summary()
	writeJSON(w, map[string]any{
		"income":        s.Sim.Book.Income(),
		"expenses":      s.Sim.Book.Expenses(),
		"balance":       s.Sim.Book.Balance(),
		"transactions":  s.Sim.Book.Transactions(),
		"income_lines":  income,
		"expense_lines": expenses,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 1, 500)
	events := s.Sim.RecentEvents(limit, r.URL.Query().Get("category"))
	if events == nil {
		events = []engine.Event{}
	}
	writeJSON(w, events)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	fromTick := uint64(0)
	toTick := uint64(1<<63 - 1) // Max int64; SQLite integers are signed.
	if f := r.URL.Query().Get("from"); f != "" {
		if v, err := strconv.ParseUint(f, 10, 64); err == nil {
			fromTick = v
		}
	}
	if t := r.URL.Query().Get("to"); t != "" {
		if v, err := strconv.ParseUint(t, 10, 64); err == nil && v < toTick {
			toTick = v
		}
	}
	limit := queryInt(r, "limit", 60, 1, 1000)
	runID := r.URL.Query().Get("run")
	if runID == "" {
		runID = s.RunID
	}

	rows, err := s.DB.LoadStatsHistory(runID, fromTick, toTick, limit)
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		writeJSON(w, []persistence.StatsRow{})
		return
	}
	if rows == nil {
		rows = []persistence.StatsRow{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	runs, err := s.DB.Runs()
	if err != nil {
		slog.Error("runs query failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []persistence.Run{}
	}
	writeJSON(w, runs)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Speed < 0 || req.Speed > 1000 {
		http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
		return
	}
	s.Eng.SetSpeed(req.Speed)
	slog.Info("speed changed", "speed", req.Speed)
	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.Sim.ClosePark()
	slog.Info("park closed by admin")
	writeJSON(w, map[string]bool{"closed": true})
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	s.Sim.OpenPark()
	slog.Info("park opened by admin")
	writeJSON(w, map[string]bool{"closed": false})
}

func (s *Server) handleHire(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
		X    int    `json:"x"`
		Y    int    `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	kind, err := staff.ParseKind(req.Kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	e, err := s.Sim.Hire(kind, grid.Pt(req.X, req.Y))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var info staff.Info
	s.Sim.Read(func() { info = e.Info() })
	slog.Info("staff hired by admin", "name", info.Name, "kind", info.Kind, "pos", info.Pos)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, info)
}

func (s *Server) handlePenalty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Penalty float64 `json:"penalty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Penalty < 0 || req.Penalty > 1 {
		http.Error(w, "penalty must be 0-1", http.StatusBadRequest)
		return
	}
	s.Sim.SetStaffPenalty(req.Penalty)
	writeJSON(w, map[string]float64{"penalty": req.Penalty})
}

// handleStream provides an SSE endpoint for real-time event streaming,
// limited to a few concurrent connections.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := atomic.AddInt32(&s.sseConns, 1)
	if current > maxSSEConns {
		atomic.AddInt32(&s.sseConns, -1)
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	subID, ch := s.Sim.Subscribe()
	defer s.Sim.Unsubscribe(subID)

	// Catch-up.
	for _, e := range s.Sim.RecentEvents(50, "") {
		writeSSEEvent(w, e)
	}
	flusher.Flush()

	slog.Info("SSE client connected", "sub_id", subID)

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeSSEEvent(w, e)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			slog.Info("SSE client disconnected", "sub_id", subID)
			return
		}
	}
}

// writeSSEEvent writes a single event in SSE format.
func writeSSEEvent(w http.ResponseWriter, e engine.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Category, data)
}

// queryInt reads an integer query parameter, falling back to def when it is
// missing or outside [lo, hi].
func queryInt(r *http.Request, key string, def, lo, hi int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= lo && n <= hi {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
