// crickpickd is the fantasy cricket prediction daemon. It mirrors matches
// and leaderboards from the remote scoring API, streams status transitions
// to WebSocket clients, and serves a small status API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pitchsix/crickpick/pkg/fantasy/api"
	"github.com/pitchsix/crickpick/pkg/fantasy/catalog"
	"github.com/pitchsix/crickpick/pkg/fantasy/config"
	"github.com/pitchsix/crickpick/pkg/fantasy/leaderboard"
	"github.com/pitchsix/crickpick/pkg/fantasy/metrics"
	"github.com/pitchsix/crickpick/pkg/fantasy/streaming"
)

var (
	// Flags
	httpAddr  = flag.String("http", "", "HTTP server address (overrides CRICKPICK_LISTEN_ADDR)")
	pollEvery = flag.Duration("poll", 0, "Match poll interval (overrides CRICKPICK_POLL_INTERVAL)")
	rosterCap = flag.Int("roster-cache", 64, "Maximum rosters to cache")
	verbose   = flag.Bool("verbose", false, "Verbose logging")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("Starting crickpick daemon")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *httpAddr != "" {
		cfg.ListenAddr = *httpAddr
	}
	if *pollEvery > 0 {
		cfg.PollInterval = *pollEvery
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d, err := newDaemon(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize daemon: %v", err)
	}

	go d.hub.Run()
	go d.pollLoop(ctx)
	go d.startHTTP(cfg.ListenAddr)

	log.Printf("Daemon running (api=%s, http=%s, poll=%s)", cfg.APIBaseURL, cfg.ListenAddr, cfg.PollInterval)
	log.Printf("WebSocket streaming available at ws://%s/ws", cfg.ListenAddr)

	<-sigCh
	log.Println("Shutting down...")
	cancel()
	log.Println("Goodbye!")
}

type daemon struct {
	client  *api.Client
	store   *catalog.Store
	metrics *metrics.ClientMetrics
	hub     *streaming.Hub

	interval time.Duration

	mu        sync.RWMutex
	upcoming  []api.Match
	completed []api.Match
	statuses  map[int64]string
	board     []api.LeaderboardEntry
}

func newDaemon(ctx context.Context, cfg *config.Config) (*daemon, error) {
	cm := metrics.NewClientMetrics()

	opts := []api.ClientOption{
		api.WithBaseURL(cfg.APIBaseURL),
		api.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		api.WithRequestObserver(func(op, status string, elapsed time.Duration) {
			cm.RecordRequest(op, status, elapsed.Seconds())
		}),
	}
	if cfg.APIToken != "" {
		opts = append(opts, api.WithCredentials(api.StaticToken(cfg.APIToken)))
	}
	client := api.NewClient(opts...)

	if cfg.APIToken == "" && cfg.HasLogin() {
		if _, err := client.Login(ctx, cfg.Username, cfg.Password); err != nil {
			return nil, err
		}
		log.Printf("Logged in as %s", cfg.Username)
	}
	if !client.HasCredentials() {
		log.Println("No credentials configured - authenticated endpoints unavailable")
	}

	return &daemon{
		client:   client,
		store:    catalog.NewStore(client, *rosterCap, cfg.CacheTTL, cm),
		metrics:  cm,
		hub:      streaming.NewHub(),
		interval: cfg.PollInterval,
		statuses: make(map[int64]string),
	}, nil
}

func (d *daemon) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

func (d *daemon) poll(ctx context.Context) {
	start := time.Now()

	upcoming, err := d.client.ListMatches(ctx, api.StatusUpcoming)
	if err != nil {
		log.Printf("[POLL] Upcoming matches failed: %v", err)
		d.metrics.RecordPoll("error")
		d.hub.BroadcastError(err, "poll")
		return
	}
	completed, err := d.client.ListMatches(ctx, api.StatusCompleted)
	if err != nil {
		log.Printf("[POLL] Completed matches failed: %v", err)
		d.metrics.RecordPoll("error")
		d.hub.BroadcastError(err, "poll")
		return
	}

	d.mu.Lock()
	d.upcoming = upcoming
	d.completed = completed
	var transitions []api.Match
	previous := make(map[int64]string)
	for _, m := range append(upcoming, completed...) {
		prev, seen := d.statuses[m.ID]
		if seen && prev != m.Status {
			transitions = append(transitions, m)
			previous[m.ID] = prev
		}
		d.statuses[m.ID] = m.Status
	}
	d.mu.Unlock()

	for i := range transitions {
		m := transitions[i]
		log.Printf("[MATCH] %s vs %s: %s -> %s", m.HomeTeam, m.AwayTeam, previous[m.ID], m.Status)
		d.hub.BroadcastMatchStatus(&m, previous[m.ID])
		d.metrics.RecordEvent(string(streaming.EventTypeMatchStatus))
	}

	board, err := d.client.GetOverallLeaderboard(ctx)
	if err != nil {
		log.Printf("[POLL] Leaderboard failed: %v", err)
	} else {
		leaderboard.SortEntries(board)
		d.mu.Lock()
		d.board = board
		d.mu.Unlock()
		if len(transitions) > 0 {
			d.hub.BroadcastLeaderboard(board)
			d.metrics.RecordEvent(string(streaming.EventTypeLeaderboard))
		}
	}

	d.metrics.RecordPoll("ok")
	d.metrics.UpdateTrackedMatches(api.StatusUpcoming, len(upcoming))
	d.metrics.UpdateTrackedMatches(api.StatusCompleted, len(completed))
	d.metrics.UpdateStreamClients(d.hub.ClientCount())

	if *verbose {
		log.Printf("[POLL] %d upcoming, %d completed, %d transitions (%.0fms)",
			len(upcoming), len(completed), len(transitions),
			float64(time.Since(start).Microseconds())/1000)
	}
}

func (d *daemon) startHTTP(addr string) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if *verbose {
		r.Use(middleware.Logger)
	}

	r.Get("/health", d.handleHealth)
	r.Get("/matches", d.handleMatches)
	r.Get("/matches/{matchID}", d.handleMatch)
	r.Get("/matches/{matchID}/players", d.handlePlayers)
	r.Get("/leaderboard", d.handleLeaderboard)
	r.Handle("/metrics", promhttp.HandlerFor(d.metrics.Registry(), promhttp.HandlerOpts{}))
	r.Get("/ws", d.hub.ServeWS)

	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("HTTP server listening on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("HTTP server error: %v", err)
	}
}

func (d *daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := d.client.Health(r.Context()); err != nil {
		status = "degraded"
	}
	writeJSON(w, map[string]string{"status": status})
}

func (d *daemon) handleMatches(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch r.URL.Query().Get("status") {
	case api.StatusUpcoming:
		writeJSON(w, d.upcoming)
	case api.StatusCompleted:
		writeJSON(w, d.completed)
	default:
		writeJSON(w, map[string][]api.Match{
			"upcoming":  d.upcoming,
			"completed": d.completed,
		})
	}
}

func (d *daemon) handleMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := strconv.ParseInt(chi.URLParam(r, "matchID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	match, err := d.client.GetMatch(r.Context(), matchID)
	if api.IsNotFound(err) {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, match)
}

func (d *daemon) handlePlayers(w http.ResponseWriter, r *http.Request) {
	matchID, err := strconv.ParseInt(chi.URLParam(r, "matchID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}

	roster, err := d.store.Roster(r.Context(), matchID)
	if err != nil {
		// Empty roster is the degraded form, not an error.
		writeJSON(w, []string{})
		return
	}
	writeJSON(w, roster.Players())
}

func (d *daemon) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	board := d.board
	d.mu.RUnlock()

	if n, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && n > 0 {
		board = leaderboard.TopN(board, n)
	}
	writeJSON(w, board)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
