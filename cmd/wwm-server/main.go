// Package main implements the wwm web server that renders the weekly
// schedule poster and answers timezone-selection requests.
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/elvina2036/wwm/pkg/poster"
	"github.com/elvina2036/wwm/pkg/schedule"
	"github.com/maypok86/otter/v2"
)

//go:embed templates/home.html
var homeTemplate string

var (
	port       = flag.String("port", "8080", "Port for web server")
	configPath = flag.String("config", "", "Path to schedule config JSON (or set WWM_CONFIG)")
	configURL  = flag.String("config-url", "", "URL of schedule config JSON (or set WWM_CONFIG_URL)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Show version")
)

type rateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	// Rate limit: 60 requests per minute per IP
	if len(valid) >= 60 {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println("wwm Server v1.0.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *configPath == "" {
		*configPath = os.Getenv("WWM_CONFIG")
	}
	if *configURL == "" {
		*configURL = os.Getenv("WWM_CONFIG_URL")
	}

	logger.Info("Server configuration",
		"port", *port,
		"verbose", *verbose,
		"config", *configPath,
		"config_url", *configURL)

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("Failed to load schedule config", "error", err)
		os.Exit(1)
	}
	logger.Info("Schedule loaded",
		"title", cfg.Title,
		"base_timezone", cfg.BaseTimezone,
		"zones_offered", len(cfg.Timezones))

	session := poster.NewSession(cfg, logger)

	// Per-zone cache of propagation responses. The update list is a pure
	// function of config + zone, so entries stay valid for the process
	// lifetime; the TTL just bounds memory.
	cache := otter.Must(&otter.Options[string, []byte]{
		MaximumSize:      1_000,
		ExpiryCalculator: otter.ExpiryWriting[string, []byte](time.Hour),
	})

	srv := &server{
		cfg:     cfg,
		session: session,
		cache:   cache,
		limiter: newRateLimiter(),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleHome)
	mux.HandleFunc("GET /api/v1/schedule", srv.handleSchedule)
	mux.HandleFunc("POST /api/v1/select", srv.handleSelect)

	httpSrv := &http.Server{
		Addr:              ":" + *port,
		Handler:           srv.wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", *port)
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

func loadConfig(logger *slog.Logger) (*schedule.Config, error) {
	switch {
	case *configPath != "":
		return schedule.Load(*configPath)
	case *configURL != "":
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return schedule.Fetch(ctx, *configURL, logger)
	default:
		return nil, fmt.Errorf("no schedule config given: use -config or -config-url")
	}
}

type server struct {
	cfg     *schedule.Config
	session *poster.Session
	cache   *otter.Cache[string, []byte]
	limiter *rateLimiter
	logger  *slog.Logger
	mu      sync.Mutex
}

func (s *server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
		w.Header().Set("X-Request-ID", requestID)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]

				s.logger.Error("PANIC: Request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"client_ip", clientIP(r),
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; connect-src 'self'")

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		}

		handler.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	return strings.Split(r.RemoteAddr, ":")[0]
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	requestID := w.Header().Get("X-Request-ID")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	tmpl, err := template.New("home").Parse(homeTemplate)
	if err != nil {
		s.logger.Error("Template parsing failed",
			"request_id", requestID,
			"error", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, s.cfg); err != nil {
		s.logger.Error("Template execution failed",
			"request_id", requestID,
			"error", err)
	}
}

func (s *server) handleSchedule(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.cfg); err != nil {
		s.logger.Error("Failed to encode schedule", "error", err)
	}
}

func (s *server) handleSelect(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := w.Header().Get("X-Request-ID")

	if !s.limiter.allow(clientIP(r)) {
		s.logger.Error("Rate limit exceeded",
			"request_id", requestID,
			"client_ip", clientIP(r))
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	var req struct {
		Timezone string `json:"timezone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	req.Timezone = strings.TrimSpace(req.Timezone)
	if !s.cfg.Offers(req.Timezone) {
		s.logger.Error("Zone not offered by schedule",
			"request_id", requestID,
			"tz", req.Timezone)
		http.Error(w, "Unknown timezone", http.StatusBadRequest)
		return
	}

	cacheKey := "select:" + req.Timezone
	if data, found := s.cache.GetIfPresent(cacheKey); found {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "hit")
		if _, err := w.Write(data); err != nil {
			s.logger.Error("Failed to write cached response",
				"request_id", requestID,
				"error", err)
		}
		return
	}

	// One propagation pass at a time; each pass fully completes before the
	// next begins, so no partial rewrite is ever observable.
	s.mu.Lock()
	updates, err := s.session.SelectZone(req.Timezone)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("Zone selection failed",
			"request_id", requestID,
			"tz", req.Timezone,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		http.Error(w, "Conversion failed", http.StatusInternalServerError)
		return
	}

	data, err := json.Marshal(updates)
	if err != nil {
		s.logger.Error("JSON encoding failed",
			"request_id", requestID,
			"error", err)
		http.Error(w, "Encoding failed", http.StatusInternalServerError)
		return
	}
	s.cache.Set(cacheKey, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "miss")
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write response",
			"request_id", requestID,
			"error", err)
		return
	}

	s.logger.Info("Zone selection completed",
		"request_id", requestID,
		"tz", req.Timezone,
		"nodes", len(updates),
		"duration_ms", time.Since(start).Milliseconds())
}
