// HTTP/JSON control plane
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package api provides the HTTP/JSON control plane: lifecycle commands,
// pin inspection and stimulation, serial I/O, the debug log, a WebSocket
// status feed and the browser page.
package api

import (
	"context"
	"embed"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"arduino-emulator/pkg/board"
	"arduino-emulator/pkg/debuglog"
	"arduino-emulator/pkg/emulator"
	"arduino-emulator/pkg/errors"
	"arduino-emulator/pkg/log"
	"arduino-emulator/pkg/metrics"
	"arduino-emulator/pkg/scheduler"
)

//go:embed static/index.html
var static embed.FS

// DefaultStopTimeout bounds how long /api/stop and /api/reset wait for a
// cooperative stop before abandoning the worker.
const DefaultStopTimeout = 2 * time.Second

// Emulator is the part of the facade the control plane touches.
type Emulator interface {
	Board() *board.Board
	PinStates() []emulator.PinState
	SetPin(pin, value int) error
	SetPWM(pin, value int) error
	SetAnalog(channel, value int) error
	SerialOutput() string
	SerialInput(data []byte)
	SPIState() emulator.SPIState
	ToneState() emulator.ToneState
}

// Scheduler is the lifecycle the control plane drives.
type Scheduler interface {
	Start() error
	Stop(ctx context.Context) error
	Reset(ctx context.Context) error
	Status() scheduler.Status
}

// Config holds server configuration.
type Config struct {
	// Addr to listen on, e.g. ":8080".
	Addr      string
	Emulator  Emulator
	Scheduler Scheduler
	Debug     *debuglog.Log
	// Metrics is optional; when set it is served on /metrics and every
	// request is counted.
	Metrics     *metrics.EmulatorMetrics
	Logger      *log.Logger
	StopTimeout time.Duration
	// PushInterval is the WebSocket status poll period.
	PushInterval time.Duration
}

// Server is the control-plane HTTP server.
type Server struct {
	emu         Emulator
	sched       Scheduler
	debug       *debuglog.Log
	metrics     *metrics.EmulatorMetrics
	logger      *log.Logger
	addr        string
	stopTimeout time.Duration

	httpServer *http.Server
	listener   net.Listener
	handler    http.Handler

	wsUpgrader   websocket.Upgrader
	wsClients    map[int64]*wsClient
	wsClientMu   sync.RWMutex
	nextWSID     int64
	pushInterval time.Duration

	running atomic.Bool
	done    chan struct{}
}

// New creates a server. Call Start to listen, or Handler to mount it.
func New(cfg Config) *Server {
	if cfg.Debug == nil {
		cfg.Debug = debuglog.New(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.GetLogger("api")
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	if cfg.PushInterval <= 0 {
		cfg.PushInterval = 250 * time.Millisecond
	}
	s := &Server{
		emu:          cfg.Emulator,
		sched:        cfg.Scheduler,
		debug:        cfg.Debug,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		addr:         cfg.Addr,
		stopTimeout:  cfg.StopTimeout,
		wsClients:    make(map[int64]*wsClient),
		pushInterval: cfg.PushInterval,
		done:         make(chan struct{}),
	}
	s.wsUpgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	s.handler = s.routes()
	return s
}

// Handler returns the complete handler, CORS included.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, http.MethodGet, "/", s.handleIndex)
	s.handle(mux, http.MethodPost, "/api/start", s.handleStart)
	s.handle(mux, http.MethodPost, "/api/stop", s.handleStop)
	s.handle(mux, http.MethodPost, "/api/reset", s.handleReset)
	s.handle(mux, http.MethodGet, "/api/tick", s.handleTick)
	s.handle(mux, http.MethodGet, "/api/status", s.handleStatus)
	s.handle(mux, http.MethodGet, "/api/board", s.handleBoard)
	s.handle(mux, http.MethodGet, "/api/pins", s.handlePins)
	s.handle(mux, http.MethodPost, "/api/pin/set", s.handlePinSet)
	s.handle(mux, http.MethodPost, "/api/pwm/set", s.handlePWMSet)
	s.handle(mux, http.MethodPost, "/api/analog/set", s.handleAnalogSet)
	s.handle(mux, http.MethodGet, "/api/serial/output", s.handleSerialOutput)
	s.handle(mux, http.MethodPost, "/api/serial/input", s.handleSerialInput)
	s.handle(mux, http.MethodGet, "/api/debug", s.handleDebug)
	s.handle(mux, http.MethodGet, "/api/spi", s.handleSPI)
	s.handle(mux, http.MethodGet, "/api/tone", s.handleTone)
	s.handle(mux, http.MethodGet, "/health", s.handleHealth)

	mux.HandleFunc("/websocket", s.handleWebSocket)
	if s.metrics != nil {
		mux.Handle("/metrics", metrics.Handler(s.metrics))
	}
	return s.corsMiddleware(mux)
}

// handle registers h for exactly one method and counts the request.
func (s *Server) handle(mux *http.ServeMux, method, path string, h http.HandlerFunc) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		switch {
		case path == "/" && r.URL.Path != "/":
			writeEnvelope(rec, http.StatusNotFound, false, "Not found: "+r.URL.Path)
		case r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead):
			rec.Header().Set("Allow", method)
			writeEnvelope(rec, http.StatusMethodNotAllowed, false, "Method not allowed")
		default:
			h(rec, r)
		}
		if s.metrics != nil {
			s.metrics.RecordRequest(path, rec.status, time.Since(start))
		}
	})
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.StartupError("control plane listener", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.running.Store(true)
	s.logger.Info("control plane listening on http://%s", ln.Addr())

	go s.statusBroadcastLoop()
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("control plane stopped")
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Shutdown closes WebSocket clients and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.running.Swap(false) {
		close(s.done)
	}
	s.wsClientMu.Lock()
	for _, c := range s.wsClients {
		c.Close()
	}
	s.wsClients = make(map[int64]*wsClient)
	s.wsClientMu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware allows the page to be served from anywhere.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// envelope is the response to every command.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeEnvelope(w http.ResponseWriter, status int, ok bool, message string) {
	env := envelope{Status: "error", Message: message}
	if ok {
		env.Status = "success"
	}
	writeJSON(w, status, env)
}

func writeSuccess(w http.ResponseWriter, message string) {
	writeEnvelope(w, http.StatusOK, true, message)
}

// writeError maps an error to its HTTP status.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsRequest(err), errors.IsAddressing(err):
		status = http.StatusBadRequest
	case errors.IsState(err):
		status = http.StatusConflict
	}
	msg := err.Error()
	if e, ok := errors.As(err); ok {
		msg = e.Message
	}
	writeEnvelope(w, status, false, msg)
}

func itoa(n int) string { return strconv.Itoa(n) }
