// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Thermoquad/collarstat/pkg/petrainer"
	"github.com/Thermoquad/collarstat/pkg/settings"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	serveAddress string
	serveReceive bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP/REST server",
	Long: `Expose the transmitter over HTTP.

Routes:
  GET    /api/settings         stored settings
  PUT    /api/settings         update and persist settings
  POST   /api/sessions         start a command session
  GET    /api/sessions/{id}    session status
  DELETE /api/sessions/{id}    interrupt a running session
  GET    /api/events           websocket stream of received commands (--receive)

Only one session runs at a time; a request made while another is running
is rejected with 409. The keep-alive scheduler runs between sessions.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "Listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveReceive, "receive", false, "Decode the receive path and stream commands on /api/events")
	addTransmitFlags(serveCmd)
}

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

type sessionRequest struct {
	Action   string `json:"action"`
	Channels string `json:"channels"`
	Power    *uint8 `json:"power"`
	Duration int64  `json:"duration"`
	Rounds   int    `json:"rounds"`
}

type sessionStatus struct {
	ID       string `json:"id"`
	Action   string `json:"action"`
	Channels string `json:"channels"`
	Power    uint8  `json:"power"`
	State    string `json:"state"`
	Error    string `json:"error,omitempty"`
}

// Session states
const (
	sessionRunning     = "running"
	sessionDone        = "done"
	sessionInterrupted = "interrupted"
	sessionFailed      = "failed"
)

type settingsResponse struct {
	Key       string `json:"key"`
	Channel   uint8  `json:"channel"`
	KeepAlive string `json:"keepalive"`
}

type settingsRequest struct {
	Key       *uint16 `json:"key"`
	Channel   *uint8  `json:"channel"`
	KeepAlive *string `json:"keepalive"`
}

type eventMessage struct {
	Event   string `json:"event"`
	Key     string `json:"key"`
	Channel uint8  `json:"channel"`
	Action  string `json:"action"`
	Power   uint8  `json:"power"`
	Time    string `json:"time"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// server owns the transmitter. mu serializes sessions, keep-alive bursts
// and settings changes.
type server struct {
	mu        sync.Mutex
	t         *transmitter
	settings  settings.Settings
	keepAlive *petrainer.KeepAlive
	periodMs  int64

	// keyOverride replaces the stored key when set from the command line
	keyOverride *uint16

	stop    atomic.Bool
	current string

	sessionsLock sync.Mutex
	sessions     map[string]*sessionStatus

	socketsLock sync.Mutex
	sockets     map[string]chan eventMessage
}

func newServer(t *transmitter, s settings.Settings, periodMs int64, keyOverride *uint16) *server {
	srv := &server{
		t:           t,
		periodMs:    periodMs,
		keyOverride: keyOverride,
		sessions:    make(map[string]*sessionStatus),
		sockets:     make(map[string]chan eventMessage),
	}
	t.remote.Interrupt = srv.stop.Load
	srv.applySettings(s)
	return srv
}

// applySettings installs s and rebuilds the keep-alive scheduler. Callers
// other than newServer hold mu.
func (srv *server) applySettings(s settings.Settings) {
	srv.settings = s
	srv.t.remote.Key = s.Key
	if srv.keyOverride != nil {
		srv.t.remote.Key = *srv.keyOverride
	}
	srv.keepAlive = nil
	if s.KeepAlive != petrainer.MaskNone {
		srv.keepAlive = petrainer.NewKeepAlive(srv.t.remote, s.KeepAlive)
		srv.keepAlive.Period = srv.periodMs
	}
}

func (srv *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/settings", srv.settingsGetHandler).Methods("GET")
	r.HandleFunc("/api/settings", srv.settingsPutHandler).Methods("PUT")
	r.HandleFunc("/api/sessions", srv.sessionStartHandler).Methods("POST")
	r.HandleFunc("/api/sessions/{id}", srv.sessionGetHandler).Methods("GET")
	r.HandleFunc("/api/sessions/{id}", srv.sessionStopHandler).Methods("DELETE")
	r.HandleFunc("/api/events", srv.eventsHandler).Methods("GET")
	return r
}

//////////////////////////////////////////////////////////////
// Command
//////////////////////////////////////////////////////////////

func runServe(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	t, err := openTransmitter(cmd, s)
	if err != nil {
		return err
	}
	defer t.Close()

	var keyOverride *uint16
	if cmd.Flags().Changed("key") {
		keyOverride = &keyFlag
	}
	srv := newServer(t, s, cfg.KeepAlive.PeriodMs, keyOverride)

	address := cfg.Serve.Address
	if serveAddress != "" {
		address = serveAddress
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveReceive {
		src, err := openEventSource()
		if err != nil {
			return err
		}
		defer src.stop()
		go func() {
			err := src.run(ctx, func(ev petrainer.Event, c petrainer.Command, at int64) {
				srv.broadcast(ev, c)
			})
			if err != nil {
				log.Printf("Receive stopped: %v", err)
			}
		}()
		log.Printf("Receiving from %s", src.info)
	}

	go srv.runKeepAlive(ctx)

	httpServer := &http.Server{
		Addr:              address,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		srv.stop.Store(true)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Println("Starting the server ...")
	fmt.Printf("Output: %s, key 0x%04X\n", t.info, t.remote.Key)
	fmt.Printf("Listening on %s\n", address)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return t.Err()
}

// runKeepAlive services the keep-alive scheduler between sessions
func (srv *server) runKeepAlive(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		srv.mu.Lock()
		srv.t.advanceVirtual(time.Second)
		if srv.keepAlive != nil {
			fired, err := srv.keepAlive.Tick()
			if err != nil {
				log.Printf("Keep-alive failed: %v", err)
			} else if fired {
				log.Printf("Keep-alive sent on %s", srv.keepAlive.Channels)
			}
		}
		srv.mu.Unlock()
	}
}

//////////////////////////////////////////////////////////////
// Settings
//////////////////////////////////////////////////////////////

func settingsToResponse(s settings.Settings) settingsResponse {
	return settingsResponse{
		Key:       fmt.Sprintf("0x%04X", s.Key),
		Channel:   uint8(s.Channel),
		KeepAlive: s.KeepAlive.String(),
	}
}

func (srv *server) settingsGetHandler(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	resp := settingsToResponse(srv.settings)
	srv.mu.Unlock()

	respondJSON(w, http.StatusOK, resp)
}

func (srv *server) settingsPutHandler(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Bad request!")
		return
	}

	if !srv.mu.TryLock() {
		respondError(w, r, http.StatusConflict, "A session is running")
		return
	}
	defer srv.mu.Unlock()

	s := srv.settings
	if req.Key != nil {
		s.Key = *req.Key
	}
	if req.Channel != nil {
		s.Channel = petrainer.Channel(*req.Channel)
	}
	if req.KeepAlive != nil {
		mask, err := petrainer.ParseChannelMask(*req.KeepAlive)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		s.KeepAlive = mask
	}
	if err := s.Validate(); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := settings.Save(cfg.Store, s); err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	srv.applySettings(s)
	log.Printf("Settings updated: key 0x%04X channel %d keep-alive %s", s.Key, s.Channel, s.KeepAlive)
	respondJSON(w, http.StatusOK, settingsToResponse(s))
}

//////////////////////////////////////////////////////////////
// Sessions
//////////////////////////////////////////////////////////////

// buildRequest converts a JSON session request, defaulting the channels to
// the stored channel and the power as the send command does
func buildRequest(req sessionRequest, defaultMask petrainer.ChannelMask) (petrainer.Request, error) {
	args := []string{req.Action}
	if req.Power != nil {
		args = append(args, fmt.Sprintf("%d", *req.Power))
	}
	if req.Duration != 0 && req.Rounds != 0 {
		return petrainer.Request{}, fmt.Errorf("duration and rounds are mutually exclusive: %w", petrainer.ErrInvalidParams)
	}
	duration := req.Duration
	if duration == 0 && req.Rounds == 0 {
		duration = 500
	}
	return parseRequest(args, req.Channels, duration, req.Rounds, defaultMask)
}

func (srv *server) sessionStartHandler(w http.ResponseWriter, r *http.Request) {
	var body sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, r, http.StatusBadRequest, "Bad request!")
		return
	}

	if !srv.mu.TryLock() {
		respondError(w, r, http.StatusConflict, "A session is already running")
		return
	}

	req, err := buildRequest(body, srv.settings.Mask())
	if err != nil {
		srv.mu.Unlock()
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	status := &sessionStatus{
		ID:       uuid.New().String(),
		Action:   req.Action.String(),
		Channels: req.Channels.String(),
		Power:    req.Power,
		State:    sessionRunning,
	}
	srv.sessionsLock.Lock()
	srv.stop.Store(false)
	srv.sessions[status.ID] = status
	srv.current = status.ID
	snapshot := *status
	srv.sessionsLock.Unlock()

	log.Printf("Session %s: %s power %d on %s", status.ID, status.Action, status.Power, status.Channels)

	go func() {
		defer srv.mu.Unlock()
		err := srv.t.remote.Command(req)

		srv.sessionsLock.Lock()
		defer srv.sessionsLock.Unlock()
		srv.current = ""
		// Keep-alive shares the interrupt flag
		srv.stop.Store(false)
		switch {
		case errors.Is(err, petrainer.ErrInterrupted):
			status.State = sessionInterrupted
		case err != nil:
			status.State = sessionFailed
			status.Error = err.Error()
		default:
			status.State = sessionDone
		}
		log.Printf("Session %s: %s", status.ID, status.State)
	}()

	respondJSON(w, http.StatusAccepted, snapshot)
}

func (srv *server) sessionGetHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	srv.sessionsLock.Lock()
	status, ok := srv.sessions[id]
	var snapshot sessionStatus
	if ok {
		snapshot = *status
	}
	srv.sessionsLock.Unlock()

	if !ok {
		respondError(w, r, http.StatusNotFound, fmt.Sprintf("Session %s not found!", id))
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

func (srv *server) sessionStopHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	srv.sessionsLock.Lock()
	status, ok := srv.sessions[id]
	running := ok && srv.current == id
	if running {
		srv.stop.Store(true)
	}
	var snapshot sessionStatus
	if ok {
		snapshot = *status
	}
	srv.sessionsLock.Unlock()

	if !ok {
		respondError(w, r, http.StatusNotFound, fmt.Sprintf("Session %s not found!", id))
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

//////////////////////////////////////////////////////////////
// Events
//////////////////////////////////////////////////////////////

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (srv *server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	name := uuid.New().String()
	out := make(chan eventMessage, 16)
	srv.socketsLock.Lock()
	srv.sockets[name] = out
	srv.socketsLock.Unlock()
	log.Printf("Event socket %s connected", name)

	remove := func() {
		srv.socketsLock.Lock()
		delete(srv.sockets, name)
		srv.socketsLock.Unlock()
	}

	// Reader only watches for the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer conn.Close()
		defer remove()
		for {
			select {
			case msg := <-out:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("Event socket %s OUT error, disconnecting!", name)
					return
				}
			case <-closed:
				log.Printf("Event socket %s disconnected", name)
				return
			}
		}
	}()
}

// broadcast sends a received command to every connected event socket.
// Slow sockets drop messages rather than stall the decoder.
func (srv *server) broadcast(ev petrainer.Event, c petrainer.Command) {
	kind := "new"
	if ev == petrainer.EventRepeat {
		kind = "repeat"
	}
	msg := eventMessage{
		Event:   kind,
		Key:     fmt.Sprintf("0x%04X", c.Key),
		Channel: uint8(c.Channel),
		Action:  c.Action.String(),
		Power:   c.Power,
		Time:    time.Now().Format(time.RFC3339Nano),
	}

	srv.socketsLock.Lock()
	defer srv.socketsLock.Unlock()
	for _, out := range srv.sockets {
		select {
		case out <- msg:
		default:
		}
	}
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func respondJSON(w http.ResponseWriter, httpStatus int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(httpStatus)

	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, r *http.Request, httpStatus int, msg string) {
	respondJSON(w, httpStatus, errorResponse{Error: msg})
}
