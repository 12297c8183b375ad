package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/swiftride/internal/app"
	"github.com/example/swiftride/internal/models"
	"github.com/example/swiftride/internal/observability"
	"github.com/example/swiftride/internal/riderequest"
	"github.com/example/swiftride/internal/view"
)

const wsWriteWait = 5 * time.Second

// Rider is the slice of the app the view server drives.
type Rider interface {
	Snapshot() app.Snapshot
	Edit(field, value string) error
	Submit(ctx context.Context) (models.RideResponse, error)
	Subscribe() (<-chan struct{}, func())
}

type Server struct {
	rider  Rider
	logger *slog.Logger
	mux    *mux.Router
}

func NewServer(rider Rider, logger *slog.Logger) *Server {
	s := &Server{rider: rider, logger: logger, mux: mux.NewRouter()}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex).Methods("GET")
	s.mux.HandleFunc("/api/state", s.handleState).Methods("GET")
	s.mux.HandleFunc("/api/input", s.handleInput).Methods("PATCH")
	s.mux.HandleFunc("/api/rides", s.handleSubmit).Methods("POST")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) current() view.View { return view.Project(s.rider.Snapshot()) }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := view.Render(w, s.current()); err != nil {
		s.logger.Warn("render failed", "error", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.current())
}

type fieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// handleInput applies a {"field": value} object of edits, where value is a
// JSON string or number. Valid edits stick even when others in the same body
// are rejected.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var edits map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&edits); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	fields := make([]string, 0, len(edits))
	for f := range edits {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var rejected []fieldError
	for _, f := range fields {
		value, err := fieldText(edits[f])
		if err == nil {
			err = s.rider.Edit(f, value)
		}
		if err != nil {
			rejected = append(rejected, fieldError{Field: f, Error: err.Error()})
		}
	}
	if len(rejected) > 0 {
		annotate(r.Context(), "rejected_fields", len(rejected))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": rejected, "view": s.current()})
		return
	}
	writeJSON(w, http.StatusOK, s.current())
}

// fieldText accepts a JSON string as is and a JSON number by its literal text,
// so numbers go through the same coordinate validation as typed input.
func fieldText(raw json.RawMessage) (string, error) {
	if string(bytes.TrimSpace(raw)) == "null" {
		return "", errNotScalar
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", errNotScalar
}

var errNotScalar = errors.New("value must be a string or a number")

// handleSubmit runs the submission detached from the triggering request: the
// ride belongs to the shared app state, so a viewer hanging up must not fail
// it. App.Close and the backend timeout still bound it.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rider.Submit(context.WithoutCancel(r.Context()))
	if err == nil {
		annotate(r.Context(), "ride_id", resp.RideID, "ride_status", resp.Status)
	} else {
		annotate(r.Context(), "submit_error", err.Error())
	}
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.current())
	case errors.Is(err, riderequest.ErrSubmitInFlight):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "view": s.current()})
	case errors.Is(err, riderequest.ErrClosed):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error()})
	default:
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error(), "view": s.current()})
	}
}

var upgrader = websocket.Upgrader{}

// handleWS pushes the current view on connect and after every state change.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	observability.ViewSubscribers.Inc()
	defer observability.ViewSubscribers.Dec()

	ticks, unsubscribe := s.rider.Subscribe()
	defer unsubscribe()

	// drain reads so close frames are noticed
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(s.current()); err != nil {
			s.logger.Debug("websocket write failed", "error", err)
			return false
		}
		return true
	}
	if !send() {
		return
	}
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(wsWriteWait))
				return
			}
			if !send() {
				return
			}
		case <-gone:
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
