package alarm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/common"
	"github.com/oshokin/alarm-clock/internal/version"
)

// maxBodyBytes bounds request bodies on the sync endpoints.
const maxBodyBytes = 64 << 10

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Get(ctx context.Context) *domain.State
	Store(ctx context.Context, actor string, enabled bool, wakeupAt time.Time) (*domain.State, error)
}

// Server implements the HTTP API of the alarm server.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
	// hub fans state changes out to websocket subscribers.
	hub *Hub
	// upgrader turns /events requests into websocket connections.
	upgrader websocket.Upgrader
	// secret is the shared value every request must carry.
	secret int64
}

// getRequest is the body of /get.
type getRequest struct {
	Secret *int64 `json:"secret"`
}

// storeRequest is the body of /store.
type storeRequest struct {
	Secret  *int64  `json:"secret"`
	Enabled *bool   `json:"enabled"`
	Time    *string `json:"time"`
}

// stateResponse is returned by both sync endpoints.
type stateResponse struct {
	Time    string `json:"time"`
	Enabled bool   `json:"enabled"`
}

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error string `json:"error"`
}

// healthResponse is the body of /healthz.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

var (
	errMissingSecret = errors.New("secret is required")
	errWrongSecret   = errors.New("wrong secret")
	errMissingFields = errors.New("enabled and time are required")
)

// NewServer wires the provided service implementation into HTTP handlers.
func NewServer(service Service, hub *Hub, secret int64) *Server {
	return &Server{
		service: service,
		hub:     hub,
		secret:  secret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Router returns the handler serving every endpoint.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(requestLogger)

	r.Methods(http.MethodPost).Path("/get").HandlerFunc(s.handleGet)
	r.Methods(http.MethodPost).Path("/store").HandlerFunc(s.handleStore)
	r.Methods(http.MethodGet).Path("/events").HandlerFunc(s.handleEvents)
	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(s.handleHealth)

	return r
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req getRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	if status, err := s.checkSecret(req.Secret); err != nil {
		writeError(ctx, w, status, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, toResponse(s.service.Get(ctx)))
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req storeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	if status, err := s.checkSecret(req.Secret); err != nil {
		writeError(ctx, w, status, err)
		return
	}

	if req.Enabled == nil || req.Time == nil {
		writeError(ctx, w, http.StatusBadRequest, errMissingFields)
		return
	}

	wakeupAt, err := domain.ParseWire(*req.Time)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	state, err := s.service.Store(ctx, r.Header.Get(common.ActorHeader), *req.Enabled, wakeupAt)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to store alarm state", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, errors.New("unable to persist state"))

		return
	}

	writeJSON(ctx, w, http.StatusOK, toResponse(state))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Short(),
	})
}

// checkSecret returns the HTTP status to answer with when secret is not accepted.
func (s *Server) checkSecret(secret *int64) (int, error) {
	switch {
	case secret == nil:
		return http.StatusBadRequest, errMissingSecret
	case *secret != s.secret:
		return http.StatusForbidden, errWrongSecret
	default:
		return http.StatusOK, nil
	}
}

func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))

	return decoder.Decode(v)
}

// toResponse converts a domain.State into the sync response shape.
func toResponse(state *domain.State) stateResponse {
	if state == nil {
		return stateResponse{}
	}

	return stateResponse{
		Time:    domain.FormatWire(state.WakeupAt),
		Enabled: state.Enabled,
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WarnKV(ctx, "Failed to write response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	logger.DebugKV(ctx, "Rejected request", "status", status, "error", err)
	writeJSON(ctx, w, status, errorResponse{Error: err.Error()})
}
