// Package api exposes the workflow engine over HTTP+JSON. Every route
// requires a bearer token minted by the external session layer; the engine
// itself never issues credentials.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/procwise/procwise"
	"github.com/procwise/procwise/fault"
)

// API wires the HTTP handlers over an engine Service.
type API struct {
	service *procwise.Service
	logger  *zap.Logger
	secret  []byte
	metrics *metrics
}

// Option configures the API.
type Option func(*API)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *API) { a.logger = logger }
}

// New creates an API over the engine. secret verifies the HS256 bearer
// tokens carrying the caller identity.
func New(service *procwise.Service, secret []byte, options ...Option) *API {
	ret := &API{
		service: service,
		logger:  zap.NewNop(),
		secret:  secret,
		metrics: newMetrics(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Router assembles all routes into a mux router.
func (a *API) Router() *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(a.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Use(a.authenticate, a.instrument)

	v1.HandleFunc("/process-templates", a.createTemplate).Methods(http.MethodPost)
	v1.HandleFunc("/process-templates/accessible", a.listAccessibleTemplates).Methods(http.MethodGet)
	v1.HandleFunc("/process-templates/{id}", a.getTemplate).Methods(http.MethodGet)
	v1.HandleFunc("/process-templates/{id}", a.updateTemplate).Methods(http.MethodPut)
	v1.HandleFunc("/process-templates/{id}", a.deleteTemplate).Methods(http.MethodDelete)
	v1.HandleFunc("/process-templates/{id}/access", a.grantAccess).Methods(http.MethodPost)
	v1.HandleFunc("/process-templates/{id}/access", a.listAuthorizedUsers).Methods(http.MethodGet)
	v1.HandleFunc("/process-templates/{id}/access/{userId}", a.revokeAccess).Methods(http.MethodDelete)

	v1.HandleFunc("/process-instances", a.startInstance).Methods(http.MethodPost)
	v1.HandleFunc("/process-instances/number/{number}", a.instanceByNumber).Methods(http.MethodGet)
	v1.HandleFunc("/process-instances/{id}", a.deleteInstance).Methods(http.MethodDelete)
	v1.HandleFunc("/process-instances/{id}/steps", a.instanceSteps).Methods(http.MethodGet)
	v1.HandleFunc("/process-instances/{id}/report", a.instanceReport).Methods(http.MethodGet)

	v1.HandleFunc("/process-step-instances/my-tasks", a.myTasks).Methods(http.MethodGet)
	v1.HandleFunc("/process-step-instances/{id}/execute", a.executeStep).Methods(http.MethodPost)
	v1.HandleFunc("/process-step-instances/{id}/skip", a.skipStep).Methods(http.MethodPost)
	return router
}

func (a *API) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps the fault taxonomy onto HTTP status codes; anything
// unclassified is a 500 that never leaks internals.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation   *fault.ValidationError
		notFound     *fault.NotFoundError
		authz        *fault.AuthorizationError
		invalidState *fault.InvalidStateError
	)
	switch {
	case errors.As(err, &validation):
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Message, Field: validation.Field})
	case errors.As(err, &notFound):
		a.writeJSON(w, http.StatusNotFound, errorResponse{Error: notFound.Error()})
	case errors.As(err, &authz):
		a.writeJSON(w, http.StatusForbidden, errorResponse{Error: authz.Message})
	case errors.As(err, &invalidState):
		a.writeJSON(w, http.StatusConflict, errorResponse{Error: invalidState.Reason})
	default:
		a.logger.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
		a.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}
