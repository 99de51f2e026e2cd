// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"

	app "github.com/okian/fieldscout/internal/app"
	"github.com/okian/fieldscout/pkg/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Each handler declares the narrow
// slice it uses; this bundle is what the service satisfies.
type Dependencies interface {
	AuthDependencies
	RealmDependencies
	UserDependencies
	SchemaDependencies
	EventDependencies
	ReportDependencies
	LeaderboardDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	authHandler        *AuthHandler
	realmsHandler      *RealmsHandler
	usersHandler       *UsersHandler
	schemasHandler     *SchemasHandler
	eventsHandler      *EventsHandler
	reportsHandler     *ReportsHandler
	leaderboardHandler *LeaderboardHandler

	verifier Verifier
	logger   logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, verifier Verifier, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		authHandler:        NewAuthHandler(deps),
		realmsHandler:      NewRealmsHandler(deps),
		usersHandler:       NewUsersHandler(deps),
		schemasHandler:     NewSchemasHandler(deps),
		eventsHandler:      NewEventsHandler(deps),
		reportsHandler:     NewReportsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		verifier:           verifier,
		logger:             log,
	}
}

// Register attaches all HTTP routes to router.
func (s *Server) Register(_ context.Context, router *mux.Router) {
	if router == nil {
		panic("router is nil")
	}
	router.Use(s.RequestLogger, LimitBody, s.Authenticate)

	get := func(path, endpoint string, h http.HandlerFunc) {
		router.Handle(path, gziphandler.GzipHandler(MetricsMiddleware(h, endpoint))).Methods(http.MethodGet)
	}
	handle := func(method, path, endpoint string, h http.HandlerFunc) {
		router.HandleFunc(path, MetricsMiddleware(h, endpoint)).Methods(method)
	}

	get("/healthz", "healthz", s.healthHandler.HandleHealth)

	handle(http.MethodPost, "/authenticate", "authenticate", s.authHandler.HandleAuthenticate)

	get("/realms", "realms", s.realmsHandler.HandleListRealms)
	handle(http.MethodPost, "/realms", "realms", s.realmsHandler.HandleCreateRealm)
	get("/realms/{id:[0-9]+}", "realm", s.realmsHandler.HandleGetRealm)
	handle(http.MethodPut, "/realms/{id:[0-9]+}", "realm", s.realmsHandler.HandleUpdateRealm)
	handle(http.MethodDelete, "/realms/{id:[0-9]+}", "realm", s.realmsHandler.HandleDeleteRealm)

	get("/users", "users", s.usersHandler.HandleListUsers)
	handle(http.MethodPost, "/users", "users", s.usersHandler.HandleCreateUser)
	get("/users/{id:[0-9]+}", "user", s.usersHandler.HandleGetUser)
	handle(http.MethodPatch, "/users/{id:[0-9]+}", "user", s.usersHandler.HandlePatchUser)
	handle(http.MethodDelete, "/users/{id:[0-9]+}", "user", s.usersHandler.HandleDeleteUser)

	get("/schemas", "schemas", s.schemasHandler.HandleListSchemas)
	handle(http.MethodPost, "/schemas", "schemas", s.schemasHandler.HandleCreateSchema)
	get("/schemas/{id:[0-9]+}", "schema", s.schemasHandler.HandleGetSchema)
	get("/schemas/year/{year:[0-9]+}", "schema_year", s.schemasHandler.HandleGetSchemaByYear)

	get("/events", "events", s.eventsHandler.HandleListEvents)
	handle(http.MethodPost, "/events", "events", s.eventsHandler.HandleCreateEvent)
	get("/events/{eventKey}", "event", s.eventsHandler.HandleGetEvent)
	handle(http.MethodPut, "/events/{eventKey}", "event", s.eventsHandler.HandlePutEvent)
	handle(http.MethodDelete, "/events/{eventKey}", "event", s.eventsHandler.HandleDeleteEvent)
	get("/events/{eventKey}/teams", "event_teams", s.eventsHandler.HandleEventTeams)
	get("/events/{eventKey}/matches", "matches", s.eventsHandler.HandleListMatches)
	handle(http.MethodPost, "/events/{eventKey}/matches", "matches", s.eventsHandler.HandleCreateMatch)
	get("/events/{eventKey}/matches/{matchKey}", "match", s.eventsHandler.HandleGetMatch)
	handle(http.MethodDelete, "/events/{eventKey}/matches/{matchKey}", "match", s.eventsHandler.HandleDeleteMatch)

	const reportPath = "/events/{eventKey}/matches/{matchKey}/reports/{teamKey}"
	get(reportPath, "reports", s.reportsHandler.HandleListReports)
	handle(http.MethodPut, reportPath, "reports", s.reportsHandler.HandlePutReport)
	handle(http.MethodDelete, reportPath, "reports", s.reportsHandler.HandleDeleteReport)
	get("/events/{eventKey}/stats", "event_stats", s.reportsHandler.HandleEventStats)
	get("/teams/{teamKey}/reports", "team_reports", s.reportsHandler.HandleTeamReports)

	get("/leaderboard", "leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
}

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData wraps v in the {"data": ...} envelope.
func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, dataResponse{Data: v})
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps a service error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrBadCredentials):
		return http.StatusUnauthorized, "bad_credentials"
	case errors.Is(err, app.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, app.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, app.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, app.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeServiceError responds with the status matching err. Unexpected
// errors are logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Get().Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

// decodeBody decodes the JSON request body into v. Bodies that do not
// decode into v fail validation.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: %s", app.ErrValidation, err.Error())
	}
	return nil
}

// idVar parses a numeric path variable.
func idVar(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", ErrBadRequest, name)
	}
	return id, nil
}
