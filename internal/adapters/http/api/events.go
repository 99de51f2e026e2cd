package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/model"
)

// EventDependencies defines the interface for event, match and team reads
// and writes.
type EventDependencies interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEvent(ctx context.Context, key string) (model.Event, error)
	CreateEvent(ctx context.Context, a access.Actor, event model.Event) (model.Event, error)
	PutEvent(ctx context.Context, a access.Actor, key string, event model.Event) (bool, error)
	DeleteEvent(ctx context.Context, a access.Actor, key string) error
	EventTeams(ctx context.Context, eventKey string) ([]string, error)

	ListMatches(ctx context.Context, eventKey string) ([]model.Match, error)
	GetMatch(ctx context.Context, eventKey, matchKey string) (model.Match, error)
	CreateMatch(ctx context.Context, a access.Actor, eventKey string, match model.Match) (model.Match, error)
	DeleteMatch(ctx context.Context, a access.Actor, eventKey, matchKey string) error
}

// EventsHandler handles event, match and team requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleListEvents handles GET /events.
func (h *EventsHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, events)
}

// HandleCreateEvent handles POST /events.
func (h *EventsHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var event model.Event
	if err := decodeBody(r, &event); err != nil {
		writeServiceError(w, r, err)
		return
	}
	created, err := h.deps.CreateEvent(r.Context(), ActorFrom(r.Context()), event)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

// HandleGetEvent handles GET /events/{eventKey}.
func (h *EventsHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.deps.GetEvent(r.Context(), mux.Vars(r)["eventKey"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, event)
}

// HandlePutEvent handles PUT /events/{eventKey}: 201 when the event was
// created, 204 when it replaced an existing one.
func (h *EventsHandler) HandlePutEvent(w http.ResponseWriter, r *http.Request) {
	var event model.Event
	if err := decodeBody(r, &event); err != nil {
		writeServiceError(w, r, err)
		return
	}
	created, err := h.deps.PutEvent(r.Context(), ActorFrom(r.Context()), mux.Vars(r)["eventKey"], event)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(createdOrReplaced(created))
}

// HandleDeleteEvent handles DELETE /events/{eventKey}.
func (h *EventsHandler) HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteEvent(r.Context(), ActorFrom(r.Context()), mux.Vars(r)["eventKey"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEventTeams handles GET /events/{eventKey}/teams.
func (h *EventsHandler) HandleEventTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.deps.EventTeams(r.Context(), mux.Vars(r)["eventKey"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, teams)
}

// HandleListMatches handles GET /events/{eventKey}/matches.
func (h *EventsHandler) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.deps.ListMatches(r.Context(), mux.Vars(r)["eventKey"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, matches)
}

// HandleCreateMatch handles POST /events/{eventKey}/matches.
func (h *EventsHandler) HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var match model.Match
	if err := decodeBody(r, &match); err != nil {
		writeServiceError(w, r, err)
		return
	}
	created, err := h.deps.CreateMatch(r.Context(), ActorFrom(r.Context()), mux.Vars(r)["eventKey"], match)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

// HandleGetMatch handles GET /events/{eventKey}/matches/{matchKey}.
func (h *EventsHandler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	match, err := h.deps.GetMatch(r.Context(), vars["eventKey"], vars["matchKey"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, match)
}

// HandleDeleteMatch handles DELETE /events/{eventKey}/matches/{matchKey}.
func (h *EventsHandler) HandleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.deps.DeleteMatch(r.Context(), ActorFrom(r.Context()), vars["eventKey"], vars["matchKey"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func createdOrReplaced(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusNoContent
}
