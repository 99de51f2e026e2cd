package api

import (
	"context"
	"net/http"

	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/model"
)

// RealmDependencies defines the interface for realm operations.
type RealmDependencies interface {
	ListRealms(ctx context.Context, a access.Actor) ([]model.Realm, error)
	CreateRealm(ctx context.Context, a access.Actor, realm model.Realm) (model.Realm, error)
	GetRealm(ctx context.Context, a access.Actor, id int64) (model.Realm, error)
	UpdateRealm(ctx context.Context, a access.Actor, realm model.Realm) error
	DeleteRealm(ctx context.Context, a access.Actor, id int64) error
}

// RealmsHandler handles realm requests.
type RealmsHandler struct {
	deps RealmDependencies
}

// NewRealmsHandler creates a new realms handler.
func NewRealmsHandler(deps RealmDependencies) *RealmsHandler {
	return &RealmsHandler{deps: deps}
}

// HandleListRealms handles GET /realms.
func (h *RealmsHandler) HandleListRealms(w http.ResponseWriter, r *http.Request) {
	realms, err := h.deps.ListRealms(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, realms)
}

// HandleCreateRealm handles POST /realms.
func (h *RealmsHandler) HandleCreateRealm(w http.ResponseWriter, r *http.Request) {
	var realm model.Realm
	if err := decodeBody(r, &realm); err != nil {
		writeServiceError(w, r, err)
		return
	}
	created, err := h.deps.CreateRealm(r.Context(), ActorFrom(r.Context()), realm)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

// HandleGetRealm handles GET /realms/{id}.
func (h *RealmsHandler) HandleGetRealm(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	realm, err := h.deps.GetRealm(r.Context(), ActorFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, realm)
}

// HandleUpdateRealm handles PUT /realms/{id}.
func (h *RealmsHandler) HandleUpdateRealm(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var realm model.Realm
	if err := decodeBody(r, &realm); err != nil {
		writeServiceError(w, r, err)
		return
	}
	realm.ID = id
	if err := h.deps.UpdateRealm(r.Context(), ActorFrom(r.Context()), realm); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteRealm handles DELETE /realms/{id}.
func (h *RealmsHandler) HandleDeleteRealm(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.deps.DeleteRealm(r.Context(), ActorFrom(r.Context()), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
