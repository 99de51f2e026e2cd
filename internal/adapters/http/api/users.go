package api

import (
	"context"
	"net/http"

	app "github.com/okian/fieldscout/internal/app"
	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/model"
)

// UserDependencies defines the interface for user operations.
type UserDependencies interface {
	ListUsers(ctx context.Context, a access.Actor) ([]model.User, error)
	CreateUser(ctx context.Context, a access.Actor, nu app.NewUser) (model.User, error)
	GetUser(ctx context.Context, a access.Actor, id int64) (model.User, error)
	PatchUser(ctx context.Context, a access.Actor, id int64, patch app.UserPatch) error
	DeleteUser(ctx context.Context, a access.Actor, id int64) error
}

// UsersHandler handles user requests.
type UsersHandler struct {
	deps UserDependencies
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps UserDependencies) *UsersHandler {
	return &UsersHandler{deps: deps}
}

// HandleListUsers handles GET /users.
func (h *UsersHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.deps.ListUsers(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, users)
}

// HandleCreateUser handles POST /users.
func (h *UsersHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var nu app.NewUser
	if err := decodeBody(r, &nu); err != nil {
		writeServiceError(w, r, err)
		return
	}
	user, err := h.deps.CreateUser(r.Context(), ActorFrom(r.Context()), nu)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, user)
}

// HandleGetUser handles GET /users/{id}.
func (h *UsersHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	user, err := h.deps.GetUser(r.Context(), ActorFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

// HandlePatchUser handles PATCH /users/{id}.
func (h *UsersHandler) HandlePatchUser(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var patch app.UserPatch
	if err := decodeBody(r, &patch); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.deps.PatchUser(r.Context(), ActorFrom(r.Context()), id, patch); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteUser handles DELETE /users/{id}.
func (h *UsersHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.deps.DeleteUser(r.Context(), ActorFrom(r.Context()), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
