package api

import (
	"context"
	"net/http"
)

// AuthDependencies defines the interface for credential checks.
type AuthDependencies interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// AuthHandler handles authentication requests.
type AuthHandler struct {
	deps AuthDependencies
}

// NewAuthHandler creates a new authentication handler.
func NewAuthHandler(deps AuthDependencies) *AuthHandler {
	return &AuthHandler{deps: deps}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	JWT string `json:"jwt"`
}

// HandleAuthenticate handles POST /authenticate requests.
func (h *AuthHandler) HandleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeBody(r, &creds); err != nil {
		writeServiceError(w, r, err)
		return
	}
	token, err := h.deps.Authenticate(r.Context(), creds.Username, creds.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, tokenResponse{JWT: token})
}
