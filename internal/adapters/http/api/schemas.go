package api

import (
	"context"
	"net/http"

	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/model"
)

// SchemaDependencies defines the interface for season schema operations.
type SchemaDependencies interface {
	ListSchemas(ctx context.Context) ([]model.Schema, error)
	CreateSchema(ctx context.Context, a access.Actor, schema model.Schema) (model.Schema, error)
	GetSchema(ctx context.Context, id int64) (model.Schema, error)
	GetSchemaByYear(ctx context.Context, year int) (model.Schema, error)
}

// SchemasHandler handles schema requests.
type SchemasHandler struct {
	deps SchemaDependencies
}

// NewSchemasHandler creates a new schemas handler.
func NewSchemasHandler(deps SchemaDependencies) *SchemasHandler {
	return &SchemasHandler{deps: deps}
}

// HandleListSchemas handles GET /schemas.
func (h *SchemasHandler) HandleListSchemas(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.deps.ListSchemas(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, schemas)
}

// HandleCreateSchema handles POST /schemas.
func (h *SchemasHandler) HandleCreateSchema(w http.ResponseWriter, r *http.Request) {
	var schema model.Schema
	if err := decodeBody(r, &schema); err != nil {
		writeServiceError(w, r, err)
		return
	}
	created, err := h.deps.CreateSchema(r.Context(), ActorFrom(r.Context()), schema)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

// HandleGetSchema handles GET /schemas/{id}.
func (h *SchemasHandler) HandleGetSchema(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	schema, err := h.deps.GetSchema(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, schema)
}

// HandleGetSchemaByYear handles GET /schemas/year/{year}.
func (h *SchemasHandler) HandleGetSchemaByYear(w http.ResponseWriter, r *http.Request) {
	year, err := idVar(r, "year")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	schema, err := h.deps.GetSchemaByYear(r.Context(), int(year))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, schema)
}
