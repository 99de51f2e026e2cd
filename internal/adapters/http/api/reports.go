package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	app "github.com/okian/fieldscout/internal/app"
	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/aggregate"
	"github.com/okian/fieldscout/internal/domain/model"
)

// ReportDependencies defines the interface for report and statistics
// operations.
type ReportDependencies interface {
	PutReport(ctx context.Context, a access.Actor, t app.ReportTarget, in app.ReportInput) (bool, error)
	ListReports(ctx context.Context, a access.Actor, t app.ReportTarget) ([]model.Report, error)
	DeleteReport(ctx context.Context, a access.Actor, t app.ReportTarget) error
	TeamReports(ctx context.Context, a access.Actor, teamKey string) ([]app.EventReports, error)
	EventStats(ctx context.Context, a access.Actor, eventKey string) ([]aggregate.TeamStats, error)
}

// ReportsHandler handles report and statistics requests.
type ReportsHandler struct {
	deps ReportDependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportDependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

func reportTarget(r *http.Request) app.ReportTarget {
	vars := mux.Vars(r)
	return app.ReportTarget{
		EventKey: vars["eventKey"],
		MatchKey: vars["matchKey"],
		TeamKey:  vars["teamKey"],
	}
}

// HandlePutReport handles PUT /events/{eventKey}/matches/{matchKey}/reports/{teamKey}:
// 201 for the caller's first report on the team in that match, 204 when it
// replaced the previous one.
func (h *ReportsHandler) HandlePutReport(w http.ResponseWriter, r *http.Request) {
	var in app.ReportInput
	if err := decodeBody(r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	created, err := h.deps.PutReport(r.Context(), ActorFrom(r.Context()), reportTarget(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(createdOrReplaced(created))
}

// HandleListReports handles GET /events/{eventKey}/matches/{matchKey}/reports/{teamKey}.
func (h *ReportsHandler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.deps.ListReports(r.Context(), ActorFrom(r.Context()), reportTarget(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, reports)
}

// HandleDeleteReport handles DELETE /events/{eventKey}/matches/{matchKey}/reports/{teamKey}.
func (h *ReportsHandler) HandleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteReport(r.Context(), ActorFrom(r.Context()), reportTarget(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEventStats handles GET /events/{eventKey}/stats.
func (h *ReportsHandler) HandleEventStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.EventStats(r.Context(), ActorFrom(r.Context()), mux.Vars(r)["eventKey"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

// HandleTeamReports handles GET /teams/{teamKey}/reports.
func (h *ReportsHandler) HandleTeamReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.deps.TeamReports(r.Context(), ActorFrom(r.Context()), mux.Vars(r)["teamKey"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, reports)
}
