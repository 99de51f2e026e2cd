package model

// ReportStat is one statistic inside a report. Boolean statistics set
// Attempted/Succeeded, numeric statistics set Attempts/Successes. Unset
// fields are omitted so a stored report reads back exactly as submitted.
type ReportStat struct {
	Name      string   `json:"name" validate:"required"`
	Attempted *bool    `json:"attempted,omitempty"`
	Succeeded *bool    `json:"succeeded,omitempty"`
	Attempts  *float64 `json:"attempts,omitempty" validate:"omitempty,gte=0"`
	Successes *float64 `json:"successes,omitempty" validate:"omitempty,gte=0"`
}

// ReportData holds the statistics of both phases.
type ReportData struct {
	Auto   []ReportStat `json:"auto" validate:"dive"`
	Teleop []ReportStat `json:"teleop" validate:"dive"`
}

// ReportKey identifies a report: one per reporter, team and match.
type ReportKey struct {
	EventKey   string
	MatchKey   string
	TeamKey    string
	ReporterID int64
}

// Report is a single scout's observation of one team in one match.
type Report struct {
	EventKey   string     `json:"eventKey"`
	MatchKey   string     `json:"matchKey"`
	TeamKey    string     `json:"teamKey"`
	ReporterID int64      `json:"reporterId"`
	RealmID    int64      `json:"realmId"`
	AutoName   string     `json:"autoName"`
	Data       ReportData `json:"data"`
}

// Key returns the identity of the report.
func (r Report) Key() ReportKey {
	return ReportKey{EventKey: r.EventKey, MatchKey: r.MatchKey, TeamKey: r.TeamKey, ReporterID: r.ReporterID}
}

// LeaderboardEntry counts the reports one reporter has submitted.
type LeaderboardEntry struct {
	ReporterID int64 `json:"reporterId"`
	Reports    int   `json:"reports"`
}
