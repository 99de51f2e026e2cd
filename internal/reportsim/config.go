// Package reportsim drives a running fieldscout API with simulated scouting
// traffic and checks that the statistics it serves match the reports it
// was sent.
package reportsim

import (
	"time"

	app "github.com/okian/fieldscout/internal/app"
	"github.com/okian/fieldscout/internal/domain/model"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL        string        // Base URL of the service
	Username       string        // Super-admin used to create the fixtures
	Password       string        // Password of the super-admin
	Year           int           // Season whose schema the reports follow
	Realms         int           // Number of realms, each owning one event
	ScoutsPerRealm int           // Verified scouts created in each realm
	Matches        int           // Qualification matches per event
	Resubmit       float64       // Fraction of reports submitted a second time
	Workers        int           // Number of concurrent workers
	Timeout        time.Duration // HTTP request timeout
	OutputFile     string        // File receiving the submitted reports, if set
	Cleanup        bool          // Delete the created realms and events afterwards
	Verbose        bool          // Log every request
}

// scout is a simulated user with its bearer token.
type scout struct {
	User  model.User
	Token string
}

// simRealm is a realm with the event it owns and the scouts that cover it.
type simRealm struct {
	Realm   model.Realm
	Event   model.Event
	Matches []model.Match
	Scouts  []scout
}

// submission is one PUT of a report.
type submission struct {
	Realm  int
	Scout  int
	Target app.ReportTarget
	Input  app.ReportInput
}

// Stats holds run statistics.
type Stats struct {
	ReportsGenerated int
	ReportsSubmitted int
	ReportsCreated   int
	ReportsReplaced  int
	ReportsFailed    int
	TeamsVerified    int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
