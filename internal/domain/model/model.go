// Package model contains domain models passed between layers.
package model

import "time"

// Roles are the privilege flags carried by a user and its tokens.
type Roles struct {
	IsSuperAdmin bool `json:"isSuperAdmin" yaml:"isSuperAdmin"`
	IsAdmin      bool `json:"isAdmin" yaml:"isAdmin"`
	IsVerified   bool `json:"isVerified" yaml:"isVerified"`
}

// Realm is a tenant: an organization whose members share data.
type Realm struct {
	ID           int64  `json:"id"`
	Name         string `json:"name" validate:"gte=1,lte=32"`
	ShareReports bool   `json:"shareReports"`
}

// User belongs to exactly one realm. PasswordHash never leaves the process.
type User struct {
	ID           int64    `json:"id"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"-"`
	RealmID      int64    `json:"realmId"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Stars        []string `json:"stars"`
	Roles        Roles    `json:"roles"`
}

// WebcastType is a livestream provider.
type WebcastType string

const (
	Twitch  WebcastType = "twitch"
	Youtube WebcastType = "youtube"
)

// Webcast is a livestream of an event.
type Webcast struct {
	Type WebcastType `json:"type" validate:"oneof=twitch youtube"`
	URL  string      `json:"url" validate:"required"`
}

// Location names a venue and its coordinates.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Event is an FRC competition. RealmID is the realm that owns it and whose
// members may submit reports for it.
type Event struct {
	Key          string    `json:"key" validate:"eventkey"`
	Name         string    `json:"name" validate:"required"`
	District     *string   `json:"district,omitempty"`
	FullDistrict *string   `json:"fullDistrict,omitempty"`
	Week         *int      `json:"week,omitempty"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	Location     Location  `json:"location"`
	Webcasts     []Webcast `json:"webcasts" validate:"dive"`
	SchemaID     *int64    `json:"schemaId,omitempty"`
	RealmID      int64     `json:"realmId"`
}

// Match is a single match of an event. Each alliance has exactly three teams
// and no team plays on both sides.
type Match struct {
	Key          string    `json:"key" validate:"required,lte=32,matchkey"`
	EventKey     string    `json:"-"`
	Time         time.Time `json:"time"`
	RedScore     *int      `json:"redScore,omitempty"`
	BlueScore    *int      `json:"blueScore,omitempty"`
	RedAlliance  []string  `json:"redAlliance" validate:"len=3,dive,teamkey"`
	BlueAlliance []string  `json:"blueAlliance" validate:"len=3,dive,teamkey"`
}

// Teams returns both alliances, red first.
func (m Match) Teams() []string {
	teams := make([]string, 0, len(m.RedAlliance)+len(m.BlueAlliance))
	teams = append(teams, m.RedAlliance...)
	return append(teams, m.BlueAlliance...)
}

// HasTeam reports whether team plays in the match.
func (m Match) HasTeam(team string) bool {
	for _, t := range m.Teams() {
		if t == team {
			return true
		}
	}
	return false
}
