package model

import (
	"errors"
	"fmt"
	"regexp"

	validator "gopkg.in/go-playground/validator.v9"
)

// ErrValidation marks structurally invalid input.
var ErrValidation = errors.New("validation failed")

var (
	eventKeyRe = regexp.MustCompile(`^\d{4}[a-z0-9]+$`)
	teamKeyRe  = regexp.MustCompile(`^frc[0-9a-zA-Z]+$`)
	matchKeyRe = regexp.MustCompile(`^[^\x00-\x1f\x7f]+$`)

	validate = newValidator() //nolint:gochecknoglobals // validator caches struct metadata
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("eventkey", func(fl validator.FieldLevel) bool {
		return eventKeyRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("teamkey", func(fl validator.FieldLevel) bool {
		return teamKeyRe.MatchString(fl.Field().String())
	})
	// Match keys are store key components and may not hold control bytes.
	_ = v.RegisterValidation("matchkey", func(fl validator.FieldLevel) bool {
		return matchKeyRe.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks v against its validate struct tags.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	return nil
}

// IsEventKey reports whether key looks like "2018flor".
func IsEventKey(key string) bool { return eventKeyRe.MatchString(key) }

// IsTeamKey reports whether key looks like "frc1421".
func IsTeamKey(key string) bool { return teamKeyRe.MatchString(key) }

// Validate checks the match fields and that no team plays on both alliances.
func (m Match) Validate() error {
	if err := Validate(m); err != nil {
		return err
	}
	seen := make(map[string]bool, len(m.RedAlliance)+len(m.BlueAlliance))
	for _, t := range m.Teams() {
		if seen[t] {
			return fmt.Errorf("%w: team %s appears twice in match %s", ErrValidation, t, m.Key)
		}
		seen[t] = true
	}
	return nil
}

// Validate checks that statistic names are unique within each phase.
func (s Schema) Validate() error {
	if err := Validate(s); err != nil {
		return err
	}
	for phase, stats := range map[string][]StatDescription{"auto": s.Auto, "teleop": s.Teleop} {
		seen := make(map[string]bool, len(stats))
		for _, st := range stats {
			if seen[st.Name] {
				return fmt.Errorf("%w: duplicate %s statistic %q", ErrValidation, phase, st.Name)
			}
			seen[st.Name] = true
		}
	}
	return nil
}
