package aggregate

import (
	"encoding/json"

	"github.com/okian/fieldscout/internal/domain/model"
)

type booleanJSON struct {
	Name      string `json:"name"`
	Attempts  int    `json:"attempts"`
	Successes int    `json:"successes"`
}

type numberJSON struct {
	Name      string  `json:"name"`
	Attempts  Summary `json:"attempts"`
	Successes Summary `json:"successes"`
}

// MarshalJSON writes counts for boolean statistics and max/avg summaries for
// numeric ones.
func (s Stat) MarshalJSON() ([]byte, error) {
	if s.Type == model.StatBoolean {
		return json.Marshal(booleanJSON{Name: s.Name, Attempts: s.AttemptCount, Successes: s.SuccessCount})
	}
	return json.Marshal(numberJSON{Name: s.Name, Attempts: s.Attempts, Successes: s.Successes})
}

// UnmarshalJSON reads either shape back, telling them apart by whether the
// attempts field is an object.
func (s *Stat) UnmarshalJSON(b []byte) error {
	var probe struct {
		Name     string          `json:"name"`
		Attempts json.RawMessage `json:"attempts"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	if len(probe.Attempts) > 0 && probe.Attempts[0] == '{' {
		var n numberJSON
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*s = Stat{Name: n.Name, Type: model.StatNumber, Attempts: n.Attempts, Successes: n.Successes}
		return nil
	}
	var bj booleanJSON
	if err := json.Unmarshal(b, &bj); err != nil {
		return err
	}
	*s = Stat{Name: bj.Name, Type: model.StatBoolean, AttemptCount: bj.Attempts, SuccessCount: bj.Successes}
	return nil
}
