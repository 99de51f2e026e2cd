package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/fieldscout/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func validMatch() model.Match {
	return model.Match{
		Key:          "qm1",
		RedAlliance:  []string{"frc1", "frc2", "frc3"},
		BlueAlliance: []string{"frc4", "frc5", "frc6"},
	}
}

func TestMatch(t *testing.T) {
	convey.Convey("Given a match", t, func() {
		m := validMatch()

		convey.Convey("When both alliances hold three distinct teams", func() {
			convey.Convey("Then it validates", func() {
				convey.So(m.Validate(), convey.ShouldBeNil)
				convey.So(m.Teams(), convey.ShouldResemble, []string{"frc1", "frc2", "frc3", "frc4", "frc5", "frc6"})
				convey.So(m.HasTeam("frc5"), convey.ShouldBeTrue)
				convey.So(m.HasTeam("frc7"), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a team is on both alliances", func() {
			m.BlueAlliance[0] = "frc1"
			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(m.Validate(), model.ErrValidation), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an alliance has two teams", func() {
			m.RedAlliance = m.RedAlliance[:2]
			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(m.Validate(), model.ErrValidation), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the match key holds a NUL byte", func() {
			m.Key = "qm\x001"
			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(m.Validate(), model.ErrValidation), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a team key is malformed", func() {
			m.RedAlliance[1] = "team2"
			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(m.Validate(), model.ErrValidation), convey.ShouldBeTrue)
			})
		})
	})
}

func TestKeys(t *testing.T) {
	convey.Convey("Event and team keys", t, func() {
		convey.So(model.IsEventKey("2018flor"), convey.ShouldBeTrue)
		convey.So(model.IsEventKey("2018flor_qm29"), convey.ShouldBeFalse)
		convey.So(model.IsEventKey("flor"), convey.ShouldBeFalse)
		convey.So(model.IsTeamKey("frc1421"), convey.ShouldBeTrue)
		convey.So(model.IsTeamKey("1421"), convey.ShouldBeFalse)
	})
}

func TestSchema(t *testing.T) {
	convey.Convey("Given a schema", t, func() {
		s := model.Schema{
			Year:   2018,
			Auto:   []model.StatDescription{{Name: "Crossed Line", Type: model.StatBoolean}},
			Teleop: []model.StatDescription{{Name: "Cubes", Type: model.StatNumber}},
		}

		convey.Convey("When it is well formed", func() {
			convey.So(s.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When a statistic has an unknown type", func() {
			s.Auto[0].Type = "string"
			convey.So(errors.Is(s.Validate(), model.ErrValidation), convey.ShouldBeTrue)
		})

		convey.Convey("When a phase repeats a statistic name", func() {
			s.Teleop = append(s.Teleop, model.StatDescription{Name: "Cubes", Type: model.StatBoolean})
			convey.So(errors.Is(s.Validate(), model.ErrValidation), convey.ShouldBeTrue)
		})
	})
}
