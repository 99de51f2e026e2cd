package model

// StatType tags the kind of value a statistic carries.
type StatType string

const (
	StatBoolean StatType = "boolean"
	StatNumber  StatType = "number"
)

// StatDescription declares one statistic of a phase.
type StatDescription struct {
	Name string   `json:"name" validate:"required"`
	Type StatType `json:"type" validate:"oneof=boolean number"`
}

// Schema describes, for one season, which statistics a report carries in the
// autonomous and teleoperated phases. The declaration order is significant
// and is preserved in aggregated output.
type Schema struct {
	ID     int64             `json:"id"`
	Year   int               `json:"year" validate:"required"`
	Auto   []StatDescription `json:"auto" validate:"dive"`
	Teleop []StatDescription `json:"teleop" validate:"dive"`
}
