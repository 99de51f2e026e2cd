package reportsim

// Worker configuration constants.
const (
	workerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	percentageMultiplier = 100
	floatTolerance       = 1e-9
)
