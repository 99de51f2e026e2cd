// Command report-sim fills a running fieldscout API with simulated scouting
// reports and verifies the statistics it serves.
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/okian/fieldscout/internal/reportsim"
)

// Default configuration constants.
const (
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTestTimeout = 10 * time.Minute
)

var cli struct {
	URL      string        `help:"Base URL of the service." default:"http://localhost:9080"`
	Username string        `help:"Super-admin username used to create the fixtures." env:"FIELDSCOUT_SIM_USERNAME" required:""`
	Password string        `help:"Super-admin password." env:"FIELDSCOUT_SIM_PASSWORD" required:""`
	Year     int           `help:"Season whose schema the reports follow." default:"2018"`
	Realms   int           `help:"Number of realms, each owning one event." default:"3"`
	Scouts   int           `help:"Scouts per realm." default:"4"`
	Matches  int           `help:"Qualification matches per event." default:"60"`
	Resubmit float64       `help:"Fraction of reports submitted a second time." default:"0.1"`
	Workers  int           `help:"Concurrent workers. Defaults to twice the CPU count."`
	Timeout  time.Duration `help:"HTTP request timeout." default:"30s"`
	Output   string        `help:"File receiving the final reports. Timestamped when empty."`
	Log      string        `help:"Log file in addition to stdout."`
	Cleanup  bool          `help:"Delete the created realms and events afterwards."`
	Verbose  bool          `help:"Enable verbose logging."`
}

func main() {
	_ = godotenv.Load()
	kong.Parse(&cli,
		kong.Name("report-sim"),
		kong.Description("Simulate scouting traffic against a fieldscout API and verify its statistics."),
	)

	if err := reportsim.SetupLogging(cli.Log, cli.Verbose); err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := run(); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	workers := cli.Workers
	if workers == 0 {
		workers = runtime.NumCPU() * defaultWorkers
	}
	output := cli.Output
	if output == "" {
		output = reportsim.DefaultOutputFile(time.Now())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	_, err := reportsim.Run(ctx, &reportsim.Config{
		BaseURL:        cli.URL,
		Username:       cli.Username,
		Password:       cli.Password,
		Year:           cli.Year,
		Realms:         cli.Realms,
		ScoutsPerRealm: cli.Scouts,
		Matches:        cli.Matches,
		Resubmit:       cli.Resubmit,
		Workers:        workers,
		Timeout:        cli.Timeout,
		OutputFile:     output,
		Cleanup:        cli.Cleanup,
		Verbose:        cli.Verbose,
	})
	return err
}
