// Command fieldscout-admin administers a fieldscout store directly: it
// bootstraps the first super-admin, imports season schemas and prints
// event statistics.
package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/okian/fieldscout/internal/adapters/auth"
	app "github.com/okian/fieldscout/internal/app"
	"github.com/okian/fieldscout/internal/config"
	"github.com/okian/fieldscout/pkg/logger"
)

type globalCmd struct {
	EnvFile string    `help:"Dotenv file loaded before the configuration." default:".env" type:"path"`
	Out     io.Writer `kong:"-"`
}

// open loads the configuration and starts a service over the configured
// store. Callers stop it.
func (g *globalCmd) open(ctx context.Context) (*app.Service, error) {
	if err := godotenv.Load(g.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	svc := app.New(
		app.WithLogger(logger.Get()),
		app.WithStoreDriver(cfg.StoreDriver),
		app.WithBoltPath(cfg.BoltPath),
		app.WithDatabaseURL(cfg.DatabaseURL),
		app.WithTokens(auth.NewTokens([]byte(cfg.JWTSecret), cfg.TokenTTL())),
		app.WithPasswords(auth.NewPasswords(cfg.BcryptCost)),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

var CLI struct {
	globalCmd

	Bootstrap bootstrapCmd `cmd:"" help:"Create a realm with its first super-admin."`

	Schema struct {
		Import schemaImportCmd `cmd:"" help:"Import season schemas from YAML or JSON files."`
		Ls     schemaLsCmd     `cmd:"" help:"List season schemas."`
	} `cmd:""`

	Stats  statsCmd  `cmd:"" help:"Print the aggregated statistics of an event."`
	Counts countsCmd `cmd:"" help:"Print the number of stored records."`
}

func main() {
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString("warn")

	CLI.Out = os.Stdout
	ctx := kong.Parse(&CLI,
		kong.Name("fieldscout-admin"),
		kong.Description("Administer a fieldscout store."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&CLI.globalCmd)
	ctx.FatalIfErrorf(err)
}
