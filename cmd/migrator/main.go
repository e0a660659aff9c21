package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/01moynul/keyu-storefront/internal/config"
	"github.com/01moynul/keyu-storefront/internal/database"
	"github.com/01moynul/keyu-storefront/migrations"
)

const downFlag = "down"

type migrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func (ml *migrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(fmt.Sprintf(format, v...))
}

func (ml *migrationLogger) Verbose() bool {
	return ml.verbose
}

func main() {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("migrator", pflag.ExitOnError)
	down := fs.Bool(downFlag, false, "roll back every migration")
	fs.String("config", "", "config file (yaml)")
	_ = fs.Parse(os.Args[1:])

	dbCfg, err := config.LoadDatabase(os.Args[1:])
	if err != nil {
		slog.Error("failed to load config", "err", err)
		fallDown()
	}

	dsn, err := database.DSN(dbCfg)
	if err != nil {
		slog.Error("failed to build dsn", "err", err)
		fallDown()
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		slog.Error("failed to open embedded migrations", "err", err)
		fallDown()
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, "mysql://"+dsn)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	m.Log = &migrationLogger{logger: slog.Default(), verbose: true}

	if *down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	m.Log.Printf("migration applied")
}

func fallDown() {
	os.Exit(2)
}
