package main

import (
	"database/sql"
	"fmt"
	"os"

	"flux/internal/auth"
	"flux/internal/config"
	"flux/internal/db"
	"flux/internal/logging"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "flux",
	Short:         "Flux: a CLI-based AI assistant",
	Long:          "Flux is a terminal AI assistant with model-invoked tools, persisted conversations, and an agent mode that generates complete projects.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	defer logging.Close()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles everything the commands share.
type app struct {
	cfg       *config.Config
	configDir string
	conn      *sql.DB
	session   *auth.Session
}

func (a *app) close() {
	if a.conn != nil {
		a.conn.Close()
	}
}

// setup loads config, switches logging to a file so nothing leaks into the
// terminal, opens the conversation database, and (when required) loads the
// stored session.
func setup(needAuth, needDB bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	configDir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	if err := logging.EnableFileLogging(configDir, logging.Level(cfg.Logging.Level)); err != nil {
		// Logging is best-effort; the CLI still works without a log file.
		logging.Configure(logging.Level(cfg.Logging.Level), nil)
	}

	a := &app{cfg: cfg, configDir: configDir}

	if needAuth {
		session, err := auth.LoadSession(configDir)
		if err != nil {
			return nil, err
		}
		a.session = session
	}

	if needDB {
		var conn *sql.DB
		if cfg.Storage.DBPath != "" {
			conn, err = db.Open(cfg.Storage.DBPath)
		} else {
			conn, err = db.OpenFluxDB()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open conversation database: %w", err)
		}
		a.conn = conn
	}

	return a, nil
}
