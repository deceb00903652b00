// Package cmd implements ledgerctl, the maintenance CLI of the bank ledger.
package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/config"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/database"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/logging"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/repository"
	"github.com/ndewijer/Classroom-Bank-Backend/internal/service"
)

// env is what every subcommand runs against, opened in PersistentPreRunE.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sql.DB
	svcs   *service.Services
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute() {
	e := &env{}
	err := newRootCmd(e).Execute()
	if cerr := e.close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The caller closes e once it has run.
func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Maintenance commands for the classroom bank ledger",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return e.open()
		},
	}

	rootCmd.AddCommand(
		newMigrateCmd(e),
		newPostDividendsCmd(e),
		newResetLimitsCmd(e),
		newVerifyBalanceCmd(e),
	)
	return rootCmd
}

func (e *env) open() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}

	e.cfg, e.logger, e.db = cfg, logger, db
	e.svcs = service.NewServices(repository.NewStore(db, cfg.Database.Driver, logger), logger)
	logger.Debug("ledgerctl connected", zap.String("driver", cfg.Database.Driver))
	return nil
}

func (e *env) close() error {
	if e.logger != nil {
		//nolint:errcheck // stderr sync fails on some terminals
		e.logger.Sync()
	}
	if e.db == nil {
		return nil
	}
	db := e.db
	e.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
