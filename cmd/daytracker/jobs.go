package main

import (
	"context"
	"fmt"
	"time"

	"daytracker/internal/config"
	"daytracker/internal/repository"
	"daytracker/internal/scheduler"
	"daytracker/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const commandTimeout = 5 * time.Minute

func openDB(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := repository.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = sqlDB.Close() }, nil
}

func newJobs(cfg *config.Config) (*scheduler.Jobs, func(), error) {
	db, closeDB, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	clock := service.SystemClock{Location: cfg.Location}
	store := repository.NewStore(db)
	tasks := service.NewTaskService(store, clock)
	templates := service.NewTemplateService(store, tasks, clock)
	return scheduler.NewJobs(templates, tasks, clock), closeDB, nil
}

func processPendingCmd(conf func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "process-pending",
		Short: "Fire every due template once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, conf(), (*scheduler.Jobs).ProcessPending)
		},
	}
}

func rolloverCmd(conf func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Move unfinished tasks of the previous day into today",
		Long: `Move every owner's unfinished tasks of the day that ended at the last
05:00 boundary into the current day. Tasks already present today are merged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, conf(), (*scheduler.Jobs).Rollover)
		},
	}
}

func runJob(cmd *cobra.Command, cfg *config.Config, job func(*scheduler.Jobs, context.Context) (scheduler.Summary, error)) error {
	jobs, closeDB, err := newJobs(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	sum, err := job(jobs, ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "owners: %d, processed: %d, failed: %d\n", sum.Owners, sum.Processed, sum.Failed)
	return nil
}

func migrateCmd(conf func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB(conf())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := repository.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}
