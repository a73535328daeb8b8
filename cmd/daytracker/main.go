package main

import (
	"fmt"
	"os"

	"daytracker/internal/config"
	"daytracker/internal/logging"
	"daytracker/internal/server"

	"github.com/spf13/cobra"
)

var Version = "dev"

// @title           Daytracker API
// @version         1.0
// @description     Personal day planner: tasks bound to 05:00-05:00 days, priorities and recurring templates.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	var (
		cfg   *config.Config
		flush func()
	)

	rootCmd := &cobra.Command{
		Use:     "daytracker",
		Short:   "Daytracker - tasks planned in 05:00 to 05:00 days",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			_, f, err := logging.Init(cfg.IsDevelopment())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			flush = f
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if flush != nil {
				flush()
			}
		},
		SilenceUsage: true,
	}

	conf := func() *config.Config { return cfg }
	rootCmd.AddCommand(serveCmd(conf))
	rootCmd.AddCommand(processPendingCmd(conf))
	rootCmd.AddCommand(rolloverCmd(conf))
	rootCmd.AddCommand(migrateCmd(conf))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(conf func() *config.Config) *cobra.Command {
	var noScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := conf()
			if noScheduler {
				cfg.TemplateCheckInterval = 0
			}

			s, err := server.Init(cfg)
			if err != nil {
				return fmt.Errorf("server initialization failed: %w", err)
			}
			s.Run()
			return nil
		},
	}

	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "serve requests without background jobs")
	return cmd
}
