package main

import (
	"fmt"
	"os"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/server"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/analysis"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/config"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/registry"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the analysis web server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the configuration file (default is ./config.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	set, err := registry.BuildSources(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build sources: %w", err)
	}

	engine := analysis.NewEngine(set, analysis.Config{
		WindowDays:        cfg.Analysis.WindowDays,
		LookbackDays:      cfg.Analysis.LookbackDays,
		MetricsHours:      cfg.Analysis.MetricsHours,
		ValidationMinDays: cfg.Analysis.ValidationMinDays,
		Workers:           cfg.Analysis.Workers,
	})

	logger.Info().Str("zone", cfg.Carbon.Zone).Str("region", cfg.AWS.Region).
		Msg("configuration loaded")

	api := server.NewWebAPI(logger, server.Config{
		Addr: cfg.Server.Addr,
		Dependencies: server.Dependencies{
			Runner: engine,
		},
	})

	return api.Start()
}
