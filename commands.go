package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"seo-keywords/internal/config"
	"seo-keywords/internal/service"
	"seo-keywords/pkg/logger"
)

type commandContext struct {
	configPath string
	envFile    string
	debug      bool
	jsonOutput bool
}

func newRootCommand() *cobra.Command {
	cc := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "seo-keywords",
		Short:         "Resumable SEO keyword idea generator",
		Long:          "Generates keyword ideas for seed phrases through the Google Ads keyword ideas API,\nfilters them by search volume and writes them to CSV, a bucket and a spreadsheet.\nSeed phrases already processed are skipped on later runs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cc.configPath, "config", "c", "", "Configuration file (yaml, toml or json)")
	pf.StringVar(&cc.envFile, "env-file", config.DefaultEnvFile, "Dotenv file with credentials")
	pf.BoolVar(&cc.debug, "debug", false, "Enable debug logging")
	config.RegisterRunFlags(pf)
	config.RegisterLoggingFlags(pf)

	rootCmd.AddCommand(newRunCommand(cc))
	rootCmd.AddCommand(newPlanCommand(cc))
	rootCmd.AddCommand(newStatusCommand(cc))

	return rootCmd
}

// load reads configuration with the command's flags bound and installs the
// configured logger.
func (cc *commandContext) load(cmd *cobra.Command) (*config.Config, error) {
	manager := config.NewManager(
		config.WithEnvFile(cc.envFile),
		config.WithFlags(cmd.Flags()),
	)
	cfg, err := manager.Load(cc.configPath)
	if err != nil {
		return nil, err
	}

	settings := cfg.LoggerSettings()
	if cc.debug {
		settings.Level = "debug"
	}
	logger.Configure(settings)
	return cfg, nil
}

func (cc *commandContext) withService(cmd *cobra.Command, opts service.Options, fn func(context.Context, *config.Config, *service.KeywordService) error) error {
	cfg, err := cc.load(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, err := service.New(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close resources")
		}
	}()

	return fn(ctx, cfg, svc)
}

func newRunCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the next batch of unprocessed seed phrases",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := service.Options{Registerer: prometheus.NewRegistry()}
			return cc.withService(cmd, opts, func(ctx context.Context, cfg *config.Config, svc *service.KeywordService) error {
				report, err := svc.Run(ctx)
				if report != nil {
					printReport(cmd.OutOrStdout(), report)
				}
				if err != nil {
					return err
				}
				if sinkErr := report.SinkErr(); sinkErr != nil {
					return fmt.Errorf("some outputs failed: %w", sinkErr)
				}
				return nil
			})
		},
	}
}

func newPlanCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which seed phrases the next run would process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cc.withService(cmd, service.Options{PlanOnly: true}, func(ctx context.Context, cfg *config.Config, svc *service.KeywordService) error {
				plan, err := svc.Plan(ctx)
				if err != nil {
					return err
				}
				if cc.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), plan)
				}
				printPlan(cmd.OutOrStdout(), cfg.Seeds.Theme, plan)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&cc.jsonOutput, "json", false, "Print JSON instead of a table")
	return cmd
}

func newStatusCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize seed and processed log counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cc.withService(cmd, service.Options{PlanOnly: true}, func(ctx context.Context, cfg *config.Config, svc *service.KeywordService) error {
				plan, err := svc.Plan(ctx)
				if err != nil {
					return err
				}
				if cc.jsonOutput {
					plan.Batch = nil
					return writeJSON(cmd.OutOrStdout(), plan)
				}
				printStatus(cmd.OutOrStdout(), plan)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&cc.jsonOutput, "json", false, "Print JSON instead of a table")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "; ")
}
