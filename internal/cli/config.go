package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/interview-prep/backend/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if cfgPath := config.FindConfigPath(cfgFile); cfgPath != "" {
				fmt.Fprintf(out, "Validating config: %s\n", cfgPath)
			} else {
				fmt.Fprintln(out, "No config file found, validating defaults and environment")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if errs := config.Validate(cfg); len(errs) > 0 {
				fmt.Fprintln(out, "\nValidation errors:")
				for _, e := range errs {
					fmt.Fprintf(out, "  - %v\n", e)
				}
				return fmt.Errorf("configuration is invalid")
			}

			s := cfg.Similarity
			fmt.Fprintln(out, "\nConfiguration is valid!")
			fmt.Fprintf(out, "  - Completion: %s (%s)\n", cfg.Completion.Provider, cfg.Completion.Model)
			fmt.Fprintf(out, "  - Threshold: %.2f (min similarity %.2f)\n", s.SimilarityThreshold, s.MinSimilarity)
			fmt.Fprintf(out, "  - Pool: %d candidates, %d per AI call\n", s.PoolLimit, s.MaxComparisons)
			fmt.Fprintf(out, "  - Pacing: %s\n", s.Pacing)
			if cfg.Redis.URL == "" {
				fmt.Fprintln(out, "  - Completion cache: disabled")
			} else {
				fmt.Fprintf(out, "  - Completion cache: %s\n", cfg.Redis.CacheTTL())
			}
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg.Redacted())
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
