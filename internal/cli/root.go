package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/interview-prep/backend/internal/config"
)

var (
	cfgFile string
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "dupcheck",
	Short: "Interview question duplicate checker",
	Long: `dupcheck checks interview questions against the question bank for
duplicates, using an AI completion provider with a lexical fallback.

It also runs database migrations and inspects the effective configuration.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dupcheck version %s\n", version)
		},
	}
}

// loadConfig loads the config file if one is found; env vars and defaults
// apply either way.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.FindConfigPath(cfgFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func loadValidConfig() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			fmt.Printf("config error: %v\n", e)
		}
		return nil, fmt.Errorf("invalid configuration")
	}
	return cfg, nil
}
