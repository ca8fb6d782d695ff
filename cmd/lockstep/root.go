package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/lockstep/internal/cli"
	"github.com/aretw0/lockstep/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lockstep",
	Short: "Lockstep walks tokens through a two-way network until they arrive together",
	Long: `Lockstep reads a repeating L/R instruction line and a network of
NODE = (LEFT, RIGHT) records. It counts the steps a single token needs to
reach its goal and the first step at which every start token stands on a
goal node at the same time.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default lockstep.yaml if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().Int("max-steps", 0, "Cap on the steps walked per token (0 derives it from the network size)")
	rootCmd.PersistentFlags().Int("concurrency", 0, "Tokens analyzed at once (0 keeps the configured value)")
	rootCmd.PersistentFlags().Bool("strict-periods", false, "Fail when a token's goal hits do not reduce to a single period")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for the result cache")
	rootCmd.PersistentFlags().String("cache-dir", "", "Directory for the result cache when no Redis address is set")
	rootCmd.PersistentFlags().String("start", "", "Start node of the single-goal question")
	rootCmd.PersistentFlags().String("goal", "", "Goal node of the single-goal question")
	rootCmd.PersistentFlags().String("start-suffix", "", "Suffix selecting start tokens")
	rootCmd.PersistentFlags().String("goal-suffix", "", "Suffix selecting goal nodes")
}

// flagKeys maps flag names to their config keys.
var flagKeys = map[string][2]string{
	"log-level":      {"log_level"},
	"max-steps":      {"max_steps"},
	"concurrency":    {"concurrency"},
	"strict-periods": {"strict_periods"},
	"redis":          {"cache", "redis_addr"},
	"cache-dir":      {"cache", "dir"},
	"start":          {"single", "start"},
	"goal":           {"single", "goal"},
	"start-suffix":   {"multi", "start_suffix"},
	"goal-suffix":    {"multi", "goal_suffix"},
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}

	overrides := map[string]any{}
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if key[1] == "" {
			overrides[key[0]] = f.Value.String()
			continue
		}
		section, _ := overrides[key[0]].(map[string]any)
		if section == nil {
			section = map[string]any{}
			overrides[key[0]] = section
		}
		section[key[1]] = f.Value.String()
	}
	if err := cfg.Merge(overrides); err != nil {
		return cfg, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	jsonLogs, _ := cmd.Flags().GetBool("log-json")
	logger, err := cli.CreateLogger(cfg.LogLevel, jsonLogs)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}
