package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "csp-screener",
		Short: "Screen option chains for cash-secured put candidates",
		Long: `csp-screener ranks out-of-the-money puts by a composite of premium
yield, implied volatility richness, downside cushion, theta income and
the quality of the underlying's fundamentals.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			lvl, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			zerolog.SetGlobalLevel(lvl)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "trace, debug, info, warn or error")
	cmd.AddCommand(scanCmd(), planCmd())
	return cmd
}
