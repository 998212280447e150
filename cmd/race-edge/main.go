// Package main provides the race-edge command line.
package main

import (
	"log"

	"github.com/spf13/cobra"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "race-edge",
	Short: "Find mispriced runners and size stakes",
	Long: `race-edge turns win probabilities and market prices into tiered betting
opportunities and a fractional Kelly portfolio. Run it as a service with
"serve" or against a single race file with "evaluate".`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
