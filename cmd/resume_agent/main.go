// Package main provides the resume_agent CLI for adaptive one-page resume compression.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	logLevel     string
	templatePath string
)

var rootCmd = &cobra.Command{
	Use:   "resume_agent",
	Short: "Adaptive one-page resume compression",
	Long: `resume_agent renders structured resume data to LaTeX and iteratively compresses it
until it compiles to a single page and passes quality review.

Configuration is layered: defaults, then --config, then RESUME_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&templatePath, "template", "t", "", "Path to a LaTeX template (defaults to the embedded one)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
