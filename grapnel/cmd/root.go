// Package cmd provides the command-line interface for Grapnel.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "grapnel",
	Short: "Grapnel CLI tool can perform common tasks related to developing " +
		"with Grapnel hooks.",
	Long: `Grapnel CLI tool can perform common tasks related to developing ` +
		`with Grapnel hooks. Currently, it supports inspecting trace ` +
		`databases recorded by the tracing package.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
