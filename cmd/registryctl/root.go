package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	outputFmt string
	userID    string
	userRole  string
)

var rootCmd = &cobra.Command{
	Use:   "registryctl",
	Short: "CLI for the asset registry server",
	Long: `registryctl manages assets and inspections on an asset registry server.

Assets are immutable version chains addressed by logical key; edits append
versions and concurrent edits are rejected. Inspections carry a dual
lead/head signature approval flow.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Registry server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&userID, "as-user", "", "User id to act as (default: REGISTRY_USER env)")
	rootCmd.PersistentFlags().StringVar(&userRole, "as-role", "", "Global role to act as (default: REGISTRY_ROLE env)")

	rootCmd.AddCommand(healthCmd)
}

// resolvedUser returns the effective acting user id.
// Priority: --as-user flag > REGISTRY_USER env var.
func resolvedUser() string {
	if userID != "" {
		return userID
	}
	return os.Getenv("REGISTRY_USER")
}

// resolvedRole returns the effective acting role.
// Priority: --as-role flag > REGISTRY_ROLE env var.
func resolvedRole() string {
	if userRole != "" {
		return userRole
	}
	return os.Getenv("REGISTRY_ROLE")
}
