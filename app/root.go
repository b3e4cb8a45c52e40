// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "go-ldap-portal",
	Short: "GoLDAP-Portal is a directory-backed login portal",
	Long: `GoLDAP-Portal is a web portal that authenticates users against an
LDAP/Active Directory server with a local database fallback and provides
an administrative area for user and group management.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
