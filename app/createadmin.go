package app

import (
	"github.com/spf13/cobra"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/config"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/daemon"
)

func init() { //nolint: gochecknoinits
	createAdminCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration directory")
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "admin", "Username for the superuser account")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Email address for the superuser account")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Password for the superuser account (generated when empty)")

	rootCmd.AddCommand(createAdminCmd)
}

var (
	adminUsername string
	adminEmail    string
	adminPassword string

	createAdminCmd = &cobra.Command{
		Use:   "create-admin",
		Short: "Create a local superuser account",
		Long: `Create a local superuser account that can log in without a directory
server. Intended for bootstrapping a fresh installation; the command is a
no-op when the username already exists.`,
		PreRun: func(_ *cobra.Command, _ []string) {
			if cfg, err = config.ReadConfig(configPath); err != nil {
				panic(err)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, password, errCreate := daemon.CreateAdmin(&cfg, adminUsername, adminEmail, adminPassword)
			if errCreate != nil {
				return errCreate
			}

			if !created {
				cmd.Printf("user %q already exists\n", adminUsername)
				return nil
			}

			cmd.Printf("created superuser %q\n", adminUsername)

			if adminPassword == "" {
				cmd.Printf("generated password: %s\n", password)
			}

			return nil
		},
	}
)
