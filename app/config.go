package app

import (
	"github.com/spf13/cobra"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/config"
)

func init() { //nolint: gochecknoinits
	configCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration directory")
	configCmd.Flags().BoolVar(&configAsJSON, "json", false, "Dump the configuration as JSON instead of TOML")

	rootCmd.AddCommand(configCmd)
}

var (
	configAsJSON bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration as it is seen by the service after the TOML
file, the JSON environment override and the secret environment variables
have been merged. Secret values are redacted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, errRead := config.ReadConfig(configPath)
			if errRead != nil {
				return errRead
			}

			c = config.Redact(c)

			var (
				out     string
				errDump error
			)

			if configAsJSON {
				out, errDump = config.DumpConfigJSON(c)
			} else {
				out, errDump = config.DumpConfig(c)
			}

			if errDump != nil {
				return errDump
			}

			cmd.Print(out)

			return nil
		},
	}
)
