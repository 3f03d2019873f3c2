package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/absmach/tabula"
	"github.com/absmach/tabula/cli"
	"github.com/absmach/tabula/pkg/mqtt"
	"github.com/absmach/tabula/pkg/sdk"
	"github.com/spf13/cobra"
)

const defConfigFile = "config.toml"

func main() {
	var (
		configPath string
		managerURL string
		raw        bool
	)

	rootCmd := &cobra.Command{
		Use:   "tabula-cli",
		Short: "Tabula CLI",
		Long:  `Tabula CLI is a command line interface for preparing datasets with the Tabula session manager.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := tabula.DefaultConfig()
			if _, err := os.Stat(configPath); err == nil {
				loaded, err := tabula.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = *loaded
			}
			if cmd.Flags().Changed("manager-url") {
				cfg.Manager.URL = managerURL
			}

			cli.SetSDK(sdk.NewSDK(sdk.Config{
				ManagerURL:      cfg.Manager.URL,
				TLSVerification: cfg.Manager.TLSVerification,
			}))
			cli.SetPretty(cfg.Output.Pretty && !raw)
			cli.SetMQTTConfig(mqtt.Config{
				Address:  cfg.MQTT.Address,
				Username: cfg.MQTT.Username,
				Password: cfg.MQTT.Password,
			})

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", filepath.Join(".", defConfigFile), "Config file path")
	rootCmd.PersistentFlags().StringVarP(&managerURL, "manager-url", "u", tabula.DefManagerURL, "Session manager URL")
	rootCmd.PersistentFlags().BoolVarP(&raw, "raw", "r", false, "Print compact JSON")

	rootCmd.AddCommand(cli.NewSessionsCmd())
	rootCmd.AddCommand(cli.NewSamplesCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
