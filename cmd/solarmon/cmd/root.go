// Package cmd implements the CLI commands for solarmon.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/hamzajavaid/solarmon/internal/api/client"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "solarmon",
	Short: "Monitor solar inverters and send alerts",
	Long: "solarmon polls per-account inverter telemetry from the WatchPower\n" +
		"provider, runs condition detectors for grid feed, load shedding,\n" +
		"priority resets, mode changes, and provider outages, and fans\n" +
		"alerts out to the configured notification channels.",
}

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().
		String("server", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.AddCommand(accountsCmd())
}

func initViper() {
	viper.SetEnvPrefix("SOLARMON")
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"))
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
