package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mangareader/internal/cli/client"
)

var setServerCmd = &cobra.Command{
	Use:   "set-server <url>",
	Short: "Set the API server URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		viper.Set("server.url", args[0])
		if err := client.SaveConfig(); err != nil {
			return err
		}
		fmt.Printf("✓ Server set to %s\n", args[0])
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(setServerCmd)
}
