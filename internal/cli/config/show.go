package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display current mangactl configuration and connection settings",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("MangaReader Configuration:")
		fmt.Println("")
		fmt.Printf("Config file: %s\n", viper.ConfigFileUsed())
		fmt.Printf("Server:\n")
		fmt.Printf("  URL: %s\n", viper.GetString("server.url"))
		fmt.Println("")

		email := viper.GetString("user.email")
		token := viper.GetString("user.token")

		if email == "" {
			fmt.Printf("User: Not logged in\n")
			fmt.Printf("  Run 'mangactl auth login' to authenticate\n")
			return
		}

		fmt.Printf("User:\n")
		fmt.Printf("  Email: %s\n", email)
		fmt.Printf("  ID: %s\n", viper.GetString("user.id"))
		fmt.Printf("  Role: %s\n", viper.GetString("user.role"))
		if token != "" {
			fmt.Printf("  Token: %s\n", maskToken(token))
			fmt.Printf("  Status: ✓ Logged in\n")
		} else {
			fmt.Printf("  Status: ✗ Not logged in\n")
		}
	},
}

func maskToken(token string) string {
	if len(token) > 20 {
		return token[:20] + "..."
	}
	return token
}

func init() {
	ConfigCmd.AddCommand(showCmd)
}
