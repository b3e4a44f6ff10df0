package auth

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mangareader/internal/cli/client"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout and revoke the saved token",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.FromConfig()
		if err := c.RequireToken(); err != nil {
			return err
		}

		// the local token is dropped even when the server call fails
		_, apiErr := c.Do(cmd.Context(), http.MethodPost, "/auth/logout", nil, nil, nil)

		viper.Set("user.token", "")
		if err := client.SaveConfig(); err != nil {
			return err
		}
		if apiErr != nil {
			fmt.Printf("! Server did not confirm logout: %v\n", apiErr)
		}
		fmt.Println("✓ Logged out")
		return nil
	},
}

func init() {
	AuthCmd.AddCommand(logoutCmd)
}
