package auth

import (
	"fmt"
	"net/http"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"mangareader/internal/cli/client"
	"mangareader/pkg/models"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to MangaReader",
	Long:  "Authenticate with your email and password and save the token locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")

		if email == "" {
			fmt.Print("Email: ")
			fmt.Scanln(&email)
		}

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}

		body := models.LoginRequest{Email: email, Password: string(password)}

		var out models.LoginResponse
		if _, err := client.FromConfig().Do(cmd.Context(), http.MethodPost, "/auth/login", nil, body, &out); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		viper.Set("user.email", out.User.Email)
		viper.Set("user.id", out.User.ID)
		viper.Set("user.role", string(out.User.Role))
		viper.Set("user.token", out.Token)
		if err := client.SaveConfig(); err != nil {
			return err
		}

		fmt.Println("✓ Login successful!")
		fmt.Printf("  Welcome back, %s!\n", displayName(out.User))
		fmt.Printf("  Coins: %d\n", out.User.CoinBalance)
		fmt.Printf("  Token saved to: %s\n", client.ConfigFile())
		return nil
	},
}

func displayName(u models.UserProfile) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

func init() {
	loginCmd.Flags().String("email", "", "Email address")
	AuthCmd.AddCommand(loginCmd)
}
