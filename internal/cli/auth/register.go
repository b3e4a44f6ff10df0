package auth

import (
	"fmt"
	"net/http"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mangareader/internal/cli/client"
	"mangareader/pkg/models"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	Long:  "Create a new MangaReader account with email, display name, and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")

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

		fmt.Print("Confirm password: ")
		confirm, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}

		if string(password) != string(confirm) {
			return fmt.Errorf("passwords do not match")
		}

		body := models.RegisterRequest{
			Email:       email,
			Password:    string(password),
			DisplayName: name,
		}

		var out struct {
			User models.UserProfile `json:"user"`
		}
		if _, err := client.FromConfig().Do(cmd.Context(), http.MethodPost, "/auth/register", nil, body, &out); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		fmt.Println("✓ Account created!")
		fmt.Printf("  User ID: %s\n", out.User.ID)
		fmt.Printf("  Email: %s\n", out.User.Email)
		fmt.Println("\nRun 'mangactl auth login' to sign in")
		return nil
	},
}

func init() {
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("name", "", "Display name")
	AuthCmd.AddCommand(registerCmd)
}
