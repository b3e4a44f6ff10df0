package admin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"mangareader/internal/cli/client"
	"mangareader/internal/repository"
	"mangareader/pkg/config"
	"mangareader/pkg/database"
	"mangareader/pkg/models"
	"mangareader/pkg/utils"
)

var promoteCmd = &cobra.Command{
	Use:   "promote [user-id]",
	Short: "Give a user the admin role",
	Long: `Give a user the admin role.

With a user ID the change goes through the API and needs an admin token.
With --email the server configuration is loaded and the database is updated
directly, which is how the first admin account is created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		email, _ := cmd.Flags().GetString("email")
		if !models.IsValidRole(role) {
			return fmt.Errorf("invalid role %q (must be user or admin)", role)
		}

		switch {
		case email != "" && len(args) == 0:
			serverConfig, _ := cmd.Flags().GetString("server-config")
			return promoteInDatabase(cmd.Context(), serverConfig, email, models.UserRole(role))
		case email == "" && len(args) == 1:
			return promoteViaAPI(cmd, args[0], role)
		default:
			return fmt.Errorf("pass either a user ID or --email")
		}
	},
}

func promoteViaAPI(cmd *cobra.Command, userID, role string) error {
	c := client.FromConfig()
	if err := c.RequireToken(); err != nil {
		return err
	}

	var out struct {
		User models.UserProfile `json:"user"`
	}
	body := map[string]string{"role": role}
	if _, err := c.Do(cmd.Context(), http.MethodPut, "/admin/users/"+url.PathEscape(userID)+"/role", nil, body, &out); err != nil {
		return fmt.Errorf("promote failed: %w", err)
	}

	fmt.Printf("✓ %s is now %s\n", out.User.Email, out.User.Role)
	return nil
}

func promoteInDatabase(ctx context.Context, configPath, email string, role models.UserRole) error {
	if configPath == "" {
		configPath = os.Getenv("MANGAREADER_CONFIG")
	}
	if configPath == "" {
		configPath = "./configs/development.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load server config: %w", err)
	}

	pool, err := database.NewPGXPool(ctx, database.ConfigFrom(cfg.Database))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	users := repository.NewUserRepository(pool)
	user, err := users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("find %s: %w", email, err)
	}
	if user.Role == role {
		fmt.Printf("%s is already %s\n", user.Email, role)
		return nil
	}
	if _, err := users.UpdateRole(ctx, user.ID, role); err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	fmt.Printf("✓ %s (%s) is now %s\n", user.Email, user.ID, role)
	fmt.Println("  Existing tokens pick up the new role on their next request")
	return nil
}

func init() {
	promoteCmd.Flags().String("email", "", "Update the user with this email directly in the database")
	promoteCmd.Flags().String("server-config", "", "Server config file for --email (default $MANGAREADER_CONFIG)")
	promoteCmd.Flags().String("role", string(models.UserRoleAdmin), "Role to set (user or admin)")
	AdminCmd.AddCommand(promoteCmd)
}
