package popular

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"mangareader/internal/cli/client"
	"mangareader/pkg/models"
)

var PopularCmd = &cobra.Command{
	Use:   "popular",
	Short: "Popular list commands",
	Long:  "Show the curated popular list and edit it (admin)",
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the popular list",
	RunE: func(cmd *cobra.Command, args []string) error {
		var out []models.PopularManga
		if _, err := client.FromConfig().Do(cmd.Context(), http.MethodGet, "/manga/popular", nil, nil, &out); err != nil {
			return fmt.Errorf("failed to get popular list: %w", err)
		}

		fmt.Printf("\nPopular (%d):\n\n", len(out))
		for _, m := range out {
			fmt.Printf("%2d. %s  (%s)\n", m.Order, m.Title, m.ID)
		}
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <manga-id>",
	Short: "Append a manga to the popular list (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return edit(cmd, http.MethodPost, "/admin/popular/"+url.PathEscape(args[0]), nil)
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <manga-id>",
	Short: "Remove a manga from the popular list (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return edit(cmd, http.MethodDelete, "/admin/popular/"+url.PathEscape(args[0]), nil)
	},
}

var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Move a popular entry to another position (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetInt("from")
		to, _ := cmd.Flags().GetInt("to")
		return edit(cmd, http.MethodPost, "/admin/popular/move", models.MovePopularRequest{From: &from, To: &to})
	},
}

func edit(cmd *cobra.Command, method, path string, body interface{}) error {
	c := client.FromConfig()
	if err := c.RequireToken(); err != nil {
		return err
	}

	var out []models.PopularEntry
	msg, err := c.Do(cmd.Context(), method, path, nil, body, &out)
	if err != nil {
		return fmt.Errorf("failed: %w", err)
	}

	if msg != "" {
		fmt.Printf("✓ %s\n", msg)
	}
	for _, e := range out {
		fmt.Printf("  %2d. %s\n", e.Order, e.MangaID)
	}
	return nil
}

func init() {
	moveCmd.Flags().Int("from", 0, "Current zero-based position")
	moveCmd.Flags().Int("to", 0, "New zero-based position")
	moveCmd.MarkFlagRequired("from")
	moveCmd.MarkFlagRequired("to")

	PopularCmd.AddCommand(showCmd)
	PopularCmd.AddCommand(addCmd)
	PopularCmd.AddCommand(removeCmd)
	PopularCmd.AddCommand(moveCmd)
}
