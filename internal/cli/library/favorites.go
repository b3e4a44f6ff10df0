package library

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"mangareader/internal/cli/client"
	"mangareader/pkg/models"
	"mangareader/pkg/utils"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List your favorite manga",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.FromConfig()
		if err := c.RequireToken(); err != nil {
			return err
		}

		var out []models.FavoriteItem
		if _, err := c.Do(cmd.Context(), http.MethodGet, "/me/favorites", pageQuery(cmd), nil, &out); err != nil {
			return fmt.Errorf("failed to get favorites: %w", err)
		}

		fmt.Printf("\nYour Favorites (%d manga):\n\n", len(out))
		for i, item := range out {
			fmt.Printf("%d. %s\n", i+1, item.Title)
			fmt.Printf("   Author: %s\n", item.Author)
			fmt.Printf("   Added: %s\n", utils.TimeAgo(item.AddedAt))
			fmt.Printf("   ID: %s\n\n", item.ID)
		}
		return nil
	},
}

func pageQuery(cmd *cobra.Command) url.Values {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	return url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
}

func init() {
	favoritesCmd.Flags().Int("limit", 20, "Number of results")
	favoritesCmd.Flags().Int("offset", 0, "Offset into the list")
	LibraryCmd.AddCommand(favoritesCmd)
}
