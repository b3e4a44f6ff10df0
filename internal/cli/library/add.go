package library

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"mangareader/internal/cli/client"
)

var addCmd = &cobra.Command{
	Use:   "add <manga-id>",
	Short: "Add manga to your favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFavorite(cmd, args[0], http.MethodPut)
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <manga-id>",
	Short: "Remove manga from your favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFavorite(cmd, args[0], http.MethodDelete)
	},
}

func setFavorite(cmd *cobra.Command, mangaID, method string) error {
	c := client.FromConfig()
	if err := c.RequireToken(); err != nil {
		return err
	}

	msg, err := c.Do(cmd.Context(), method, "/me/favorites/"+url.PathEscape(mangaID), nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed: %w", err)
	}
	fmt.Printf("✓ %s\n", msg)
	fmt.Printf("  Manga ID: %s\n", mangaID)
	return nil
}

func init() {
	LibraryCmd.AddCommand(addCmd)
	LibraryCmd.AddCommand(removeCmd)
}
