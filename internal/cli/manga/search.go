package manga

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mangareader/internal/cli/client"
	"mangareader/pkg/models"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for manga",
	Long:  "Search the manga catalog by title or author",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		params := url.Values{}
		params.Set("q", strings.Join(args, " "))
		params.Set("limit", strconv.Itoa(limit))

		var out models.MangaListResponse
		if _, err := client.FromConfig().Do(cmd.Context(), http.MethodGet, "/manga/search", params, nil, &out); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		fmt.Printf("\nFound %d results:\n\n", out.Total)
		PrintList(out.Data)
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 10, "Number of results")
	MangaCmd.AddCommand(searchCmd)
}
