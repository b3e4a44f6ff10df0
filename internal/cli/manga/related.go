package manga

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"mangareader/internal/cli/client"
	"mangareader/pkg/models"
)

var relatedCmd = &cobra.Command{
	Use:   "related <manga-id>",
	Short: "Show manga related to a title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		var params url.Values
		if limit > 0 {
			params = url.Values{"limit": {strconv.Itoa(limit)}}
		}

		var out []models.Manga
		if _, err := client.FromConfig().Do(cmd.Context(), http.MethodGet, "/manga/"+url.PathEscape(args[0])+"/related", params, nil, &out); err != nil {
			return fmt.Errorf("failed to get related manga: %w", err)
		}

		if len(out) == 0 {
			fmt.Println("No related manga found")
			return nil
		}
		fmt.Printf("\nRelated manga (%d):\n\n", len(out))
		PrintList(out)
		return nil
	},
}

func init() {
	relatedCmd.Flags().Int("limit", 0, "Number of results (server default when 0)")
	MangaCmd.AddCommand(relatedCmd)
}
