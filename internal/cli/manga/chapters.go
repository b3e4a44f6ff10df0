package manga

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

var chaptersCmd = &cobra.Command{
	Use:   "chapters <manga-id>",
	Short: "List chapters of a manga",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out []models.ChapterSummary
		if _, err := client.FromConfig().Do(cmd.Context(), http.MethodGet, "/manga/"+url.PathEscape(args[0])+"/chapters", nil, nil, &out); err != nil {
			return fmt.Errorf("failed to list chapters: %w", err)
		}

		fmt.Printf("\n%d chapters:\n\n", len(out))
		for _, ch := range out {
			price := "free"
			if ch.IsPaid && ch.Price > 0 {
				price = strconv.Itoa(ch.Price) + " coins"
			}
			fmt.Printf("  Ch. %-6s %-30s %-10s %s\n", utils.FormatChapterNumber(ch.Number), ch.Title, price, ch.ID)
		}
		return nil
	},
}

func init() {
	MangaCmd.AddCommand(chaptersCmd)
}
