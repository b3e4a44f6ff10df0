package library

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"mangareader/internal/cli/client"
	"mangareader/pkg/models"
	"mangareader/pkg/utils"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or edit your reading history",
	Long:  "List recently read manga with the last chapter read. Use --remove or --clear to edit the history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.FromConfig()
		if err := c.RequireToken(); err != nil {
			return err
		}

		remove, _ := cmd.Flags().GetString("remove")
		clear, _ := cmd.Flags().GetBool("clear")

		switch {
		case clear:
			if _, err := c.Do(cmd.Context(), http.MethodDelete, "/me/history", nil, nil, nil); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Println("✓ Reading history cleared")
			return nil
		case remove != "":
			if _, err := c.Do(cmd.Context(), http.MethodDelete, "/me/history/"+url.PathEscape(remove), nil, nil, nil); err != nil {
				return fmt.Errorf("failed to remove history entry: %w", err)
			}
			fmt.Printf("✓ Removed %s from history\n", remove)
			return nil
		}

		var out []models.HistoryItem
		if _, err := c.Do(cmd.Context(), http.MethodGet, "/me/history", pageQuery(cmd), nil, &out); err != nil {
			return fmt.Errorf("failed to get history: %w", err)
		}

		fmt.Printf("\nReading History (%d manga):\n\n", len(out))
		for i, item := range out {
			fmt.Printf("%d. %s\n", i+1, item.Title)
			if item.LastChapterNumber != nil {
				fmt.Printf("   Progress: Chapter %s\n", utils.FormatChapterNumber(*item.LastChapterNumber))
			}
			fmt.Printf("   Last read: %s\n", utils.TimeAgo(item.LastReadAt))
			fmt.Printf("   ID: %s\n\n", item.ID)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Number of results")
	historyCmd.Flags().Int("offset", 0, "Offset into the list")
	historyCmd.Flags().String("remove", "", "Remove one manga from the history")
	historyCmd.Flags().Bool("clear", false, "Clear the whole history")
	LibraryCmd.AddCommand(historyCmd)
}
