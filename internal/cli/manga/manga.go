package manga

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mangareader/pkg/models"
)

var MangaCmd = &cobra.Command{
	Use:   "manga",
	Short: "Manga search and information commands",
	Long:  "Search for manga, view related titles, and browse chapters",
}

// PrintList prints manga the way search results are shown
func PrintList(items []models.Manga) {
	for i, m := range items {
		fmt.Printf("%d. %s\n", i+1, m.Title)
		if m.Author != "" {
			fmt.Printf("   Author: %s\n", m.Author)
		}
		fmt.Printf("   Status: %s\n", m.Status)
		if len(m.Genres) > 0 {
			fmt.Printf("   Genres: %s\n", strings.Join(m.Genres, ", "))
		}
		fmt.Printf("   Views: %d\n", m.Views)
		fmt.Printf("   ID: %s\n\n", m.ID)
	}
}
