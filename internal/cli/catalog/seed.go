package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"mangareader/internal/cli/client"
	"mangareader/pkg/models"
)

// uploadBatch stays under the server's per-request file limit
const uploadBatch = 50

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Create manga and chapters from a YAML seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := LoadSeedFile(args[0])
		if err != nil {
			return err
		}

		c := client.FromConfig()
		if err := c.RequireToken(); err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if dryRun {
			for _, m := range seed.Manga {
				fmt.Printf("• %s (%d chapters)\n", m.Title, len(m.Chapters))
			}
			fmt.Printf("\n%d manga, %d popular entries would be created\n", len(seed.Manga), len(seed.Popular))
			return nil
		}

		return NewSeeder(c).Run(cmd.Context(), seed)
	},
}

// Seeder pushes a seed file through the admin API
type Seeder struct {
	client *client.Client
	ids    map[string]string
}

// NewSeeder creates a seeder for c
func NewSeeder(c *client.Client) *Seeder {
	return &Seeder{client: c, ids: make(map[string]string)}
}

// Run creates every manga with its chapters, then appends the popular
// titles. It stops at the first failure; rows created before it remain.
func (s *Seeder) Run(ctx context.Context, seed *SeedFile) error {
	for _, m := range seed.Manga {
		var created models.Manga
		if _, err := s.client.Do(ctx, http.MethodPost, "/admin/manga", nil, m.createRequest(), &created); err != nil {
			return fmt.Errorf("create manga %q: %w", m.Title, err)
		}
		s.ids[m.Title] = created.ID
		fmt.Printf("✓ %s (%s)\n", created.Title, created.ID)

		for _, ch := range m.Chapters {
			if err := s.createChapter(ctx, created.ID, ch); err != nil {
				return fmt.Errorf("manga %q chapter %v: %w", m.Title, ch.Number, err)
			}
		}
	}

	for _, title := range seed.Popular {
		path := "/admin/popular/" + url.PathEscape(s.ids[title])
		if _, err := s.client.Do(ctx, http.MethodPost, path, nil, nil, nil); err != nil {
			return fmt.Errorf("add %q to popular: %w", title, err)
		}
	}

	fmt.Printf("\nSeeded %d manga\n", len(seed.Manga))
	return nil
}

// IDs maps seeded titles to their new manga IDs
func (s *Seeder) IDs() map[string]string {
	return s.ids
}

func (s *Seeder) createChapter(ctx context.Context, mangaID string, ch SeedChapter) error {
	pages := append([]string(nil), ch.Pages...)

	files, err := ch.PageFiles()
	if err != nil {
		return err
	}
	for start := 0; start < len(files); start += uploadBatch {
		end := min(start+uploadBatch, len(files))
		var out struct {
			URLs []string `json:"urls"`
		}
		if _, err := s.client.Upload(ctx, "/admin/uploads", files[start:end], &out); err != nil {
			return fmt.Errorf("upload pages: %w", err)
		}
		pages = append(pages, out.URLs...)
	}

	number := ch.Number
	req := models.CreateChapterRequest{
		Number: &number,
		Title:  ch.Title,
		Pages:  pages,
		IsPaid: ch.Price > 0,
		Price:  ch.Price,
	}
	var created models.Chapter
	if _, err := s.client.Do(ctx, http.MethodPost, "/admin/manga/"+url.PathEscape(mangaID)+"/chapters", nil, req, &created); err != nil {
		return err
	}
	fmt.Printf("  + chapter %v: %d pages\n", ch.Number, len(pages))
	return nil
}

func init() {
	seedCmd.Flags().Bool("dry-run", false, "Validate the file and print what would be created")
	CatalogCmd.AddCommand(seedCmd)
}
