package chapter

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"mangareader/internal/cli/client"
	"mangareader/pkg/models"
)

var paywallCmd = &cobra.Command{
	Use:   "paywall <chapter-id>",
	Short: "Show whether a chapter is locked for you",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out models.PaywallDecision
		if _, err := client.FromConfig().Do(cmd.Context(), http.MethodGet, "/chapters/"+url.PathEscape(args[0])+"/paywall", nil, nil, &out); err != nil {
			return fmt.Errorf("failed to check paywall: %w", err)
		}

		if !out.Locked {
			fmt.Printf("✓ Readable (%s)\n", out.Reason)
			return nil
		}
		fmt.Printf("✗ Locked: %d coins (%s)\n", out.Price, out.Reason)
		if out.Balance != nil {
			fmt.Printf("  Your balance: %d\n", *out.Balance)
		}
		return nil
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock <chapter-id>",
	Short: "Spend coins to unlock a paid chapter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.FromConfig()
		if err := c.RequireToken(); err != nil {
			return err
		}

		var out models.UnlockResult
		msg, err := c.Do(cmd.Context(), http.MethodPost, "/chapters/"+url.PathEscape(args[0])+"/unlock", nil, nil, &out)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusPaymentRequired {
				return fmt.Errorf("not enough coins: %s", apiErr.Message)
			}
			return fmt.Errorf("unlock failed: %w", err)
		}

		fmt.Printf("✓ %s\n", msg)
		fmt.Printf("  Chapter ID: %s\n", out.ChapterID)
		if out.Status == models.UnlockGranted {
			fmt.Printf("  Paid: %d coins\n", out.PricePaid)
		}
		fmt.Printf("  Balance: %d\n", out.Balance)
		return nil
	},
}

func init() {
	ChapterCmd.AddCommand(paywallCmd)
	ChapterCmd.AddCommand(unlockCmd)
}
