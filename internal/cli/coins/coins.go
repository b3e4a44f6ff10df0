package coins

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"mangareader/internal/cli/client"
	"mangareader/pkg/models"
)

var CoinsCmd = &cobra.Command{
	Use:   "coins",
	Short: "Coin wallet commands",
	Long:  "Check coin balances and grant coins to readers",
}

type coinsView struct {
	Balance      int                      `json:"balance"`
	Transactions []models.CoinTransaction `json:"transactions"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show your coin balance and recent transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.FromConfig()
		if err := c.RequireToken(); err != nil {
			return err
		}

		userID, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		path := "/me/coins"
		if userID != "" {
			path = "/admin/users/" + url.PathEscape(userID) + "/coins"
		}

		var out coinsView
		if _, err := c.Do(cmd.Context(), http.MethodGet, path, url.Values{"limit": {strconv.Itoa(limit)}}, nil, &out); err != nil {
			return fmt.Errorf("failed to get balance: %w", err)
		}

		fmt.Printf("\nBalance: %d coins\n\n", out.Balance)
		if len(out.Transactions) == 0 {
			return nil
		}
		fmt.Println("Recent transactions:")
		for _, tx := range out.Transactions {
			line := fmt.Sprintf("  %s  %+5d  %s", tx.CreatedAt.Format("2006-01-02 15:04"), tx.Delta, tx.Reason)
			if tx.ChapterID != nil {
				line += "  chapter " + *tx.ChapterID
			}
			fmt.Println(line)
		}
		return nil
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant <user-id>",
	Short: "Grant coins to a user (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.FromConfig()
		if err := c.RequireToken(); err != nil {
			return err
		}

		amount, _ := cmd.Flags().GetInt("amount")
		if amount <= 0 {
			return fmt.Errorf("--amount must be positive")
		}

		var out models.Wallet
		body := models.GrantCoinsRequest{Amount: amount}
		if _, err := c.Do(cmd.Context(), http.MethodPost, "/admin/users/"+url.PathEscape(args[0])+"/coins", nil, body, &out); err != nil {
			return fmt.Errorf("grant failed: %w", err)
		}

		fmt.Printf("✓ Granted %d coins\n", amount)
		fmt.Printf("  User ID: %s\n", out.UserID)
		fmt.Printf("  New balance: %d\n", out.Balance)
		return nil
	},
}

func init() {
	balanceCmd.Flags().String("user", "", "Show another user's balance (admin)")
	balanceCmd.Flags().Int("limit", 10, "Number of transactions")
	grantCmd.Flags().Int("amount", 0, "Coins to grant (required)")
	grantCmd.MarkFlagRequired("amount")

	CoinsCmd.AddCommand(balanceCmd)
	CoinsCmd.AddCommand(grantCmd)
}
