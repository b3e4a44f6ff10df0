package admin

import "github.com/spf13/cobra"

var AdminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administration commands",
	Long:  "Manage user roles. The first admin is bootstrapped directly against the database.",
}
