package chapter

import "github.com/spf13/cobra"

var ChapterCmd = &cobra.Command{
	Use:   "chapter",
	Short: "Chapter access commands",
	Long:  "Check the paywall on a chapter and unlock paid chapters with coins",
}
