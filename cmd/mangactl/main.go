package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mangareader/internal/cli/admin"
	"mangareader/internal/cli/auth"
	"mangareader/internal/cli/catalog"
	"mangareader/internal/cli/chapter"
	"mangareader/internal/cli/client"
	"mangareader/internal/cli/coins"
	"mangareader/internal/cli/config"
	"mangareader/internal/cli/library"
	"mangareader/internal/cli/manga"
	"mangareader/internal/cli/popular"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mangactl",
	Short: "MangaReader command line client",
	Long:  "Search manga, manage your library and coins, and administer the MangaReader catalog",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage: true,
}

func initConfig() error {
	viper.SetDefault("server.url", client.DefaultServerURL)
	viper.SetEnvPrefix("MANGACTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigFile(client.ConfigFile())
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.mangareader/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "API server URL")
	viper.BindPFlag("server.url", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.AddCommand(
		auth.AuthCmd,
		config.ConfigCmd,
		manga.MangaCmd,
		library.LibraryCmd,
		coins.CoinsCmd,
		chapter.ChapterCmd,
		popular.PopularCmd,
		catalog.CatalogCmd,
		admin.AdminCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
