package catalog

import "github.com/spf13/cobra"

var CatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Catalog administration commands",
	Long:  "Load manga and chapters into the catalog (admin)",
}
