package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/shopboard/internal/service"
)

func init() {
	var catalogCmd = &cobra.Command{
		Use:   "catalog",
		Short: "Catalog maintenance",
	}
	catalogCmd.AddCommand(&cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create or update categories and products from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			file, err := service.ParseCatalog(f)
			if err != nil {
				return err
			}

			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Importer.Import(cmd.Context(), file)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Printf("Categories: %d created, %d updated\n", res.CategoriesCreated, res.CategoriesUpdated)
			fmt.Printf("Products:   %d created, %d updated\n", res.ProductsCreated, res.ProductsUpdated)
			return nil
		},
	})
	rootCmd.AddCommand(catalogCmd)
}
