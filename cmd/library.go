package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kayz/promptcraft/internal/persist"
	"github.com/kayz/promptcraft/internal/studio"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "List template categories and their templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		store, err := persist.NewStore(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		if err := store.Seed(cmd.Context()); err != nil {
			return fmt.Errorf("seed starter library: %w", err)
		}

		manager := studio.NewLibraryManager(store)
		if err := manager.Refresh(cmd.Context()); err != nil {
			return err
		}

		for _, lib := range manager.Libraries() {
			fmt.Printf("%s (%d templates)\n", lib.Name, len(lib.Templates))
			for _, tmpl := range lib.Templates {
				fmt.Printf("  - %s\n", tmpl.Usecase)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(libraryCmd)
}
