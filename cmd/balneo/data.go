package main

import (
	"fmt"

	"github.com/mpataki/balneo/internal/backup"
	"github.com/mpataki/balneo/internal/catalog"
	"github.com/spf13/cobra"
)

func newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every record to a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := backup.Export(store, args[0]); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Printf("Exported to %s\n", args[0])
			return nil
		},
	}
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Restore records from a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := backup.Import(store, args[0])
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Printf("Imported %d exercises, %d sessions, %d patients, %d history entries\n",
				len(st.Exercises), len(st.Sessions), len(st.Patients), len(st.PatientSessions))
			return nil
		},
	}
}

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with YAML catalogs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import [dir]",
		Short: "Import every YAML catalog in dir (default: the data catalog dir)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			dir := cfg.CatalogDir
			if len(args) == 1 {
				dir = args[0]
			}

			c, err := catalog.LoadAll([]string{dir})
			if err != nil {
				return err
			}
			if err := catalog.Import(store, c); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Printf("Imported %d exercises, %d sessions, %d patients from %s\n",
				len(c.Exercises), len(c.Sessions), len(c.Patients), dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a catalog file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Parse(args[0])
			if err != nil {
				return err
			}
			if err := catalog.Validate(c); err != nil {
				return err
			}
			fmt.Printf("%s: %d exercises, %d sessions, %d patients\n",
				args[0], len(c.Exercises), len(c.Sessions), len(c.Patients))
			return nil
		},
	})

	return cmd
}
