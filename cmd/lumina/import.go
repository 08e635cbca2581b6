package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/luminalearn/lumina/internal/catalog"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [catalog.json...]",
		Short: "Import course catalogs into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	commonFlags(cmd.Flags())
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	cfg := loadConfig(viperForCmd(cmd))

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	created, err := catalog.ImportFiles(cmd.Context(), db, args)
	if err != nil {
		return fmt.Errorf("import catalogs: %w", err)
	}
	total, err := db.CourseCount(cmd.Context())
	if err != nil {
		return fmt.Errorf("count courses: %w", err)
	}
	slog.Info("import finished", "created", created, "total_courses", total)
	return nil
}
