package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	appI18n "github.com/luminalearn/lumina/internal/i18n"
	"github.com/luminalearn/lumina/internal/model"
	"github.com/luminalearn/lumina/internal/store"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List completed quiz attempts, most recent first",
		RunE:  runHistory,
	}
	f := cmd.Flags()
	f.StringP("format", "f", "table", "Output format (table, json)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	commonFlags(f)
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	cfg := loadConfig(v)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(cfg.Lang))
	switch v.GetString("format") {
	case "json":
		return writeHistoryJSON(ctx, w, db, time.Now())
	case "table", "":
		attempts, err := db.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("load attempts: %w", err)
		}
		return writeHistoryTable(ctx, w, attempts)
	default:
		return fmt.Errorf("unknown format %q", v.GetString("format"))
	}
}

func writeHistoryJSON(ctx context.Context, w io.Writer, db *store.Store, now time.Time) error {
	export, err := db.ExportHistory(ctx, now)
	if err != nil {
		return fmt.Errorf("export history: %w", err)
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

func writeHistoryTable(ctx context.Context, w io.Writer, attempts []model.CompletedAttempt) error {
	if len(attempts) == 0 {
		_, err := fmt.Fprintln(w, appI18n.T(ctx, "NoAttempts"))
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, a := range attempts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.Date, a.CourseTitle, a.QuizTitle, a.Score, appI18n.Status(ctx, a.Status))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, appI18n.Tp(ctx, "AttemptsRecorded", len(attempts)))
	return err
}
