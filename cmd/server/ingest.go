package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/dild26/caffeine-projects-sub001/internal/ingest"
	"github.com/dild26/caffeine-projects-sub001/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit codes of the ingest command.
const (
	exitFailedSets = 2
	exitCanceled   = 130
)

func newIngestCommand() *cobra.Command {
	var (
		asJSON bool
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "ingest <file|dir>...",
		Short: "Ingest files or directories once and print the batch report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectFiles(args)
			if err != nil {
				return err
			}
			return runIngest(cmd.Context(), cmd.OutOrStdout(), files, asJSON, strict)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with status 2 when any file set failed")
	return cmd
}

func runIngest(ctx context.Context, out io.Writer, files []models.RawFile, asJSON, strict bool) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openRecordStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	archive, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}

	res, runErr := newIngester(cfg, store, archive, logger).Ingest(ctx, files, func(p ingest.Progress) {
		logger.Debug("progress", zap.Int("done", p.Done), zap.Int("total", p.Total), zap.String("set", p.BaseName))
	})

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printReport(out, res)
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		return cliError{code: exitCanceled, err: runErr}
	case runErr != nil:
		return runErr
	case strict && res.Report.Failed > 0:
		return cliError{code: exitFailedSets, err: fmt.Errorf("%d file set(s) failed", res.Report.Failed)}
	}
	return nil
}

// collectFiles expands directories recursively. Only regular files are
// kept, in lexical order per directory.
func collectFiles(args []string) ([]models.RawFile, error) {
	var files []models.RawFile
	add := func(path string, info fs.FileInfo) {
		files = append(files, models.NewDiskFile(filepath.Base(path), path, info.Size()))
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if info.Mode().IsRegular() {
				add(arg, info)
			}
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			add(path, info)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func printReport(out io.Writer, res *ingest.Result) {
	r := res.Report
	fmt.Fprintf(out, "run %s\n", r.RunID)
	fmt.Fprintf(out, "attempted=%d succeeded=%d recovered=%d auto_saved=%d failed=%d duplicates=%d skipped=%d unmatched_images=%d unsupported=%d\n",
		r.Attempted, r.Succeeded, r.Recovered, r.AutoSaved, r.Failed, r.Duplicates, r.Skipped, r.UnmatchedImages, r.Unsupported)
	if r.Canceled {
		fmt.Fprintln(out, "run was canceled before all file sets were processed")
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SET\tSTATUS\tDETAIL")
	for _, set := range res.FileSets {
		detail := set.ErrorMessage
		if set.Recovered {
			detail = fmt.Sprintf("recovered %v", set.Heuristics)
		}
		if set.Status == models.StatusCompleted && !set.AutoSaved {
			detail += " (not saved)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", set.BaseName, set.Status, detail)
	}
	for _, rej := range res.Rejected {
		fmt.Fprintf(w, "%s\trejected\t%s\n", rej.Name, rej.Reason)
	}
	for _, a := range res.Anomalies {
		fmt.Fprintf(w, "%s\tanomaly\tdropped %s, kept %s\n", a.BaseName, a.Dropped, a.Kept)
	}
	w.Flush()
}
