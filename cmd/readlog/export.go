// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"readlog/internal/metrics"
	"readlog/internal/models"
	"readlog/internal/query"
	"readlog/internal/report"
	"readlog/internal/service"
)

var (
	exportDir      string
	exportSubject  string
	exportFormat   string
	exportGenre    string
	exportFrom     string
	exportTo       string
	exportSearch   string
	exportSort     string
	exportType     string
	exportCategory string

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write report documents to a directory",
		Long: `Export renders the book review and/or personal record reports and
writes them under --dir using their download filenames. Review filters
(--genre, --from, --to, --q, --sort) and record filters (--type,
--category) match the API query parameters.`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}
)

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportDir, "dir", "o", ".", "output directory")
	f.StringVar(&exportSubject, "subject", "all", "reviews, records or all")
	f.StringVar(&exportFormat, "format", "all", "tabular, narrative or all")
	f.StringVar(&exportGenre, "genre", "", "review genre id")
	f.StringVar(&exportFrom, "from", "", "earliest read date (YYYY-MM-DD)")
	f.StringVar(&exportTo, "to", "", "latest read date (YYYY-MM-DD)")
	f.StringVar(&exportSearch, "q", "", "title or author search")
	f.StringVar(&exportSort, "sort", "", "date_desc, date_asc, title_asc or rating_desc")
	f.StringVar(&exportType, "type", "", "record type")
	f.StringVar(&exportCategory, "category", "", "record category")
}

// exportPlan resolves the subject and format flags.
func exportPlan() ([]report.Subject, []report.Format, error) {
	subjects := []report.Subject{report.SubjectReviews, report.SubjectRecords}
	if exportSubject != "all" {
		s, err := report.ParseSubject(exportSubject)
		if err != nil {
			return nil, nil, err
		}
		subjects = []report.Subject{s}
	}
	formats := []report.Format{report.Tabular, report.Narrative}
	if exportFormat != "all" {
		f, err := report.ParseFormat(exportFormat)
		if err != nil {
			return nil, nil, err
		}
		formats = []report.Format{f}
	}
	return subjects, formats, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	subjects, formats, err := exportPlan()
	if err != nil {
		return err
	}
	criteria, err := query.FromValues(url.Values{
		"genre": {exportGenre},
		"from":  {exportFrom},
		"to":    {exportTo},
		"q":     {exportSearch},
		"sort":  {exportSort},
	})
	if err != nil {
		return err
	}
	filter := models.RecordFilter{Type: models.RecordType(exportType), Category: exportCategory}

	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg, useMemory, metrics.Nop{})
	if err != nil {
		return err
	}
	defer b.Close()

	for _, subject := range subjects {
		for _, format := range formats {
			exp, err := exportOne(ctx, b, subject, format, criteria, filter)
			if err != nil {
				return fmt.Errorf("export %s %s: %w", subject, format, err)
			}
			path := filepath.Join(exportDir, exp.Document.Filename)
			if err := os.WriteFile(path, exp.Document.Body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			slog.Info("report written", "path", path, "bytes", len(exp.Document.Body),
				"cached", exp.Cached, "archive_key", exp.ArchiveKey, "archive_url", exp.ArchiveURL)
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
	}
	return nil
}

func exportOne(ctx context.Context, b *backend, subject report.Subject, format report.Format,
	c query.Criteria, f models.RecordFilter) (*service.Export, error) {
	if subject == report.SubjectRecords {
		return b.records.Export(ctx, f, format)
	}
	return b.reviews.Export(ctx, c, format)
}
