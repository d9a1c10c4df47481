package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mangashelf/internal/manga"
	"mangashelf/pkg/models"
)

// genreSep joins genres inside one CSV cell.
const genreSep = "|"

var csvHeader = []string{"id", "title", "author", "genres", "volumeCount", "publicationDate", "synopsis", "rating", "publisher"}

func newExportCommand(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export-csv",
		Short: "Write the collection to a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.repo.List(cmd.Context())
			if err != nil {
				return err
			}
			if err := exportCSV(outPath, items); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d mangas to %s\n", color.New(color.FgGreen).Sprint("exported"), len(items), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "data/mangas.csv", "output CSV path")
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	var (
		inPath      string
		skipInvalid bool
	)
	cmd := &cobra.Command{
		Use:   "import-csv",
		Short: "Create a manga for every row of a CSV file",
		Long: "Each row is validated like a POST /mangas payload and appended with a fresh id.\n" +
			"The id column, if present, is ignored. Rows are written to the store directly,\n" +
			"so a running api-server does not publish them to feed subscribers.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(inPath)
			if err != nil {
				return err
			}
			defer f.Close()

			imported, skipped, err := importCSV(cmd.Context(), a.repo, f, func(line int, err error) bool {
				if !skipInvalid {
					return false
				}
				a.logger.Warn().Int("line", line).Err(err).Msg("skipping invalid row")
				return true
			}, func(m *models.Manga) {
				a.logger.Debug().Str("manga", describeManga(m)).Msg("imported")
			})
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d mangas from %s", color.New(color.FgGreen).Sprint("imported"), imported, inPath)
			if skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", color.New(color.FgYellow).Sprintf("%d skipped", skipped))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "data/mangas.csv", "input CSV path")
	cmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "log and skip rows that fail validation instead of stopping")
	return cmd
}

func exportCSV(outPath string, items []models.Manga) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeCSV(f, items); err != nil {
		return err
	}
	return f.Close()
}

func writeCSV(w io.Writer, items []models.Manga) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, m := range items {
		if err := cw.Write([]string{
			strconv.Itoa(m.ID),
			m.Title,
			m.Author,
			strings.Join(m.Genres, genreSep),
			strconv.Itoa(m.VolumeCount),
			m.PublicationDate,
			m.Synopsis,
			strconv.FormatFloat(m.Rating, 'f', -1, 64),
			m.Publisher,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// importCSV creates one record per row. onInvalid decides whether a row that
// fails validation is skipped (true) or aborts the import (false).
func importCSV(
	ctx context.Context,
	repo *manga.Repo,
	r io.Reader,
	onInvalid func(line int, err error) bool,
	onCreated func(m *models.Manga),
) (imported, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := readHeader(cr)
	if err != nil {
		return 0, 0, fmt.Errorf("read header: %w", err)
	}

	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, skipped, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		m, err := repo.Create(ctx, rowPayload(header, row))
		if err != nil {
			var verr *manga.ValidationError
			if errors.As(err, &verr) && onInvalid(line, err) {
				skipped++
				continue
			}
			return imported, skipped, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
		if onCreated != nil {
			onCreated(m)
		}
	}
	return imported, skipped, nil
}

// rowPayload maps a CSV row onto a create payload. Cells that are missing
// stay absent so the validator reports them as required; numeric cells that
// do not parse are passed through as strings so it reports the type.
func rowPayload(header map[string]int, row []string) map[string]any {
	payload := make(map[string]any)
	for _, key := range []string{"title", "author", "publicationDate", "synopsis", "publisher"} {
		if v, ok := cell(header, row, key); ok {
			payload[key] = v
		}
	}
	if v, ok := cell(header, row, "genres"); ok {
		var genres []any
		for _, g := range strings.Split(v, genreSep) {
			if g = strings.TrimSpace(g); g != "" {
				genres = append(genres, g)
			}
		}
		if genres == nil {
			genres = []any{}
		}
		payload["genres"] = genres
	}
	for _, key := range []string{"volumeCount", "rating"} {
		if v, ok := cell(header, row, key); ok {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				payload[key] = n
			} else {
				payload[key] = v
			}
		}
	}
	return payload
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.ToLower(strings.TrimSpace(name))] = idx
	}
	return header, nil
}

// cell returns the trimmed value under key; header keys are lower-cased.
func cell(header map[string]int, row []string, key string) (string, bool) {
	idx, ok := header[strings.ToLower(key)]
	if !ok || idx >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[idx]), true
}
