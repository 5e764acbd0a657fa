package archiver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"envirofetch/lib/envirofacts"
	"envirofetch/lib/table"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/archiver")

type Status string

const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
	StatusNoData  Status = "no data"
	StatusFailed  Status = "failed"
)

// Item is the outcome of one (table, year) pair in a batch run.
type Item struct {
	Table  string
	Year   int
	Status Status
	// data rows written, only set for StatusWritten
	Rows int
	Path string
	// failure reason, only set for StatusFailed
	Reason string
}

type Config struct {
	OutputDir  string `json:"output_dir"`
	TablesFile string `json:"tables_file"`
	Years      []int  `json:"years"`
	// optional sqlite file recording every item of every run
	ManifestDb string `json:"manifest_db"`
	// courtesy pause between successful writes, defaults to 5s
	WritePauseMs int `json:"write_pause_ms"`
	// pause after a failed pair, defaults to 200ms
	FailurePauseMs int `json:"failure_pause_ms"`
}

func (c Config) writePause() time.Duration {
	if c.WritePauseMs == 0 {
		return time.Second * 5
	}
	return time.Duration(c.WritePauseMs) * time.Millisecond
}

func (c Config) failurePause() time.Duration {
	if c.FailurePauseMs == 0 {
		return time.Millisecond * 200
	}
	return time.Duration(c.FailurePauseMs) * time.Millisecond
}

// ReadTablesFile loads table names from a text file, one per line,
// ignoring blank lines.
func ReadTablesFile(path string) ([]string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tables []string
	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tables = append(tables, line)
	}
	return tables, nil
}

// Run archives every (table, year) pair to {output_dir}/{table}_{year}.csv,
// in file order then year order. Pairs whose output file already exists
// are skipped. A failing pair is recorded and the batch moves on, it
// never aborts the run. The returned items cover every pair attempted.
func Run(ctx context.Context, client *envirofacts.Client, cfg Config) ([]Item, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	tables, err := ReadTablesFile(cfg.TablesFile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read tables file")
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("tables", len(tables)),
		attribute.Int("years", len(cfg.Years)),
	)

	err = os.MkdirAll(cfg.OutputDir, 0755)
	if err != nil {
		return nil, err
	}

	var manifest *Manifest
	if cfg.ManifestDb != "" {
		manifest, err = OpenManifest(ctx, cfg.ManifestDb)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to open manifest")
			return nil, err
		}
		defer manifest.Close(ctx)
	}

	var items []Item
	for _, tableName := range tables {
		for _, year := range cfg.Years {
			item := archiveOne(ctx, client, cfg, tableName, year)
			items = append(items, item)

			if manifest != nil {
				err := manifest.Record(ctx, item)
				if err != nil {
					slog.WarnContext(ctx, "failed to record manifest item", "err", err)
				}
			}

			switch item.Status {
			case StatusWritten:
				pause(ctx, cfg.writePause())
			case StatusFailed:
				pause(ctx, cfg.failurePause())
			}

			if ctx.Err() != nil {
				return items, ctx.Err()
			}
		}
	}
	return items, nil
}

func archiveOne(ctx context.Context, client *envirofacts.Client, cfg Config, tableName string, year int) Item {
	ctx, span := tracer.Start(ctx, "archiveOne")
	defer span.End()
	span.SetAttributes(
		attribute.String("table", tableName),
		attribute.Int("year", year),
	)

	item := Item{
		Table: tableName,
		Year:  year,
		Path:  filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%d.csv", tableName, year)),
	}

	_, err := os.Stat(item.Path)
	if err == nil {
		slog.InfoContext(ctx, "output exists, skipping", "path", item.Path)
		item.Status = StatusSkipped
		return item
	}
	if !errors.Is(err, fs.ErrNotExist) {
		// an unreadable output path would fail at write time anyway,
		// bail before spending network calls on the fetch
		slog.ErrorContext(ctx, "cannot stat output path", "path", item.Path, "err", err)
		span.SetStatus(codes.Error, err.Error())
		item.Status = StatusFailed
		item.Reason = err.Error()
		item.Path = ""
		return item
	}

	result, err := client.FetchTable(ctx, envirofacts.FetchOptions{
		Table: tableName,
		Year:  year,
	})
	if errors.Is(err, envirofacts.ErrNoData) {
		slog.InfoContext(ctx, "no data", "table", tableName, "year", year)
		item.Status = StatusNoData
		item.Path = ""
		return item
	}
	if err != nil {
		slog.ErrorContext(
			ctx, "problem with table",
			"table", tableName,
			"year", year,
			"err", err,
		)
		span.SetStatus(codes.Error, err.Error())
		item.Status = StatusFailed
		item.Reason = err.Error()
		item.Path = ""
		return item
	}

	err = writeFile(item.Path, result)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		item.Status = StatusFailed
		item.Reason = err.Error()
		return item
	}

	slog.InfoContext(ctx, "wrote file", "path", item.Path, "rows", len(result.Rows))
	item.Status = StatusWritten
	item.Rows = len(result.Rows)
	return item
}

func writeFile(path string, result table.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	err = result.WriteCSV(file)
	if err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func pause(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
