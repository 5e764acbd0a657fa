package envirofacts

import (
	"context"
	"fmt"
	"log/slog"

	"envirofetch/lib/table"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type FetchOptions struct {
	Table string
	// reporting year to filter by, 0 fetches all years
	Year int
	// explicit row total, 0 asks the service for the count
	Rows int
}

// FetchTable downloads a complete table by fetching it in bounded row
// slices, sequentially and in order, then merging the slices and
// dropping exact duplicate rows introduced by slice boundaries.
// Returns ErrNoData when the query matches zero rows.
func (c *Client) FetchTable(ctx context.Context, opts FetchOptions) (table.Table, error) {
	ctx, span := tracer.Start(ctx, "FetchTable")
	defer span.End()
	span.SetAttributes(
		attribute.String("table", opts.Table),
		attribute.Int("year", opts.Year),
	)

	fail := func(err error) (table.Table, error) {
		err = fmt.Errorf("table %s: %w", opts.Table, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return table.Table{}, err
	}

	qualifier, err := c.YearQualifier(ctx, opts.Table, opts.Year)
	if err != nil {
		return fail(err)
	}

	total := opts.Rows
	if total == 0 {
		total, err = c.RowCount(ctx, opts.Table, qualifier)
		if err != nil {
			return fail(err)
		}
	}

	bounds := sliceBounds(total)
	if len(bounds) < 2 {
		return table.Table{}, fmt.Errorf("table %s: %w", opts.Table, ErrNoData)
	}

	slog.InfoContext(
		ctx, "fetching table",
		"table", opts.Table,
		"year", opts.Year,
		"rows", total,
		"slices", len(bounds)-1,
	)

	slices := make([]table.Table, 0, len(bounds)-1)
	for i := 0; i < len(bounds)-1; i++ {
		slice, err := c.TableSlice(ctx, opts.Table, bounds[i], bounds[i+1], qualifier)
		if err != nil {
			return fail(err)
		}
		slices = append(slices, slice)
	}

	merged, err := table.Concat(slices...)
	if err != nil {
		return fail(err)
	}
	return table.Dedup(merged), nil
}

// sliceBounds partitions [0, total) into consecutive ranges of at most
// SliceCeiling rows: 0, 10000, ..., total. A zero total yields a single
// boundary and therefore no ranges.
func sliceBounds(total int) []int {
	var bounds []int
	for row := 0; row < total; row += SliceCeiling {
		bounds = append(bounds, row)
	}
	return append(bounds, total)
}
