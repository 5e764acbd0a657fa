package envirofacts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"envirofetch/lib/table"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// countColumn is the header Envirofacts uses on count responses.
const countColumn = "TOTALQUERYRESULTS"

// RowCount queries the total number of rows in a table, optionally
// narrowed by a qualifier path fragment. The count endpoint has two
// known response shapes: a one-row table with a TOTALQUERYRESULTS
// column, and a headerless document whose sole "header" is the count
// itself (served for zero or trivial results).
func (c *Client) RowCount(ctx context.Context, tableName, qualifier string) (int, error) {
	ctx, span := tracer.Start(ctx, "RowCount")
	defer span.End()
	span.SetAttributes(attribute.String("table", tableName))

	// an empty qualifier leaves a double slash in the path, which the
	// service expects
	url := fmt.Sprintf("%s/%s/%s/count/csv", c.BaseUrl, tableName, qualifier)
	t, err := c.readTable(ctx, url)
	if err != nil {
		return 0, err
	}

	var raw string
	switch {
	case t.ColumnIndex(countColumn) >= 0 && !t.IsEmpty():
		raw = t.Rows[0][t.ColumnIndex(countColumn)]
	case t.IsEmpty():
		raw = t.Columns[0]
	default:
		err := fmt.Errorf("%w: columns %v", ErrUnrecognizedCountFormat, t.Columns)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || count < 0 {
		err := fmt.Errorf("%w: %q is not a row count", ErrUnrecognizedCountFormat, raw)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.Int("count", count))
	return count, nil
}

// TableSlice fetches the half-open row range [startRow, endRow) of a
// table. Callers are responsible for keeping the range within
// SliceCeiling, the service refuses anything larger.
func (c *Client) TableSlice(ctx context.Context, tableName string, startRow, endRow int, qualifier string) (table.Table, error) {
	ctx, span := tracer.Start(ctx, "TableSlice")
	defer span.End()
	span.SetAttributes(
		attribute.String("table", tableName),
		attribute.Int("start_row", startRow),
		attribute.Int("end_row", endRow),
	)

	url := fmt.Sprintf(
		"%s/%s/%s/rows/%d:%d/csv",
		c.BaseUrl, tableName, qualifier, startRow, endRow,
	)
	return c.readTable(ctx, url)
}

// YearQualifier builds the qualifier fragment pinning a table to one
// reporting year. The service is inconsistent about what the year
// column is called, so a one-row probe of the table decides between
// "reporting_year" and "year". A zero year means no filtering.
func (c *Client) YearQualifier(ctx context.Context, tableName string, year int) (string, error) {
	if year == 0 {
		return "", nil
	}

	ctx, span := tracer.Start(ctx, "YearQualifier")
	defer span.End()
	span.SetAttributes(
		attribute.String("table", tableName),
		attribute.Int("year", year),
	)

	url := fmt.Sprintf("%s/%s/rows/0:1/csv", c.BaseUrl, tableName)
	probe, err := c.readTable(ctx, url)
	if err != nil {
		return "", err
	}

	switch {
	case probe.ColumnIndex("reporting_year") >= 0:
		return fmt.Sprintf("reporting_year/%d", year), nil
	case probe.ColumnIndex("year") >= 0:
		return fmt.Sprintf("year/%d", year), nil
	}

	err = fmt.Errorf("%w: columns %v", ErrUnrecognizedYearColumn, probe.Columns)
	span.SetStatus(codes.Error, err.Error())
	return "", err
}
