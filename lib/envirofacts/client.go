package envirofacts

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"envirofetch/lib/table"
	"envirofetch/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/envirofacts")

// DefaultBaseUrl is the Envirofacts data service root used by GHGRP
// tables, see https://www.epa.gov/enviro/web-services#table
const DefaultBaseUrl = "https://enviro.epa.gov/enviro/efservice"

// SliceCeiling is the largest row range the service accepts per
// request, bigger requests are refused server-side.
const SliceCeiling = 10000

var (
	ErrUnreachableResource     = fmt.Errorf("resource did not return a successful response")
	ErrUnrecognizedCountFormat = fmt.Errorf("count response format not recognized")
	ErrUnrecognizedYearColumn  = fmt.Errorf("column name for reporting year not recognized")
	// ErrNoData marks a query that matched zero rows. This is distinct
	// from a table that exists but is empty: no schema is known, so no
	// table value accompanies it.
	ErrNoData = fmt.Errorf("query matched no data")
)

type Client struct {
	BaseUrl string
	Http    *resty.Client
}

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// defaults to 30 seconds
	Timeout time.Duration
}

func NewClient(opts ClientOptions) *Client {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("user-agent", "envirofetch")

	telemetry.InstrumentResty(client, "envirofacts/http")

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}
}

// readTable fetches a url and decodes the body as a CSV document with
// a header row. Any non-200 status is reported as unreachable, there
// is no separate existence probe and no retry.
func (c *Client) readTable(ctx context.Context, url string) (table.Table, error) {
	ctx, span := tracer.Start(ctx, "readTable")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return table.Table{}, err
	}
	if res.StatusCode() != http.StatusOK {
		err := fmt.Errorf("%w: %s returned status %d", ErrUnreachableResource, url, res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return table.Table{}, err
	}

	t, err := table.ReadCSV(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode csv body")
		return table.Table{}, fmt.Errorf("decode %s: %w", url, err)
	}
	return t, nil
}
