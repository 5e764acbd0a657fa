package envirofacts

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"envirofetch/lib/table"
	"envirofetch/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSliceBounds(t *testing.T) {
	testCases := []struct {
		total    int
		expected []int
	}{
		{total: 0, expected: []int{0}},
		{total: 1, expected: []int{0, 1}},
		{total: 9999, expected: []int{0, 9999}},
		{total: 10000, expected: []int{0, 10000}},
		{total: 25000, expected: []int{0, 10000, 20000, 25000}},
	}
	for _, tc := range testCases {
		got := sliceBounds(tc.total)
		if diff := cmp.Diff(tc.expected, got); diff != "" {
			t.Fatalf("bounds for %d (-want +got):\n%s", tc.total, diff)
		}
	}
}

// fakeService serves the Envirofacts url scheme for a single table.
type fakeService struct {
	t *testing.T

	columns []string
	rows    [][]string
	// when true, every slice after the first starts one row early,
	// repeating the last row of the previous slice
	overlapSlices bool
	countBody     string

	probeCalls  int
	countCalls  int
	countPaths  []string
	sliceRanges [][2]int
	slicePaths  []string
}

func (s *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")

	switch {
	// {table}/rows/0:1/csv, the year probe carries no qualifier
	case len(parts) == 4 && parts[1] == "rows":
		s.probeCalls++
		s.writeSlice(w, 0, 1)

	case strings.HasSuffix(r.URL.Path, "/count/csv"):
		s.countCalls++
		s.countPaths = append(s.countPaths, r.URL.Path)
		body := s.countBody
		if body == "" {
			body = fmt.Sprintf("TOTALQUERYRESULTS\n%d\n", len(s.rows))
		}
		fmt.Fprint(w, body)

	case strings.HasSuffix(r.URL.Path, "/csv") && len(parts) >= 2 && parts[len(parts)-3] == "rows":
		start, end, err := parseRange(parts[len(parts)-2])
		if err != nil {
			s.t.Errorf("bad row range in %s: %s", r.URL.Path, err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.sliceRanges = append(s.sliceRanges, [2]int{start, end})
		s.slicePaths = append(s.slicePaths, r.URL.Path)
		if s.overlapSlices && start > 0 {
			start--
		}
		s.writeSlice(w, start, end)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *fakeService) writeSlice(w http.ResponseWriter, start, end int) {
	if end > len(s.rows) {
		end = len(s.rows)
	}
	if start > end {
		start = end
	}
	tbl := table.Table{Columns: s.columns, Rows: s.rows[start:end]}
	err := tbl.WriteCSV(w)
	if err != nil {
		s.t.Error(err)
	}
}

func parseRange(s string) (int, int, error) {
	start, end, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, fmt.Errorf("missing ':' in %q", s)
	}
	startRow, err := strconv.Atoi(start)
	if err != nil {
		return 0, 0, err
	}
	endRow, err := strconv.Atoi(end)
	if err != nil {
		return 0, 0, err
	}
	return startRow, endRow, nil
}

func newTestClient(t *testing.T, service *fakeService) *Client {
	cleanup := telemetry.SetupForTesting(t, "test:lib/envirofacts")
	t.Cleanup(cleanup)

	server := httptest.NewServer(service)
	t.Cleanup(server.Close)

	return NewClient(ClientOptions{BaseUrl: server.URL})
}

func generateRows(n int, yearValue string) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{strconv.Itoa(i), "facility-" + strconv.Itoa(i), yearValue}
	}
	return rows
}

func TestRowCount(t *testing.T) {
	service := &fakeService{
		t:       t,
		columns: []string{"id", "FACILITY", "YEAR"},
		rows:    generateRows(42, "2020"),
	}
	client := newTestClient(t, service)
	ctx := context.Background()

	count, err := client.RowCount(ctx, "SOME_TABLE", "")
	require.NoError(t, err)
	require.Equal(t, 42, count)
	// an empty qualifier must leave the double slash in place
	require.Equal(t, []string{"/SOME_TABLE//count/csv"}, service.countPaths)

	count, err = client.RowCount(ctx, "SOME_TABLE", "year/2020")
	require.NoError(t, err)
	require.Equal(t, 42, count)
	require.Equal(t, "/SOME_TABLE/year/2020/count/csv", service.countPaths[1])
}

func TestRowCountHeaderOnlyShape(t *testing.T) {
	// some tables serve the count as the sole header with no rows
	service := &fakeService{t: t, countBody: "0\n"}
	client := newTestClient(t, service)

	count, err := client.RowCount(context.Background(), "EMPTY_TABLE", "")
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestRowCountUnrecognizedShape(t *testing.T) {
	service := &fakeService{t: t, countBody: "FACILITY,YEAR\nacme,2020\n"}
	client := newTestClient(t, service)

	_, err := client.RowCount(context.Background(), "WEIRD_TABLE", "")
	require.ErrorIs(t, err, ErrUnrecognizedCountFormat)
}

func TestYearQualifier(t *testing.T) {
	testCases := []struct {
		name      string
		columns   []string
		qualifier string
		err       error
	}{
		{
			name:      "reporting year column",
			columns:   []string{"FACILITY", "Reporting_Year"},
			qualifier: "reporting_year/2021",
		},
		{
			name:      "bare year column",
			columns:   []string{"FACILITY", "YEAR"},
			qualifier: "year/2021",
		},
		{
			name:    "no year column",
			columns: []string{"FACILITY", "STATE"},
			err:     ErrUnrecognizedYearColumn,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service := &fakeService{
				t:       t,
				columns: tc.columns,
				rows:    [][]string{make([]string, len(tc.columns))},
			}
			client := newTestClient(t, service)

			qualifier, err := client.YearQualifier(context.Background(), "T", 2021)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.qualifier, qualifier)
		})
	}
}

func TestYearQualifierZeroYear(t *testing.T) {
	// no probe should happen without a target year
	service := &fakeService{t: t}
	client := newTestClient(t, service)

	qualifier, err := client.YearQualifier(context.Background(), "T", 0)
	require.NoError(t, err)
	require.Equal(t, "", qualifier)
	require.Equal(t, 0, service.probeCalls)
}

func TestUnreachableResource(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/envirofacts")
	t.Cleanup(cleanup)

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)
	client := NewClient(ClientOptions{BaseUrl: server.URL})

	_, err := client.TableSlice(context.Background(), "NO_SUCH_TABLE", 0, 10, "")
	require.ErrorIs(t, err, ErrUnreachableResource)
}

func TestFetchTable(t *testing.T) {
	columns := []string{"id", "FACILITY", "Reporting_Year"}
	service := &fakeService{
		t:             t,
		columns:       columns,
		rows:          generateRows(12000, "2020"),
		overlapSlices: true,
	}
	client := newTestClient(t, service)

	result, err := client.FetchTable(context.Background(), FetchOptions{
		Table: "C_FUEL_LEVEL_INFORMATION",
		Year:  2020,
	})
	require.NoError(t, err)

	// one year probe, one count, two slices
	require.Equal(t, 1, service.probeCalls)
	require.Equal(t, 1, service.countCalls)
	require.Equal(t, [][2]int{{0, 10000}, {10000, 12000}}, service.sliceRanges)
	for _, path := range service.slicePaths {
		require.Contains(t, path, "/reporting_year/2020/")
	}

	// the overlapping row served at the slice boundary must be gone
	require.Equal(t, columns, result.Columns)
	require.Len(t, result.Rows, 12000)
}

func TestFetchTableExplicitRows(t *testing.T) {
	service := &fakeService{
		t:       t,
		columns: []string{"id", "FACILITY", "YEAR"},
		rows:    generateRows(100, "2019"),
	}
	client := newTestClient(t, service)

	result, err := client.FetchTable(context.Background(), FetchOptions{
		Table: "V_GHG_EMITTER_FACILITIES",
		Rows:  20,
	})
	require.NoError(t, err)

	// an explicit row total skips both the probe and the count
	require.Equal(t, 0, service.probeCalls)
	require.Equal(t, 0, service.countCalls)
	require.Equal(t, [][2]int{{0, 20}}, service.sliceRanges)
	require.Len(t, result.Rows, 20)
}

func TestFetchTableNoData(t *testing.T) {
	service := &fakeService{
		t:       t,
		columns: []string{"FACILITY", "YEAR"},
		rows:    [][]string{{"acme", "2018"}},
		// zero matching rows, served in the headerless shape
		countBody: "0\n",
	}
	client := newTestClient(t, service)

	_, err := client.FetchTable(context.Background(), FetchOptions{
		Table: "D_FUEL_LEVEL_INFORMATION",
		Year:  2018,
	})
	require.ErrorIs(t, err, ErrNoData)
	require.Equal(t, 0, len(service.sliceRanges))
}

func TestFetchTableNamesFailingTable(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/envirofacts")
	t.Cleanup(cleanup)

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)
	client := NewClient(ClientOptions{BaseUrl: server.URL})

	_, err := client.FetchTable(context.Background(), FetchOptions{
		Table: "BROKEN_TABLE",
		Year:  2020,
	})
	require.ErrorIs(t, err, ErrUnreachableResource)
	require.Contains(t, err.Error(), "BROKEN_TABLE")
}
