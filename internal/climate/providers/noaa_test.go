package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/climate-viewer/internal/climate"
	"github.com/i474232898/climate-viewer/internal/daterange"
)

var testBackoff = BackoffConfig{MaxRetries: 1, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func newTestNOAA(t *testing.T, handler http.HandlerFunc) *NOAAProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewNOAAProvider(srv.Client())
	p.baseURL = srv.URL
	p.httpCfg.Backoff = testBackoff
	p.chunkDays = 10
	return p
}

func TestSplitWindow(t *testing.T) {
	w := daterange.Window{
		Start: daterange.Date(2024, time.January, 1),
		End:   daterange.Date(2024, time.January, 25),
	}

	chunks := splitWindow(w, 10)

	require.Len(t, chunks, 3)
	assert.Equal(t, daterange.Date(2024, time.January, 10), chunks[0].End)
	assert.Equal(t, daterange.Date(2024, time.January, 11), chunks[1].Start)
	assert.Equal(t, daterange.Date(2024, time.January, 25), chunks[2].End)
}

func TestNOAADownloadStationSeries(t *testing.T) {
	var calls atomic.Int32
	p := newTestNOAA(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "secret", r.Header.Get("token"))
		assert.Equal(t, "GHCND:USW00094728", r.URL.Query().Get("stationid"))
		assert.ElementsMatch(t, []string{"TMIN", "TMAX", "PRCP", "SNOW"}, r.URL.Query()["datatypeid"])

		start := r.URL.Query().Get("startdate")
		body := map[string]any{
			"metadata": map[string]any{"resultset": map[string]any{"offset": 1, "count": 3, "limit": 1000}},
			"results": []map[string]any{
				{"date": start + "T00:00:00", "datatype": "TMAX", "station": "GHCND:USW00094728", "value": 10.5},
				{"date": start + "T00:00:00", "datatype": "TMIN", "station": "GHCND:USW00094728", "value": 1.5},
				{"date": start + "T00:00:00", "datatype": "PRCP", "station": "GHCND:USW00094728", "value": 0},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body) //nolint:errcheck
	})

	out := filepath.Join(t.TempDir(), "NOAA_USW00094728.csv")
	err := p.DownloadStationSeries(context.Background(), climate.StationRequest{
		OutputPath:  out,
		Start:       "2024-01-01",
		End:         "2024-01-25",
		Fields:      climate.StationFields,
		StationName: "NEW YORK CNTRL PK TWR",
		StationID:   "USW00094728",
		APIToken:    "secret",
		Concurrency: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())

	records, err := climate.ReadSeriesCSV(out)
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, daterange.Date(2024, time.January, 1), first.Date)
	assert.Equal(t, "NEW YORK CNTRL PK TWR", first.Name)
	require.NotNil(t, first.TMax)
	assert.Equal(t, 10.5, *first.TMax)
	assert.Nil(t, first.Snow)
	assert.Equal(t, daterange.Date(2024, time.January, 21), records[2].Date)
}

func TestNOAADownloadStationSeries_ServerError(t *testing.T) {
	p := newTestNOAA(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := p.DownloadStationSeries(context.Background(), climate.StationRequest{
		OutputPath:  filepath.Join(t.TempDir(), "out.csv"),
		Start:       "2024-01-01",
		End:         "2024-01-05",
		Fields:      climate.StationFields,
		StationID:   "USW00094728",
		APIToken:    "secret",
		Concurrency: 2,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errServerError)
}

func TestNOAADownloadStationSeries_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	p := newTestNOAA(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	err := p.DownloadStationSeries(context.Background(), climate.StationRequest{
		OutputPath:  filepath.Join(t.TempDir(), "out.csv"),
		Start:       "2024-01-01",
		End:         "2024-01-05",
		StationID:   "USW00094728",
		APIToken:    "secret",
		Concurrency: 1,
	})
	assert.ErrorIs(t, err, errUnexpected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNOAADownloadStationSeries_Truncated(t *testing.T) {
	p := newTestNOAA(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"metadata":{"resultset":{"offset":1,"count":5000,"limit":1000}},"results":[]}`)) //nolint:errcheck
	})

	err := p.DownloadStationSeries(context.Background(), climate.StationRequest{
		OutputPath:  filepath.Join(t.TempDir(), "out.csv"),
		Start:       "2024-01-01",
		End:         "2024-01-05",
		StationID:   "USW00094728",
		APIToken:    "secret",
		Concurrency: 1,
	})
	assert.ErrorContains(t, err, "chunk too large")
}

func TestNOAADownloadStationSeries_RequiresToken(t *testing.T) {
	p := NewNOAAProvider(http.DefaultClient)

	err := p.DownloadStationSeries(context.Background(), climate.StationRequest{Start: "2024-01-01", End: "2024-01-02"})
	assert.Error(t, err)
}
