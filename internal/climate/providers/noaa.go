package providers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/climate-viewer/internal/climate"
	"github.com/i474232898/climate-viewer/internal/daterange"
)

const (
	// noaaPageLimit is the largest page the CDO API returns.
	noaaPageLimit = 1000
	// noaaChunkDays keeps four daily elements per chunk under one page.
	noaaChunkDays = 180
)

// NOAAProvider downloads GHCN-Daily station series from the NCEI Climate Data Online API.
type NOAAProvider struct {
	name      string
	baseURL   string
	chunkDays int
	httpCfg   HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
}

func NewNOAAProvider(client *http.Client) *NOAAProvider {
	return &NOAAProvider{
		name:      "noaa",
		baseURL:   "https://www.ncei.noaa.gov/cdo-web/api/v2/data",
		chunkDays: noaaChunkDays,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newBreaker("noaa"),
	}
}

func (p *NOAAProvider) Name() string {
	return p.name
}

type noaaResponse struct {
	Metadata struct {
		ResultSet struct {
			Offset int `json:"offset"`
			Count  int `json:"count"`
			Limit  int `json:"limit"`
		} `json:"resultset"`
	} `json:"metadata"`
	Results []struct {
		Date     string  `json:"date"`
		DataType string  `json:"datatype"`
		Station  string  `json:"station"`
		Value    float64 `json:"value"`
	} `json:"results"`
}

// DownloadStationSeries fetches req.Fields for the station over [req.Start, req.End]
// with req.Concurrency parallel workers and writes the merged series to req.OutputPath.
func (p *NOAAProvider) DownloadStationSeries(ctx context.Context, req climate.StationRequest) error {
	if req.APIToken == "" {
		return fmt.Errorf("noaa api token is not configured")
	}
	start, err := daterange.ParseDate(req.Start)
	if err != nil {
		return err
	}
	end, err := daterange.ParseDate(req.End)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("noaa: end %s is before start %s", req.End, req.Start)
	}

	workers := req.Concurrency
	if workers <= 0 {
		workers = 1
	}

	chunks := splitWindow(daterange.Window{Start: start, End: end}, p.chunkDays)
	log.Printf("DEBUG: noaa download %s: %d chunks, %d workers", req.StationID, len(chunks), workers)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		byDate   = make(map[daterange.CalendarDate]*climate.Record)
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan daterange.Window)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range jobs {
				payload, err := p.fetchChunk(ctx, req, w)

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("chunk %s..%s: %w", w.Start, w.End, err)
						cancel()
					}
					mu.Unlock()
					continue
				}
				mergeNOAA(byDate, payload, req.StationName)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, w := range chunks {
		select {
		case jobs <- w:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return climate.WriteSeriesCSV(req.OutputPath, sortedRecords(byDate))
}

func (p *NOAAProvider) fetchChunk(ctx context.Context, req climate.StationRequest, w daterange.Window) (noaaResponse, error) {
	stationID := req.StationID
	if !strings.HasPrefix(stationID, "GHCND:") {
		stationID = "GHCND:" + stationID
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("datasetid", "GHCND")
		values.Set("stationid", stationID)
		values.Set("startdate", daterange.FormatDate(w.Start))
		values.Set("enddate", daterange.FormatDate(w.End))
		values.Set("units", "metric")
		values.Set("limit", strconv.Itoa(noaaPageLimit))
		for _, f := range req.Fields {
			values.Add("datatypeid", f)
		}

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		r, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		r.Header.Set("token", req.APIToken)
		return r, nil
	}

	var payload noaaResponse
	if err := getJSON(ctx, p.httpCfg, p.circuit, buildRequest, &payload); err != nil {
		return noaaResponse{}, err
	}
	if rs := payload.Metadata.ResultSet; rs.Count > len(payload.Results) {
		return noaaResponse{}, fmt.Errorf("noaa returned %d of %d results; chunk too large", len(payload.Results), rs.Count)
	}
	return payload, nil
}

func mergeNOAA(byDate map[daterange.CalendarDate]*climate.Record, payload noaaResponse, name string) {
	for _, r := range payload.Results {
		ts, err := time.Parse("2006-01-02T15:04:05", r.Date)
		if err != nil {
			log.Printf("DEBUG: noaa: skipping result with bad date %q", r.Date)
			continue
		}
		d := daterange.DateOf(ts)
		rec, ok := byDate[d]
		if !ok {
			rec = &climate.Record{Date: d, Name: name}
			byDate[d] = rec
		}
		switch r.DataType {
		case "TMAX":
			rec.TMax = floatPtr(r.Value)
		case "TMIN":
			rec.TMin = floatPtr(r.Value)
		case "PRCP":
			rec.Prcp = floatPtr(r.Value)
		case "SNOW":
			rec.Snow = floatPtr(r.Value)
		}
	}
}

func sortedRecords(byDate map[daterange.CalendarDate]*climate.Record) []climate.Record {
	out := make([]climate.Record, 0, len(byDate))
	for _, r := range byDate {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// splitWindow cuts w into consecutive windows of at most days days.
func splitWindow(w daterange.Window, days int) []daterange.Window {
	if days <= 0 {
		return []daterange.Window{w}
	}
	var out []daterange.Window
	for start := w.Start; !start.After(w.End); {
		end := daterange.MinDate(start.AddDays(days-1), w.End)
		out = append(out, daterange.Window{Start: start, End: end})
		start = end.AddDays(1)
	}
	return out
}
