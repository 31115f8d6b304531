package climate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/i474232898/climate-viewer/internal/daterange"
	"github.com/i474232898/climate-viewer/internal/observability"
)

var (
	// ErrUnknownStation is returned when a station name is not in the directory.
	ErrUnknownStation = errors.New("unknown station")
	// ErrUnknownSource is returned for a data source other than NOAA or ERA5.
	ErrUnknownSource = errors.New("unknown data source")
	// ErrDownloadFailed wraps a download collaborator failure that was not recovered.
	ErrDownloadFailed = errors.New("download failed")
)

// Options configures a Service.
type Options struct {
	DataDir     string
	APIToken    string
	Concurrency int // station download workers for the first attempt
}

// Service is the single composition point: it resolves dates, gates work on
// the process-started flag and drives the download collaborators.
type Service struct {
	resolver *daterange.Resolver
	stations StationDirectory
	noaa     StationDownloader
	era5     GriddedDownloader
	store    Store
	metrics  *observability.Metrics
	opts     Options
}

// NewService creates a new Service.
func NewService(
	resolver *daterange.Resolver,
	stations StationDirectory,
	noaa StationDownloader,
	era5 GriddedDownloader,
	store Store,
	metrics *observability.Metrics,
	opts Options,
) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Service{
		resolver: resolver,
		stations: stations,
		noaa:     noaa,
		era5:     era5,
		store:    store,
		metrics:  metrics,
		opts:     opts,
	}
}

// Resolver exposes the date resolver used by the service.
func (s *Service) Resolver() *daterange.Resolver {
	return s.resolver
}

// Resolve derives the date windows for the given inputs.
func (s *Service) Resolve(in Inputs) (daterange.Resolution, error) {
	return s.resolver.Resolve(daterange.Request{
		Granularity:     in.Granularity,
		ReferencePeriod: in.ReferencePeriod,
		Start:           in.Start,
		End:             in.End,
	})
}

// Render handles one interaction. Data is only loaded and plots only
// requested once the process has been started, on this or an earlier call.
func (s *Service) Render(ctx context.Context, state State, in Inputs) (State, View, error) {
	res, err := s.Resolve(in)
	if err != nil {
		return state, View{State: state}, err
	}

	if in.StartPressed {
		state.ProcessStarted = true
	}

	view := View{Resolution: res, State: state}
	if !state.ProcessStarted {
		return state, view, nil
	}

	ds, err := s.Load(ctx, in, res)
	if err != nil {
		return state, view, err
	}

	view.Dataset = &ds
	view.Plots = PlotRequests(in.Granularity, ds, res)
	return state, view, nil
}

// Load downloads the series for the resolved download window, or returns a
// cached dataset covering the same file and window.
func (s *Service) Load(ctx context.Context, in Inputs, res daterange.Resolution) (Dataset, error) {
	switch in.Source {
	case SourceNOAA:
		return s.loadStation(ctx, in.StationName, res)
	case SourceERA5:
		return s.loadGridded(ctx, in.Coordinates, res)
	default:
		return Dataset{}, fmt.Errorf("%w: %q", ErrUnknownSource, in.Source)
	}
}

func (s *Service) loadStation(ctx context.Context, name string, res daterange.Resolution) (Dataset, error) {
	id, ok := s.stations.Lookup(name)
	if !ok {
		return Dataset{}, fmt.Errorf("%w: %q", ErrUnknownStation, name)
	}

	file := filepath.Join(s.opts.DataDir, fmt.Sprintf("NOAA_%s.csv", id))
	key := cacheKey(file, res)
	if ds, ok := s.cached(key); ok {
		return ds, nil
	}

	req := StationRequest{
		OutputPath:  file,
		Start:       res.DownloadStart,
		End:         res.DownloadEnd,
		Fields:      StationFields,
		StationName: name,
		StationID:   id,
		APIToken:    s.opts.APIToken,
		Concurrency: s.opts.Concurrency,
	}

	began := time.Now()
	err := s.noaa.DownloadStationSeries(ctx, req)
	if err != nil && ctx.Err() == nil {
		log.Printf("ERROR: station %s download failed with %d workers: %v; retrying with 1", id, req.Concurrency, err)
		s.metrics.DownloadRetries.Inc()
		req.Concurrency = 1
		err = s.noaa.DownloadStationSeries(ctx, req)
	}
	s.observe(SourceNOAA, began, err)
	if err != nil {
		return Dataset{}, fmt.Errorf("%w: station %s: %v", ErrDownloadFailed, id, err)
	}

	stationName := name
	ds := Dataset{
		File:        file,
		Source:      SourceNOAA,
		StationName: &stationName,
		Start:       res.DownloadStart,
		End:         res.DownloadEnd,
		FetchedAt:   time.Now().UTC(),
	}
	s.store.Save(key, ds)
	return ds, nil
}

func (s *Service) loadGridded(ctx context.Context, coordinates string, res daterange.Resolution) (Dataset, error) {
	c, err := ParseCoordinates(coordinates)
	if err != nil {
		return Dataset{}, err
	}

	file := filepath.Join(s.opts.DataDir, fmt.Sprintf("ERA5_%s_%s.csv", c.LatText, c.LonText))
	key := cacheKey(file, res)
	if ds, ok := s.cached(key); ok {
		return ds, nil
	}

	log.Printf("INFO: downloading ERA5 series for %s,%s (%s to %s); this may take a few minutes",
		strconv.FormatFloat(c.Lat, 'f', -1, 64), strconv.FormatFloat(c.Lon, 'f', -1, 64), res.DownloadStart, res.DownloadEnd)

	began := time.Now()
	err = s.era5.DownloadGriddedSeries(ctx, c.Lat, c.Lon, res.DownloadEnd, res.DownloadStart, file)
	s.observe(SourceERA5, began, err)
	if err != nil {
		return Dataset{}, fmt.Errorf("%w: era5 %s,%s: %v", ErrDownloadFailed, c.LatText, c.LonText, err)
	}

	ds := Dataset{
		File:      file,
		Source:    SourceERA5,
		Start:     res.DownloadStart,
		End:       res.DownloadEnd,
		FetchedAt: time.Now().UTC(),
	}
	s.store.Save(key, ds)
	return ds, nil
}

// cached returns a stored dataset whose file is still on disk.
func (s *Service) cached(key string) (Dataset, bool) {
	ds, err := s.store.Get(key)
	if err != nil {
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Dataset{}, false
	}
	if _, err := os.Stat(ds.File); err != nil {
		log.Printf("DEBUG: cached series %s is gone from disk: %v", ds.File, err)
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Dataset{}, false
	}
	s.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return ds, true
}

func (s *Service) observe(src Source, began time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.Downloads.WithLabelValues(string(src), outcome).Inc()
	s.metrics.DownloadDuration.WithLabelValues(string(src)).Observe(time.Since(began).Seconds())
}

func cacheKey(file string, res daterange.Resolution) string {
	return file + "|" + res.DownloadStart + "|" + res.DownloadEnd
}

// PlotRequests lists the figures for a granularity. Daily products get one
// weather series; monthly products get temperature and precipitation
// anomaly bar charts.
func PlotRequests(g daterange.Granularity, ds Dataset, res daterange.Resolution) []PlotRequest {
	base := PlotRequest{
		DataFile:     ds.File,
		StationName:  ds.StationName,
		ClimateStart: res.Reference.Start,
		ClimateEnd:   res.Reference.End,
		FilterSize:   ClimateFilterSize,
		Start:        res.DisplayStart,
		End:          res.DisplayEnd,
	}

	if g != daterange.Monthly {
		base.Kind = PlotWeatherSeries
		return []PlotRequest{base}
	}

	plots := make([]PlotRequest, 0, 2)
	for _, info := range []InfoKind{InfoTemperature, InfoPrecipitation} {
		p := base
		p.Kind = PlotMonthlyBarchart
		p.Information = info
		p.Anomaly = true
		p.TrailingMean = TrailingMean
		plots = append(plots, p)
	}
	return plots
}
