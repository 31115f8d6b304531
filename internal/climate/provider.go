package climate

import (
	"context"
)

// StationRequest describes one station download.
type StationRequest struct {
	OutputPath  string
	Start       string
	End         string
	Fields      []string
	StationName string
	StationID   string
	APIToken    string
	Concurrency int
}

// StationDownloader fetches a station series and writes it as CSV.
type StationDownloader interface {
	DownloadStationSeries(ctx context.Context, req StationRequest) error
}

// GriddedDownloader fetches a reanalysis series for a grid point and writes it as CSV.
// The end date precedes the start date in the argument list.
type GriddedDownloader interface {
	DownloadGriddedSeries(ctx context.Context, lat, lon float64, end, start, outputPath string) error
}

// StationDirectory maps human-readable station names to identifiers.
type StationDirectory interface {
	Lookup(name string) (string, bool)
}

// Store is the contract the download cache must satisfy. Saving a dataset
// invalidates every other entry for the same file.
type Store interface {
	Save(key string, ds Dataset)
	Get(key string) (Dataset, error)
}
