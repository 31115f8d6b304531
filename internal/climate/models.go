package climate

import (
	"time"

	"github.com/i474232898/climate-viewer/internal/daterange"
)

// Source identifies where a series comes from.
type Source string

const (
	SourceNOAA Source = "noaa"
	SourceERA5 Source = "era5"
)

// Label is the human-readable name shown in the source selector.
func (s Source) Label() string {
	switch s {
	case SourceNOAA:
		return "NOAA station"
	case SourceERA5:
		return "ERA5"
	default:
		return string(s)
	}
}

// InfoKind is the quantity a monthly chart shows.
type InfoKind string

const (
	InfoTemperature   InfoKind = "Temperature"
	InfoPrecipitation InfoKind = "Precipitation"
)

// Plot defaults used for every chart.
const (
	ClimateFilterSize = 7
	TrailingMean      = 12
)

// StationFields are the GHCN-Daily elements requested for station downloads.
var StationFields = []string{"TMIN", "TMAX", "PRCP", "SNOW"}

// Inputs are the control values of one interaction.
type Inputs struct {
	Source          Source
	ReferencePeriod string
	Granularity     daterange.Granularity
	StationName     string
	Coordinates     string
	Info            InfoKind
	Start           *daterange.CalendarDate
	End             *daterange.CalendarDate
	StartPressed    bool
}

// State is carried from one interaction to the next.
type State struct {
	ProcessStarted bool `json:"processStarted"`
}

// Dataset is a downloaded series on disk.
type Dataset struct {
	File        string    `json:"file"`
	Source      Source    `json:"source"`
	StationName *string   `json:"stationName"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// PlotKind selects the chart type.
type PlotKind string

const (
	PlotWeatherSeries   PlotKind = "daily"
	PlotMonthlyBarchart PlotKind = "monthly"
)

// PlotRequest is everything the plotting collaborator needs for one figure.
type PlotRequest struct {
	Kind         PlotKind               `json:"kind"`
	DataFile     string                 `json:"dataFile"`
	StationName  *string                `json:"stationName"`
	ClimateStart daterange.CalendarDate `json:"climateStart"`
	ClimateEnd   daterange.CalendarDate `json:"climateEnd"`
	FilterSize   int                    `json:"filterSize"`
	Start        string                 `json:"start"`
	End          string                 `json:"end"`
	Information  InfoKind               `json:"information,omitempty"`
	Anomaly      bool                   `json:"anomaly"`
	TrailingMean int                    `json:"trailingMean,omitempty"`
}

// View is the result of one interaction.
type View struct {
	Resolution daterange.Resolution `json:"resolution"`
	State      State                `json:"state"`
	Dataset    *Dataset             `json:"dataset,omitempty"`
	Plots      []PlotRequest        `json:"plots,omitempty"`
}
