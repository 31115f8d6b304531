package climate

import (
	"math"
	"strconv"
	"strings"

	"github.com/i474232898/climate-viewer/internal/daterange"
)

// Coordinates is a parsed "lat,lon" field. The text forms are kept
// verbatim for building file names.
type Coordinates struct {
	Lat     float64
	Lon     float64
	LatText string
	LonText string
}

// ParseCoordinates parses "LAT, LON". Spaces are ignored.
func ParseCoordinates(s string) (Coordinates, error) {
	parts := strings.Split(strings.ReplaceAll(s, " ", ""), ",")
	if len(parts) != 2 {
		return Coordinates{}, &daterange.FormatError{Field: "coordinates", Value: s, Reason: "expected LAT,LON"}
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Coordinates{}, &daterange.FormatError{Field: "coordinates", Value: s, Reason: "latitude is not a number"}
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Coordinates{}, &daterange.FormatError{Field: "coordinates", Value: s, Reason: "longitude is not a number"}
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return Coordinates{}, &daterange.FormatError{Field: "coordinates", Value: s, Reason: "not a finite number"}
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Coordinates{}, &daterange.FormatError{Field: "coordinates", Value: s, Reason: "out of range"}
	}
	return Coordinates{Lat: lat, Lon: lon, LatText: parts[0], LonText: parts[1]}, nil
}
