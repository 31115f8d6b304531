package geocode

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"
)

// ErrNotConfigured is returned when no API key was supplied.
var ErrNotConfigured = errors.New("geocoder api key is not configured")

// lookupFunc matches geocoder.Geocoding.
type lookupFunc func(geocoder.Address) (geocoder.Location, error)

// Google resolves place names to coordinates with the Google Geocoding API.
type Google struct {
	apiKey string
	lookup lookupFunc
}

// geocoder keeps its key in a package variable.
var keyMu sync.Mutex

func NewGoogle(apiKey string) *Google {
	return &Google{apiKey: apiKey, lookup: geocoder.Geocoding}
}

// Geocode returns the latitude and longitude of a city.
func (g *Google) Geocode(city, country string) (float64, float64, error) {
	if g.apiKey == "" {
		return 0, 0, ErrNotConfigured
	}

	keyMu.Lock()
	geocoder.ApiKey = g.apiKey
	loc, err := g.lookup(geocoder.Address{City: city, Country: country})
	keyMu.Unlock()
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %s, %s: %w", city, country, err)
	}
	return loc.Latitude, loc.Longitude, nil
}
