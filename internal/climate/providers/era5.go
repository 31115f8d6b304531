package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/climate-viewer/internal/climate"
	"github.com/i474232898/climate-viewer/internal/daterange"
)

// ERA5Provider downloads ERA5 daily reanalysis for a grid point from the Open-Meteo archive API.
type ERA5Provider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewERA5Provider(client *http.Client) *ERA5Provider {
	return &ERA5Provider{
		name:    "era5",
		baseURL: "https://archive-api.open-meteo.com/v1/archive",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newBreaker("era5"),
	}
}

func (p *ERA5Provider) Name() string {
	return p.name
}

// DownloadGriddedSeries fetches daily max/min temperature, precipitation and
// snowfall at (lat, lon) over [start, end] and writes it to outputPath.
func (p *ERA5Provider) DownloadGriddedSeries(ctx context.Context, lat, lon float64, end, start, outputPath string) error {
	if _, err := daterange.ParseDate(start); err != nil {
		return err
	}
	if _, err := daterange.ParseDate(end); err != nil {
		return err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("start_date", start)
		values.Set("end_date", end)
		values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,snowfall_sum")
		values.Set("models", "era5")
		values.Set("timezone", "UTC")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	var payload struct {
		Daily struct {
			Time     []string   `json:"time"`
			TMax     []*float64 `json:"temperature_2m_max"`
			TMin     []*float64 `json:"temperature_2m_min"`
			Precip   []*float64 `json:"precipitation_sum"`
			Snowfall []*float64 `json:"snowfall_sum"`
		} `json:"daily"`
	}

	if err := getJSON(ctx, p.httpCfg, p.circuit, buildRequest, &payload); err != nil {
		return err
	}

	d := payload.Daily
	records := make([]climate.Record, 0, len(d.Time))
	for i, ts := range d.Time {
		date, err := daterange.ParseDate(ts)
		if err != nil {
			return fmt.Errorf("era5: %w", err)
		}
		rec := climate.Record{
			Date: date,
			TMax: at(d.TMax, i),
			TMin: at(d.TMin, i),
			Prcp: at(d.Precip, i),
		}
		// Snowfall is reported in cm; station series use mm.
		if snow := at(d.Snowfall, i); snow != nil {
			rec.Snow = floatPtr(*snow * 10)
		}
		records = append(records, rec)
	}

	return climate.WriteSeriesCSV(outputPath, records)
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
