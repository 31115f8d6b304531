package plot

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/i474232898/climate-viewer/internal/climate"
	"github.com/i474232898/climate-viewer/internal/daterange"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func writeSyntheticSeries(t *testing.T) string {
	t.Helper()

	var records []climate.Record
	for d := daterange.Date(1991, time.January, 1); !d.After(daterange.Date(2024, time.March, 15)); d = d.AddDays(1) {
		// A warming trend and yearly precipitation cycle keep anomalies non-zero.
		base := 10 + float64(d.Month) + float64(d.Year-1991)*0.05
		records = append(records, climate.Record{
			Date: d,
			Name: "TEST",
			TMax: fp(base + 5),
			TMin: fp(base - 5),
			Prcp: fp(float64(d.Day%3 + d.Year%4)),
		})
	}
	path := filepath.Join(t.TempDir(), "NOAA_TEST.csv")
	require.NoError(t, climate.WriteSeriesCSV(path, records))
	return path
}

func baseRequest(path string) climate.PlotRequest {
	name := "TEST"
	return climate.PlotRequest{
		DataFile:     path,
		StationName:  &name,
		ClimateStart: daterange.Date(1991, time.January, 1),
		ClimateEnd:   daterange.Date(2020, time.December, 31),
		FilterSize:   climate.ClimateFilterSize,
	}
}

func TestRender_WeatherSeries(t *testing.T) {
	req := baseRequest(writeSyntheticSeries(t))
	req.Kind = climate.PlotWeatherSeries
	req.Start = "2023-03-16"
	req.End = "2024-03-15"

	var buf bytes.Buffer
	require.NoError(t, NewRenderer().Render(&buf, req))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRender_MonthlyBarchart(t *testing.T) {
	path := writeSyntheticSeries(t)
	for _, info := range []climate.InfoKind{climate.InfoTemperature, climate.InfoPrecipitation} {
		req := baseRequest(path)
		req.Kind = climate.PlotMonthlyBarchart
		req.Start = "2004-03-01"
		req.End = "2024-02-29"
		req.Information = info
		req.Anomaly = true
		req.TrailingMean = climate.TrailingMean

		var buf bytes.Buffer
		require.NoError(t, NewRenderer().Render(&buf, req), info)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	}
}

func TestRender_NoDataInWindow(t *testing.T) {
	req := baseRequest(writeSyntheticSeries(t))
	req.Kind = climate.PlotWeatherSeries
	req.Start = "1950-01-01"
	req.End = "1950-12-31"

	err := NewRenderer().Render(&bytes.Buffer{}, req)

	assert.ErrorIs(t, err, ErrNoData)
}

func TestRender_MissingFile(t *testing.T) {
	req := baseRequest(filepath.Join(t.TempDir(), "missing.csv"))
	req.Kind = climate.PlotWeatherSeries
	req.Start = "2023-01-01"
	req.End = "2023-12-31"

	assert.Error(t, NewRenderer().Render(&bytes.Buffer{}, req))
}

func TestMonthlyBarchart_DrawsBarsFromZero(t *testing.T) {
	path := writeSyntheticSeries(t)
	records, err := climate.ReadSeriesCSV(path)
	require.NoError(t, err)

	req := baseRequest(path)
	req.Kind = climate.PlotMonthlyBarchart
	req.Information = climate.InfoTemperature
	req.Anomaly = true
	req.TrailingMean = climate.TrailingMean
	display := daterange.Window{Start: daterange.Date(2004, time.March, 1), End: daterange.Date(2024, time.February, 29)}
	ref := daterange.Window{Start: req.ClimateStart, End: req.ClimateEnd}

	r := NewRenderer()
	graph, err := r.monthlyBarchart(records, ref, display, req)
	require.NoError(t, err)
	require.Len(t, graph.Series, 3)

	above, ok := graph.Series[0].(chart.TimeSeries)
	require.True(t, ok)
	below, ok := graph.Series[1].(chart.TimeSeries)
	require.True(t, ok)

	// 240 months, three vertices per bar.
	require.Len(t, above.YValues, 3*240)
	for i := 0; i < len(above.YValues); i += 3 {
		assert.Equal(t, 0.0, above.YValues[i])
		assert.GreaterOrEqual(t, above.YValues[i+1], 0.0)
		assert.LessOrEqual(t, below.YValues[i+1], 0.0)
		assert.Equal(t, 0.0, above.YValues[i+2])
		assert.Equal(t, above.XValues[i], above.XValues[i+1])
	}
	assert.Equal(t, r.barWidth(240), above.Style.StrokeWidth)
}
