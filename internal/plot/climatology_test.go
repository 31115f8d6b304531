package plot

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/climate-viewer/internal/climate"
	"github.com/i474232898/climate-viewer/internal/daterange"
)

func fp(v float64) *float64 { return &v }

func TestDayIndex(t *testing.T) {
	assert.Equal(t, 0, dayIndex(daterange.Date(2023, time.January, 1)))
	assert.Equal(t, 59, dayIndex(daterange.Date(2024, time.February, 29)))
	assert.Equal(t, 60, dayIndex(daterange.Date(2023, time.March, 1)))
	assert.Equal(t, 365, dayIndex(daterange.Date(2023, time.December, 31)))
}

func TestDailyNormals(t *testing.T) {
	ref := daterange.Window{Start: daterange.Date(2000, time.January, 1), End: daterange.Date(2001, time.December, 31)}
	records := []climate.Record{
		{Date: daterange.Date(2000, time.June, 1), TMax: fp(20), TMin: fp(10)},
		{Date: daterange.Date(2001, time.June, 1), TMax: fp(30), TMin: fp(12)},
		// outside the reference window
		{Date: daterange.Date(2010, time.June, 1), TMax: fp(90), TMin: fp(90)},
	}

	tmax, tmin := DailyNormals(records, ref, 1)

	i := dayIndex(daterange.Date(2001, time.June, 1))
	assert.Equal(t, 25.0, tmax[i])
	assert.Equal(t, 11.0, tmin[i])
	assert.True(t, math.IsNaN(tmax[i+1]))
}

func TestSmoothCircular_WrapsYearEnd(t *testing.T) {
	values := make([]float64, daysPerYear)
	for i := range values {
		values[i] = math.NaN()
	}
	values[0] = 3
	values[daysPerYear-1] = 1

	out := smoothCircular(values, 3)

	assert.Equal(t, 2.0, out[0])
	assert.Equal(t, 2.0, out[daysPerYear-1])
	assert.Equal(t, 3.0, out[1])
	assert.True(t, math.IsNaN(out[100]))
}

func TestMonthlyValues(t *testing.T) {
	records := []climate.Record{
		{Date: daterange.Date(2020, time.January, 1), TMax: fp(4), TMin: fp(0), Prcp: fp(1)},
		{Date: daterange.Date(2020, time.January, 2), TMax: fp(6), TMin: fp(2), Prcp: fp(2.5)},
		{Date: daterange.Date(2020, time.February, 1), TMax: fp(10)},
	}

	temp := MonthlyValues(records, climate.InfoTemperature)
	require.Len(t, temp, 1)
	assert.Equal(t, 3.0, temp[0].Value)

	prcp := MonthlyValues(records, climate.InfoPrecipitation)
	require.Len(t, prcp, 1)
	assert.Equal(t, 3.5, prcp[0].Value)
	assert.Equal(t, daterange.Date(2020, time.January, 1), prcp[0].Month)
}

func TestMonthlyAnomalies(t *testing.T) {
	var records []climate.Record
	for year, v := range map[int]float64{1990: 1, 1991: 3, 2020: 7} {
		records = append(records, climate.Record{Date: daterange.Date(year, time.March, 10), Prcp: fp(v)})
	}
	ref := daterange.Window{Start: daterange.Date(1990, time.January, 1), End: daterange.Date(1991, time.December, 31)}
	display := daterange.Window{Start: daterange.Date(2020, time.March, 15), End: daterange.Date(2020, time.December, 31)}

	got := MonthlyAnomalies(records, climate.InfoPrecipitation, ref, display)

	require.Len(t, got, 1)
	assert.Equal(t, daterange.Date(2020, time.March, 1), got[0].Month)
	assert.Equal(t, 5.0, got[0].Value)
}

func TestTrailingMean(t *testing.T) {
	out := TrailingMean([]float64{1, 2, 3, 4, 5}, 3)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.Equal(t, []float64{2, 3, 4}, out[2:])
}

func TestTrailingMean_WindowOfOne(t *testing.T) {
	assert.Equal(t, []float64{1, 2}, TrailingMean([]float64{1, 2}, 1))
}
