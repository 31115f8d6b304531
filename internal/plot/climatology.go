package plot

import (
	"math"
	"sort"
	"time"

	"github.com/i474232898/climate-viewer/internal/climate"
	"github.com/i474232898/climate-viewer/internal/daterange"
)

// daysPerYear covers Feb 29, so every calendar day has a slot.
const daysPerYear = 366

// dayIndex maps a date to its slot in a leap year.
func dayIndex(d daterange.CalendarDate) int {
	return time.Date(2000, d.Month, d.Day, 0, 0, 0, 0, time.UTC).YearDay() - 1
}

func within(d daterange.CalendarDate, w daterange.Window) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// DailyNormals returns the day-of-year mean of TMAX and TMIN over the
// reference window, smoothed by a centered moving average of filterSize
// days. Days without data are NaN.
func DailyNormals(records []climate.Record, ref daterange.Window, filterSize int) (tmax, tmin []float64) {
	var (
		sumMax, sumMin [daysPerYear]float64
		nMax, nMin     [daysPerYear]int
	)
	for _, r := range records {
		if !within(r.Date, ref) {
			continue
		}
		i := dayIndex(r.Date)
		if r.TMax != nil {
			sumMax[i] += *r.TMax
			nMax[i]++
		}
		if r.TMin != nil {
			sumMin[i] += *r.TMin
			nMin[i]++
		}
	}

	tmax = make([]float64, daysPerYear)
	tmin = make([]float64, daysPerYear)
	for i := 0; i < daysPerYear; i++ {
		tmax[i] = mean(sumMax[i], nMax[i])
		tmin[i] = mean(sumMin[i], nMin[i])
	}
	return smoothCircular(tmax, filterSize), smoothCircular(tmin, filterSize)
}

// smoothCircular applies a centered moving average that wraps around the
// year end. NaN inputs are skipped.
func smoothCircular(values []float64, size int) []float64 {
	if size <= 1 {
		return values
	}
	half := size / 2
	n := len(values)
	out := make([]float64, n)
	for i := range values {
		sum, count := 0.0, 0
		for k := -half; k <= half; k++ {
			v := values[((i+k)%n+n)%n]
			if math.IsNaN(v) {
				continue
			}
			sum += v
			count++
		}
		out[i] = mean(sum, count)
	}
	return out
}

// MonthValue is one month's aggregate.
type MonthValue struct {
	Month daterange.CalendarDate
	Value float64
}

// MonthlyValues aggregates daily records by month: mean daily temperature
// for Temperature, total precipitation for Precipitation. Months without any
// usable day are omitted.
func MonthlyValues(records []climate.Record, info climate.InfoKind) []MonthValue {
	type acc struct {
		sum   float64
		count int
	}
	months := make(map[daterange.CalendarDate]*acc)
	for _, r := range records {
		var v float64
		switch info {
		case climate.InfoPrecipitation:
			if r.Prcp == nil {
				continue
			}
			v = *r.Prcp
		default:
			m, ok := r.TMean()
			if !ok {
				continue
			}
			v = m
		}
		key := r.Date.FirstOfMonth()
		a, ok := months[key]
		if !ok {
			a = &acc{}
			months[key] = a
		}
		a.sum += v
		a.count++
	}

	out := make([]MonthValue, 0, len(months))
	for m, a := range months {
		v := a.sum
		if info != climate.InfoPrecipitation {
			v = a.sum / float64(a.count)
		}
		out = append(out, MonthValue{Month: m, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// MonthlyAnomalies returns the months of display as departures from the
// reference-period mean of the same calendar month. Months whose calendar
// month has no reference data are omitted.
func MonthlyAnomalies(records []climate.Record, info climate.InfoKind, ref, display daterange.Window) []MonthValue {
	values := MonthlyValues(records, info)

	var (
		sum   [12]float64
		count [12]int
	)
	for _, v := range values {
		if within(v.Month, ref) {
			sum[v.Month.Month-1] += v.Value
			count[v.Month.Month-1]++
		}
	}

	var out []MonthValue
	displayFrom := display.Start.FirstOfMonth()
	for _, v := range values {
		if v.Month.Before(displayFrom) || v.Month.After(display.End) {
			continue
		}
		c := count[v.Month.Month-1]
		if c == 0 {
			continue
		}
		out = append(out, MonthValue{Month: v.Month, Value: v.Value - sum[v.Month.Month-1]/float64(c)})
	}
	return out
}

// TrailingMean averages each value with the n-1 values before it. The first
// n-1 positions are NaN.
func TrailingMean(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	if n <= 1 {
		copy(out, values)
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= n {
			sum -= values[i-n]
		}
		if i < n-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
