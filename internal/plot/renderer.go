package plot

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/i474232898/climate-viewer/internal/climate"
	"github.com/i474232898/climate-viewer/internal/daterange"
)

// ErrNoData is returned when the display window holds too few points to draw.
var ErrNoData = errors.New("not enough data in the display window")

// Renderer draws PNG figures from downloaded series.
type Renderer struct {
	Width  int
	Height int
}

func NewRenderer() *Renderer {
	return &Renderer{Width: 1200, Height: 600}
}

// Render reads req.DataFile and writes the requested figure to w as PNG.
func (r *Renderer) Render(w io.Writer, req climate.PlotRequest) error {
	records, err := climate.ReadSeriesCSV(req.DataFile)
	if err != nil {
		return fmt.Errorf("read series: %w", err)
	}
	display, err := displayWindow(req)
	if err != nil {
		return err
	}
	ref := daterange.Window{Start: req.ClimateStart, End: req.ClimateEnd}

	var graph chart.Chart
	switch req.Kind {
	case climate.PlotWeatherSeries:
		graph, err = r.weatherSeries(records, ref, display, req)
	case climate.PlotMonthlyBarchart:
		graph, err = r.monthlyBarchart(records, ref, display, req)
	default:
		return fmt.Errorf("unknown plot kind %q", req.Kind)
	}
	if err != nil {
		return err
	}
	return graph.Render(chart.PNG, w)
}

func displayWindow(req climate.PlotRequest) (daterange.Window, error) {
	start, err := daterange.ParseDate(req.Start)
	if err != nil {
		return daterange.Window{}, err
	}
	end, err := daterange.ParseDate(req.End)
	if err != nil {
		return daterange.Window{}, err
	}
	return daterange.Window{Start: start, End: end}, nil
}

func title(req climate.PlotRequest) string {
	name := "ERA5"
	if req.StationName != nil {
		name = *req.StationName
	}
	if req.Information != "" {
		name = fmt.Sprintf("%s %s", name, req.Information)
	}
	return fmt.Sprintf("%s (%s to %s)", name, req.Start, req.End)
}

func (r *Renderer) weatherSeries(records []climate.Record, ref, display daterange.Window, req climate.PlotRequest) (chart.Chart, error) {
	normMax, normMin := DailyNormals(records, ref, req.FilterSize)

	var obsMax, obsMin, clmMax, clmMin points
	for _, rec := range records {
		if !within(rec.Date, display) {
			continue
		}
		t := rec.Date.Time()
		if rec.TMax != nil {
			obsMax.add(t, *rec.TMax)
		}
		if rec.TMin != nil {
			obsMin.add(t, *rec.TMin)
		}
	}
	for d := display.Start; !d.After(display.End); d = d.AddDays(1) {
		i := dayIndex(d)
		clmMax.add(d.Time(), normMax[i])
		clmMin.add(d.Time(), normMin[i])
	}

	if len(obsMax.x) < 2 && len(obsMin.x) < 2 {
		return chart.Chart{}, ErrNoData
	}

	series := []chart.Series{
		obsMax.series("TMAX", chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 1}),
		obsMin.series("TMIN", chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 1}),
		clmMax.series("Normal TMAX", chart.Style{StrokeColor: chart.ColorRed.WithAlpha(120), StrokeWidth: 2, StrokeDashArray: []float64{5, 5}}),
		clmMin.series("Normal TMIN", chart.Style{StrokeColor: chart.ColorBlue.WithAlpha(120), StrokeWidth: 2, StrokeDashArray: []float64{5, 5}}),
	}

	return r.newChart(title(req), "°C", compact(series)), nil
}

func (r *Renderer) monthlyBarchart(records []climate.Record, ref, display daterange.Window, req climate.PlotRequest) (chart.Chart, error) {
	info := req.Information
	if info == "" {
		info = climate.InfoTemperature
	}

	var months []MonthValue
	if req.Anomaly {
		months = MonthlyAnomalies(records, info, ref, display)
	} else {
		for _, m := range MonthlyValues(records, info) {
			if !m.Month.Before(display.Start.FirstOfMonth()) && !m.Month.After(display.End) {
				months = append(months, m)
			}
		}
	}
	if len(months) < 2 {
		return chart.Chart{}, ErrNoData
	}

	values := make([]float64, len(months))
	var above, below, trend points
	for i, m := range months {
		values[i] = m.Value
		// Each bar is a stroke from the zero line up or down to the value.
		t := m.Month.Time()
		above.add(t, 0)
		above.add(t, math.Max(m.Value, 0))
		above.add(t, 0)
		below.add(t, 0)
		below.add(t, math.Min(m.Value, 0))
		below.add(t, 0)
	}
	if req.TrailingMean > 1 {
		for i, v := range TrailingMean(values, req.TrailingMean) {
			trend.add(months[i].Month.Time(), v)
		}
	}

	unit := "°C"
	if info == climate.InfoPrecipitation {
		unit = "mm"
	}
	label := string(info)
	if req.Anomaly {
		label += " anomaly"
	}

	barWidth := r.barWidth(len(months))
	series := []chart.Series{
		above.series(label+" (positive)", chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: barWidth}),
		below.series(label+" (negative)", chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: barWidth}),
		trend.series(fmt.Sprintf("%d-month trailing mean", req.TrailingMean), chart.Style{StrokeColor: chart.ColorBlack, StrokeWidth: 2}),
	}
	return r.newChart(title(req), unit, compact(series)), nil
}

// barWidth spreads n bars over the plot width, leaving a gap between them.
func (r *Renderer) barWidth(n int) float64 {
	w := 0.7 * float64(r.Width-80) / float64(n)
	return math.Max(1, math.Min(w, 40))
}

func (r *Renderer) newChart(title, unit string, series []chart.Series) chart.Chart {
	graph := chart.Chart{
		Title:  title,
		Width:  r.Width,
		Height: r.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: unit,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph
}

// points accumulates a time series, dropping NaN values.
type points struct {
	x []time.Time
	y []float64
}

func (p *points) add(t time.Time, v float64) {
	if math.IsNaN(v) {
		return
	}
	p.x = append(p.x, t)
	p.y = append(p.y, v)
}

func (p *points) series(name string, style chart.Style) chart.Series {
	if len(p.x) < 2 {
		return nil
	}
	return chart.TimeSeries{Name: name, XValues: p.x, YValues: p.y, Style: style}
}

// compact drops series with too few points to draw.
func compact(in []chart.Series) []chart.Series {
	out := in[:0]
	for _, s := range in {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
