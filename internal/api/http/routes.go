package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/climate-viewer/internal/climate"
	"github.com/i474232898/climate-viewer/internal/daterange"
	"github.com/i474232898/climate-viewer/internal/observability"
	"github.com/i474232898/climate-viewer/internal/plot"
)

var validate = validator.New()

// sessionCookie carries the process-started flag between interactions.
const sessionCookie = "process_started"

// ChartRenderer draws one figure.
type ChartRenderer interface {
	Render(w io.Writer, req climate.PlotRequest) error
}

// StationLister lists selectable station names.
type StationLister interface {
	Names() []string
}

// Geocoder resolves a place to coordinates.
type Geocoder interface {
	Geocode(city, country string) (float64, float64, error)
}

// Deps are the collaborators the routes use. Geocoder may be nil.
type Deps struct {
	Service  *climate.Service
	Charts   ChartRenderer
	Stations StationLister
	Geocoder Geocoder
	Metrics  *observability.Metrics
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/options", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"sources": []fiber.Map{
				{"value": climate.SourceNOAA, "label": climate.SourceNOAA.Label()},
				{"value": climate.SourceERA5, "label": climate.SourceERA5.Label()},
			},
			"referencePeriods": daterange.ReferencePeriods,
			"products":         []daterange.Granularity{daterange.Daily, daterange.Monthly},
			"infoKinds":        []climate.InfoKind{climate.InfoTemperature, climate.InfoPrecipitation},
			"minDate":          daterange.MinPickerDate,
		})
	})

	v1.Get("/stations", func(c *fiber.Ctx) error {
		q := strings.ToUpper(strings.TrimSpace(c.Query("q")))
		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 1000 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 1000")
		}

		names := make([]string, 0, limit)
		for _, name := range d.Stations.Names() {
			if q != "" && !strings.Contains(name, q) {
				continue
			}
			names = append(names, name)
			if len(names) == limit {
				break
			}
		}
		return c.JSON(fiber.Map{"stations": names})
	})

	v1.Get("/window", func(c *fiber.Ctx) error {
		var q windowQuery
		if err := c.QueryParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		in, err := q.toInputs()
		if err != nil {
			return toHTTPError(err)
		}
		res, err := d.Service.Resolve(in)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(res)
	})

	v1.Post("/render", func(c *fiber.Ctx) error {
		var req renderRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		in, err := req.toInputs()
		if err != nil {
			return toHTTPError(err)
		}

		state, view, err := d.Service.Render(c.UserContext(), readState(c), in)
		writeState(c, state)
		if err != nil {
			return toHTTPError(err)
		}

		return c.JSON(fiber.Map{
			"view":   view,
			"charts": chartURLs(req, len(view.Plots)),
		})
	})

	v1.Get("/chart.png", func(c *fiber.Ctx) error {
		var req renderRequest
		if err := c.QueryParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		state := readState(c)
		if !state.ProcessStarted {
			return fiber.NewError(fiber.StatusConflict, "process has not been started")
		}

		in, err := req.toInputs()
		if err != nil {
			return toHTTPError(err)
		}
		_, view, err := d.Service.Render(c.UserContext(), state, in)
		if err != nil {
			return toHTTPError(err)
		}

		idx := c.QueryInt("plot", 0)
		if idx < 0 || idx >= len(view.Plots) {
			return fiber.NewError(fiber.StatusNotFound, "no such plot")
		}

		var buf bytes.Buffer
		if err := d.Charts.Render(&buf, view.Plots[idx]); err != nil {
			return toHTTPError(err)
		}
		d.Metrics.Renders.WithLabelValues(string(view.Plots[idx].Kind)).Inc()

		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(buf.Bytes())
	})

	v1.Get("/geocode", func(c *fiber.Ctx) error {
		if d.Geocoder == nil {
			return fiber.NewError(fiber.StatusNotImplemented, "geocoding is not configured")
		}

		q := geocodeQuery{City: c.Query("city"), Country: c.Query("country")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		lat, lon, err := d.Geocoder.Geocode(q.City, q.Country)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(fiber.Map{
			"latitude":    lat,
			"longitude":   lon,
			"coordinates": strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lon, 'f', 4, 64),
		})
	})
}

// windowQuery holds query parameters for the window endpoint.
type windowQuery struct {
	ReferencePeriod string `query:"refperiod" validate:"required"`
	Product         string `query:"product" validate:"required,oneof=daily monthly"`
	Start           string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End             string `query:"end" validate:"omitempty,datetime=2006-01-02"`
}

func (q windowQuery) toInputs() (climate.Inputs, error) {
	return renderRequest{
		Source:          string(climate.SourceNOAA),
		ReferencePeriod: q.ReferencePeriod,
		Product:         q.Product,
		Start:           q.Start,
		End:             q.End,
	}.toInputs()
}

// renderRequest holds the control values of one interaction.
type renderRequest struct {
	Source          string `json:"source" query:"source" validate:"required,oneof=noaa era5"`
	ReferencePeriod string `json:"referencePeriod" query:"refperiod" validate:"required"`
	Product         string `json:"product" query:"product" validate:"required,oneof=daily monthly"`
	Station         string `json:"station" query:"station" validate:"required_if=Source noaa"`
	Coordinates     string `json:"coordinates" query:"coordinates" validate:"required_if=Source era5"`
	Info            string `json:"info" query:"info" validate:"omitempty,oneof=Temperature Precipitation"`
	Start           string `json:"start" query:"start" validate:"omitempty,datetime=2006-01-02"`
	End             string `json:"end" query:"end" validate:"omitempty,datetime=2006-01-02"`
	StartProcess    bool   `json:"startProcess" query:"-"`
}

func (r renderRequest) toInputs() (climate.Inputs, error) {
	g, err := daterange.ParseGranularity(r.Product)
	if err != nil {
		return climate.Inputs{}, err
	}
	start, err := parsePickerDate(r.Start)
	if err != nil {
		return climate.Inputs{}, err
	}
	end, err := parsePickerDate(r.End)
	if err != nil {
		return climate.Inputs{}, err
	}

	return climate.Inputs{
		Source:          climate.Source(r.Source),
		ReferencePeriod: r.ReferencePeriod,
		Granularity:     g,
		StationName:     r.Station,
		Coordinates:     r.Coordinates,
		Info:            climate.InfoKind(r.Info),
		Start:           start,
		End:             end,
		StartPressed:    r.StartProcess,
	}, nil
}

// parsePickerDate returns nil for an empty value, meaning "keep the default".
func parsePickerDate(s string) (*daterange.CalendarDate, error) {
	if s == "" {
		return nil, nil
	}
	d, err := daterange.ParseDate(s)
	if err != nil {
		return nil, err
	}
	if d.Before(daterange.MinPickerDate) {
		return nil, &daterange.FormatError{Field: "date", Value: s, Reason: "earlier than " + daterange.MinPickerDate.String()}
	}
	return &d, nil
}

// geocodeQuery holds query parameters for the geocode endpoint.
type geocodeQuery struct {
	City    string `validate:"required"`
	Country string
}

func chartURLs(req renderRequest, n int) []string {
	if n == 0 {
		return nil
	}
	values := url.Values{}
	values.Set("source", req.Source)
	values.Set("refperiod", req.ReferencePeriod)
	values.Set("product", req.Product)
	for k, v := range map[string]string{
		"station":     req.Station,
		"coordinates": req.Coordinates,
		"info":        req.Info,
		"start":       req.Start,
		"end":         req.End,
	} {
		if v != "" {
			values.Set(k, v)
		}
	}

	urls := make([]string, n)
	for i := range urls {
		values.Set("plot", strconv.Itoa(i))
		urls[i] = "/api/v1/chart.png?" + values.Encode()
	}
	return urls
}

func readState(c *fiber.Ctx) climate.State {
	return climate.State{ProcessStarted: c.Cookies(sessionCookie) == "true"}
}

func writeState(c *fiber.Ctx, s climate.State) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    strconv.FormatBool(s.ProcessStarted),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// toHTTPError maps domain errors onto status codes.
func toHTTPError(err error) error {
	var fe *daterange.FormatError
	switch {
	case errors.As(err, &fe):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, climate.ErrUnknownStation):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, climate.ErrUnknownSource):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, climate.ErrDownloadFailed):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, plot.ErrNoData):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("request failed: %v", err))
	}
}
