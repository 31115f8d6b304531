package climate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/i474232898/climate-viewer/internal/daterange"
)

// SeriesHeader is the column layout of every series file.
var SeriesHeader = []string{"DATE", "NAME", "TMAX", "TMIN", "PRCP", "SNOW"}

// Record is one day of a series. Missing values are nil.
type Record struct {
	Date daterange.CalendarDate
	Name string
	TMax *float64
	TMin *float64
	Prcp *float64
	Snow *float64
}

// TMean is the mean of TMAX and TMIN, if both are present.
func (r Record) TMean() (float64, bool) {
	if r.TMax == nil || r.TMin == nil {
		return 0, false
	}
	return (*r.TMax + *r.TMin) / 2, true
}

// WriteSeriesCSV writes records to path through a temporary file, so readers
// never observe a partially written series.
func WriteSeriesCSV(path string, records []Record) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := encodeSeries(f, records); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func encodeSeries(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SeriesHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			daterange.FormatDate(r.Date),
			r.Name,
			formatValue(r.TMax),
			formatValue(r.TMin),
			formatValue(r.Prcp),
			formatValue(r.Snow),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSeriesCSV loads a series written by WriteSeriesCSV.
func ReadSeriesCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeSeries(f)
}

func decodeSeries(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(SeriesHeader)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("series file is empty")
		}
		return nil, err
	}
	for i, col := range SeriesHeader {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected column %q at position %d", header[i], i)
		}
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		date, err := daterange.ParseDate(row[0])
		if err != nil {
			return nil, err
		}
		rec := Record{Date: date, Name: row[1]}
		for i, dst := range []**float64{&rec.TMax, &rec.TMin, &rec.Prcp, &rec.Snow} {
			v, err := parseValue(row[i+2])
			if err != nil {
				return nil, fmt.Errorf("%s on %s: %w", SeriesHeader[i+2], row[0], err)
			}
			*dst = v
		}
		records = append(records, rec)
	}
	return records, nil
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseValue(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
