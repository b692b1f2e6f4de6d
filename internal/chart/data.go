// Package chart renders standalone ECharts pages from JSON or CSV data.
package chart

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind is a chart type.
type Kind string

const (
	Bar     Kind = "bar"
	Line    Kind = "line"
	Pie     Kind = "pie"
	Scatter Kind = "scatter"
	Radar   Kind = "radar"
)

// Kinds lists the supported chart types.
var Kinds = []Kind{Bar, Line, Pie, Scatter, Radar}

// ParseKind validates a chart type name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown chart type %q (want bar, line, pie, scatter or radar)", s)
}

// Series is one named data series. Values are numbers, or [x, y] pairs for
// scatter charts.
type Series struct {
	Name string `json:"name"`
	Data []any  `json:"data"`
}

// Item is one pie slice.
type Item struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Indicator is one radar axis.
type Indicator struct {
	Name string  `json:"name"`
	Max  float64 `json:"max"`
}

// Data is the chart input document.
type Data struct {
	XAxis      []string    `json:"xAxis,omitempty"`
	Series     []Series    `json:"series,omitempty"`
	Items      []Item      `json:"data,omitempty"`
	Indicators []Indicator `json:"indicator,omitempty"`
}

// Load reads chart data from a .json or .csv file.
func Load(path string, kind Kind) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chart data: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f, kind)
	case ".json", "":
		return ReadJSON(f)
	default:
		return nil, fmt.Errorf("unsupported chart data file %s (want .json or .csv)", filepath.Base(path))
	}
}

// ReadJSON decodes a chart data document.
func ReadJSON(r io.Reader) (*Data, error) {
	var d Data
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("parse chart json: %w", err)
	}
	return &d, nil
}

// ReadCSV reads a table whose first row is a header. The first column holds
// categories (pie slice names, radar indicators, scatter x values) and every
// further column is a series. For pie charts only the first two columns are
// used.
func ReadCSV(r io.Reader, kind Kind) (*Data, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, errors.New("csv needs a header row and at least one data row")
	}
	headers := records[0]
	rows := records[1:]
	if len(headers) < 2 {
		return nil, errors.New("csv needs a category column and at least one value column")
	}

	d := &Data{}
	if kind == Pie {
		for i, row := range rows {
			v, err := cell(row, 1, i+2)
			if err != nil {
				return nil, err
			}
			d.Items = append(d.Items, Item{Name: strings.TrimSpace(row[0]), Value: v})
		}
		return d, nil
	}

	for col := 1; col < len(headers); col++ {
		s := Series{Name: strings.TrimSpace(headers[col])}
		for i, row := range rows {
			v, err := cell(row, col, i+2)
			if err != nil {
				return nil, err
			}
			if kind == Scatter {
				x, err := cell(row, 0, i+2)
				if err != nil {
					return nil, err
				}
				s.Data = append(s.Data, []any{x, v})
			} else {
				s.Data = append(s.Data, v)
			}
		}
		d.Series = append(d.Series, s)
	}

	switch kind {
	case Radar:
		for i, row := range rows {
			peak := 0.0
			for col := 1; col < len(headers); col++ {
				v, _ := cell(row, col, i+2)
				peak = math.Max(peak, v)
			}
			d.Indicators = append(d.Indicators, Indicator{Name: strings.TrimSpace(row[0]), Max: math.Ceil(peak)})
		}
	case Scatter:
	default:
		for _, row := range rows {
			d.XAxis = append(d.XAxis, strings.TrimSpace(row[0]))
		}
	}
	return d, nil
}

func cell(row []string, col, line int) (float64, error) {
	if col >= len(row) {
		return 0, fmt.Errorf("csv line %d: missing column %d", line, col+1)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
	if err != nil {
		return 0, fmt.Errorf("csv line %d column %d: %q is not a number", line, col+1, row[col])
	}
	return v, nil
}

// Validate checks that d has what a chart of kind needs.
func (d *Data) Validate(kind Kind) error {
	switch kind {
	case Bar, Line:
		if len(d.Series) == 0 {
			return fmt.Errorf("%s chart needs at least one series", kind)
		}
		if len(d.XAxis) == 0 {
			return fmt.Errorf("%s chart needs xAxis categories", kind)
		}
	case Scatter:
		if len(d.Series) == 0 {
			return errors.New("scatter chart needs at least one series")
		}
		for _, s := range d.Series {
			for _, p := range s.Data {
				pair, ok := p.([]any)
				if !ok || len(pair) != 2 {
					return fmt.Errorf("scatter series %q: points must be [x, y] pairs", s.Name)
				}
			}
		}
	case Pie:
		if len(d.Items) == 0 {
			return errors.New("pie chart needs data items")
		}
	case Radar:
		if len(d.Indicators) == 0 {
			return errors.New("radar chart needs indicators")
		}
		for _, s := range d.Series {
			if len(s.Data) != len(d.Indicators) {
				return fmt.Errorf("radar series %q has %d values for %d indicators", s.Name, len(s.Data), len(d.Indicators))
			}
		}
		if len(d.Series) == 0 {
			return errors.New("radar chart needs at least one series")
		}
	default:
		return fmt.Errorf("unknown chart type %q", kind)
	}
	return nil
}
