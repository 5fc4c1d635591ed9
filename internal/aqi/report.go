package aqi

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInsufficientData means no pollutant carried a reading for a statistic.
var ErrInsufficientData = errors.New("insufficient forecast data")

// rangeWidth is the column the "min-max" text is padded to.
const rangeWidth = 5

// StationReport is the summary rendered as one line of the report.
type StationReport struct {
	Name      string
	MinAQI    int
	MaxAQI    int
	MinSymbol string
	MaxSymbol string
	Trend     string
}

var aliases = []struct {
	id, name string
}{
	{"salt-lake-city", "SLC  "},
	{"utah/lindon", "Utah "},
	{"washington", "Wash."},
}

// DisplayName returns the short label for a station id.
func DisplayName(id string) string {
	for _, a := range aliases {
		if a.id == id {
			return a.name
		}
	}
	return capitalize(id)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

type stat func(DailyReading) int

func statMin(r DailyReading) int { return r.Min }
func statMax(r DailyReading) int { return r.Max }
func statAvg(r DailyReading) int { return r.Avg }

// peak is the maximum of one statistic across the pollutants present on day.
func peak(data StationData, day int, name string, pick stat) (int, error) {
	best, found := 0, false
	for _, p := range Pollutants {
		r, ok := data.reading(p, day)
		if !ok {
			continue
		}
		if v := pick(r); !found || v > best {
			best, found = v, true
		}
	}
	if !found {
		return 0, fmt.Errorf("%w: no %s readings for day %d", ErrInsufficientData, name, day)
	}
	return best, nil
}

// BuildStationReport summarises one station's current and next-day forecast.
func BuildStationReport(s Station) (StationReport, error) {
	minAQI, err := peak(s.Data, CurrentDay, "min", statMin)
	if err != nil {
		return StationReport{}, fmt.Errorf("station %s: %w", s.ID, err)
	}
	maxAQI, err := peak(s.Data, CurrentDay, "max", statMax)
	if err != nil {
		return StationReport{}, fmt.Errorf("station %s: %w", s.ID, err)
	}
	avgNow, err := peak(s.Data, CurrentDay, "avg", statAvg)
	if err != nil {
		return StationReport{}, fmt.Errorf("station %s: %w", s.ID, err)
	}
	avgNext, err := peak(s.Data, NextDay, "avg", statAvg)
	if err != nil {
		return StationReport{}, fmt.Errorf("station %s: %w", s.ID, err)
	}

	minSymbol, err := Severity(minAQI)
	if err != nil {
		return StationReport{}, fmt.Errorf("station %s: %w", s.ID, err)
	}
	maxSymbol, err := Severity(maxAQI)
	if err != nil {
		return StationReport{}, fmt.Errorf("station %s: %w", s.ID, err)
	}

	return StationReport{
		Name:      DisplayName(s.ID),
		MinAQI:    minAQI,
		MaxAQI:    maxAQI,
		MinSymbol: minSymbol,
		MaxSymbol: maxSymbol,
		Trend:     Trend(avgNow, avgNext),
	}, nil
}

// Line renders the report as "Name🟢 45-55🟡 24hr⬇️".
func (r StationReport) Line() string {
	rangeText := fmt.Sprintf("%d-%d", r.MinAQI, r.MaxAQI)
	pad := max(0, rangeWidth-len(rangeText))

	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteString(r.MinSymbol)
	b.WriteString(" ")
	b.WriteString(rangeText)
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteString(r.MaxSymbol)
	b.WriteString(" 24hr")
	b.WriteString(r.Trend)
	return b.String()
}

// BuildReport renders every station in order, separated by a blank line.
// Any station without enough data fails the whole report.
func BuildReport(stations []Station) (string, error) {
	lines := make([]string, 0, len(stations))
	for _, s := range stations {
		r, err := BuildStationReport(s)
		if err != nil {
			return "", err
		}
		lines = append(lines, r.Line())
	}
	return strings.Join(lines, "\n\n"), nil
}
