// Package aqi turns per-station WAQI forecasts into the short, emoji-coded
// report that opens every post.
package aqi

// Pollutant is a forecast key under data.forecast.daily.
type Pollutant string

const (
	PM25  Pollutant = "pm25"
	PM10  Pollutant = "pm10"
	Ozone Pollutant = "o3"
)

// Pollutants lists the forecasts read for every station, in scan order.
var Pollutants = []Pollutant{PM25, PM10, Ozone}

// Day offsets into the daily forecast arrays.
const (
	CurrentDay = 2
	NextDay    = 3
)

// DailyReading is one day of one pollutant's forecast.
type DailyReading struct {
	Avg int    `json:"avg"`
	Max int    `json:"max"`
	Min int    `json:"min"`
	Day string `json:"day"`
}

// Forecast mirrors data.forecast in the station payload.
type Forecast struct {
	Daily map[Pollutant][]DailyReading `json:"daily"`
}

// StationData is the "data" object of a station payload. Only the forecast is read.
type StationData struct {
	Forecast Forecast `json:"forecast"`
}

// Station pairs a station id with its decoded payload. Reports keep the
// order stations are passed in.
type Station struct {
	ID   string
	Data StationData
}

// reading returns the pollutant's reading for day, or false when the
// forecast does not reach that far.
func (d StationData) reading(p Pollutant, day int) (DailyReading, bool) {
	days, ok := d.Forecast.Daily[p]
	if !ok || day < 0 || day >= len(days) {
		return DailyReading{}, false
	}
	return days[day], true
}
