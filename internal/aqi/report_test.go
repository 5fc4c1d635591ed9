package aqi

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// days builds a forecast array where only index CurrentDay and NextDay matter.
func days(now, next DailyReading) []DailyReading {
	return []DailyReading{{}, {}, now, next}
}

func TestSeverity(t *testing.T) {
	cases := []struct {
		value int
		want  string
	}{
		{0, "🟢"},
		{50, "🟢"},
		{51, "🟡"},
		{100, "🟡"},
		{150, "🟠"},
		{151, "🔴"},
		{300, "🟣"},
		{301, "🟤"},
		{998, "🟤"},
		{999, "🟤"},
		{5000, "🟤"},
	}
	for _, tc := range cases {
		got, err := Severity(tc.value)
		require.NoError(t, err, "value %d", tc.value)
		assert.Equal(t, tc.want, got, "value %d", tc.value)
	}
}

func TestSeverity_Negative(t *testing.T) {
	_, err := Severity(-1)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestTrend(t *testing.T) {
	assert.Equal(t, TrendUp, Trend(40, 50))
	assert.Equal(t, TrendDown, Trend(50, 40))
	assert.Equal(t, TrendFlat, Trend(50, 50))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "SLC  ", DisplayName("salt-lake-city"))
	assert.Equal(t, "Utah ", DisplayName("utah/lindon"))
	assert.Equal(t, "Wash.", DisplayName("washington"))
	assert.Equal(t, "Cache", DisplayName("cache"))
	assert.Equal(t, "Weber", DisplayName("WEBER"))
	assert.Equal(t, "", DisplayName(""))
}

func TestStationReport_LinePadding(t *testing.T) {
	t.Run("short range padded to width", func(t *testing.T) {
		r := StationReport{Name: "Cache", MinAQI: 5, MaxAQI: 12, MinSymbol: "🟢", MaxSymbol: "🟢", Trend: TrendFlat}
		assert.Equal(t, "Cache🟢 5-12 🟢 24hr"+TrendFlat, r.Line())
	})

	t.Run("full width range gets no padding", func(t *testing.T) {
		r := StationReport{Name: "Davis", MinAQI: 45, MaxAQI: 55, MinSymbol: "🟢", MaxSymbol: "🟡", Trend: TrendUp}
		assert.Equal(t, "Davis🟢 45-55🟡 24hr"+TrendUp, r.Line())
	})

	t.Run("wider range never goes negative", func(t *testing.T) {
		r := StationReport{Name: "Davis", MinAQI: 150, MaxAQI: 1200, MinSymbol: "🟠", MaxSymbol: "🟤", Trend: TrendUp}
		assert.Equal(t, "Davis🟠 150-1200🟤 24hr"+TrendUp, r.Line())
	})
}

func TestBuildStationReport(t *testing.T) {
	t.Run("takes the max across pollutants", func(t *testing.T) {
		s := Station{ID: "davis", Data: StationData{Forecast: Forecast{Daily: map[Pollutant][]DailyReading{
			PM25:  days(DailyReading{Min: 45, Max: 55, Avg: 50}, DailyReading{Avg: 40}),
			Ozone: days(DailyReading{Min: 20, Max: 30, Avg: 25}, DailyReading{Avg: 35}),
		}}}}

		r, err := BuildStationReport(s)
		require.NoError(t, err)
		assert.Equal(t, "Davis", r.Name)
		assert.Equal(t, 45, r.MinAQI)
		assert.Equal(t, 55, r.MaxAQI)
		assert.Equal(t, "🟢", r.MinSymbol)
		assert.Equal(t, "🟡", r.MaxSymbol)
		assert.Equal(t, TrendDown, r.Trend)

		line := r.Line()
		assert.Equal(t, "Davis🟢 45-55🟡 24hr"+TrendDown, line)
		assert.Less(t, strings.Index(line, "🟢"), strings.Index(line, "🟡"))
	})

	t.Run("pollutant missing a day is skipped", func(t *testing.T) {
		s := Station{ID: "weber", Data: StationData{Forecast: Forecast{Daily: map[Pollutant][]DailyReading{
			PM25: days(DailyReading{Min: 10, Max: 20, Avg: 15}, DailyReading{Avg: 30}),
			// forecast ends before the current day
			PM10: {{Min: 300, Max: 400, Avg: 350}},
		}}}}

		r, err := BuildStationReport(s)
		require.NoError(t, err)
		assert.Equal(t, 10, r.MinAQI)
		assert.Equal(t, 20, r.MaxAQI)
		assert.Equal(t, TrendUp, r.Trend)
	})

	t.Run("no readings for the next day", func(t *testing.T) {
		s := Station{ID: "cache", Data: StationData{Forecast: Forecast{Daily: map[Pollutant][]DailyReading{
			PM25: {{}, {}, {Min: 10, Max: 20, Avg: 15}},
		}}}}

		_, err := BuildStationReport(s)
		require.ErrorIs(t, err, ErrInsufficientData)
		assert.Contains(t, err.Error(), "station cache")
		assert.Contains(t, err.Error(), "avg")
	})

	t.Run("empty forecast", func(t *testing.T) {
		_, err := BuildStationReport(Station{ID: "cache"})
		require.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestBuildReport(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		report, err := BuildReport(nil)
		require.NoError(t, err)
		assert.Empty(t, report)
	})

	t.Run("keeps input order", func(t *testing.T) {
		forecast := StationData{Forecast: Forecast{Daily: map[Pollutant][]DailyReading{
			PM25: days(DailyReading{Min: 5, Max: 12, Avg: 8}, DailyReading{Avg: 8}),
		}}}
		report, err := BuildReport([]Station{
			{ID: "washington", Data: forecast},
			{ID: "salt-lake-city", Data: forecast},
		})
		require.NoError(t, err)

		want := "Wash.🟢 5-12 🟢 24hr" + TrendFlat + "\n\n" + "SLC  🟢 5-12 🟢 24hr" + TrendFlat
		assert.Equal(t, want, report)
	})

	t.Run("one bad station fails the report", func(t *testing.T) {
		good := StationData{Forecast: Forecast{Daily: map[Pollutant][]DailyReading{
			PM25: days(DailyReading{Min: 5, Max: 12, Avg: 8}, DailyReading{Avg: 8}),
		}}}
		_, err := BuildReport([]Station{{ID: "cache", Data: good}, {ID: "davis"}})
		require.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("same input same output", func(t *testing.T) {
		in := []Station{{ID: "davis", Data: StationData{Forecast: Forecast{Daily: map[Pollutant][]DailyReading{
			Ozone: days(DailyReading{Min: 60, Max: 120, Avg: 90}, DailyReading{Avg: 95}),
		}}}}}
		first, err := BuildReport(in)
		require.NoError(t, err)
		second, err := BuildReport(in)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestStationData_DecodePayload(t *testing.T) {
	raw := `{"forecast":{"daily":{
		"pm25":[{"avg":1,"day":"2024-01-01","max":2,"min":0},{"avg":1,"day":"2024-01-02","max":2,"min":0},{"avg":30,"day":"2024-01-03","max":42,"min":21},{"avg":25,"day":"2024-01-04","max":30,"min":20}],
		"o3":[{"avg":1,"day":"2024-01-01","max":2,"min":0},{"avg":1,"day":"2024-01-02","max":2,"min":0},{"avg":33,"day":"2024-01-03","max":38,"min":28}]
	}}}`

	var data StationData
	require.NoError(t, json.Unmarshal([]byte(raw), &data))

	r, err := BuildStationReport(Station{ID: "utah/lindon", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "Utah 🟢 28-42🟢 24hr"+TrendDown, r.Line())
}
