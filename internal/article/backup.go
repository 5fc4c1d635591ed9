package article

import "math/rand/v2"

// BackupPool is used when every feed candidate is too long or already posted.
// Picks from it are never recorded in the history.
var BackupPool = []Candidate{
	{Title: "Check today's air quality on AirNow", URL: "https://www.airnow.gov/?city=Salt%20Lake%20City&state=UT&country=USA"},
	{Title: "Utah Division of Air Quality forecasts", URL: "https://air.utah.gov/"},
	{Title: "What the AQI colors mean", URL: "https://www.airnow.gov/aqi/aqi-basics/"},
	{Title: "How particle pollution affects your health", URL: "https://www.epa.gov/pm-pollution/health-and-environmental-effects-particulate-matter-pm"},
	{Title: "Ground-level ozone basics", URL: "https://www.epa.gov/ground-level-ozone-pollution/ground-level-ozone-basics"},
}

func pickBackup(rng *rand.Rand) Candidate {
	return BackupPool[rng.IntN(len(BackupPool))]
}
