package game

import (
	_ "embed"
	"encoding/json"
	"math"
	"math/rand"
	"sync"
)

//go:embed data/us_cities.json
var citiesJSON []byte

// City is one entry of the embedded US cities dataset.
type City struct {
	City       string  `json:"city"`
	State      string  `json:"state"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Population int     `json:"population"`
}

var (
	citiesOnce sync.Once
	cities     []City
)

func loadCities() []City {
	citiesOnce.Do(func() {
		if err := json.Unmarshal(citiesJSON, &cities); err != nil {
			panic("game: bad embedded cities dataset: " + err.Error())
		}
	})
	return cities
}

// radiusRanges maps city population to start-point distance bounds in
// miles. Kept small so start points stay near downtown.
var radiusRanges = []struct {
	maxPop   int
	min, max float64
}{
	{50000, 0.05, 0.15},
	{150000, 0.1, 0.25},
	{500000, 0.15, 0.4},
	{1000000, 0.2, 0.6},
	{math.MaxInt, 0.3, 0.8},
}

// radiusRange returns the min/max start radius for a city population.
// It is a monotonic step function: bigger cities get wider annuli.
func radiusRange(population int) (float64, float64) {
	for _, r := range radiusRanges {
		if population < r.maxPop {
			return r.min, r.max
		}
	}
	return 2.0, 5.0
}

// randomPointInRadius samples a point uniformly in angle and distance
// within [minMiles, maxMiles] of the given center.
func randomPointInRadius(lat, lng, minMiles, maxMiles float64) (float64, float64) {
	const milesPerDegreeLat = 69.0
	milesPerDegreeLng := 69.0 * math.Cos(lat*math.Pi/180)

	angle := rand.Float64() * 2 * math.Pi
	distance := minMiles + rand.Float64()*(maxMiles-minMiles)

	deltaLat := distance * math.Cos(angle) / milesPerDegreeLat
	deltaLng := distance * math.Sin(angle) / milesPerDegreeLng

	return lat + deltaLat, lng + deltaLng
}
