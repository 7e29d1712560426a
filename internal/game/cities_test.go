package game

import (
	"math"
	"testing"
)

func TestEmbeddedCitiesLoad(t *testing.T) {
	cities := loadCities()
	if len(cities) == 0 {
		t.Fatal("no cities in embedded dataset")
	}
	for _, c := range cities {
		if c.City == "" || c.State == "" {
			t.Fatalf("city with missing name: %+v", c)
		}
		if c.Population <= 0 {
			t.Fatalf("%s has population %d", c.City, c.Population)
		}
		if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
			t.Fatalf("%s has coordinates %v,%v", c.City, c.Lat, c.Lng)
		}
	}
}

func TestRandomPointInRadiusBounds(t *testing.T) {
	const lat, lng = 40.7128, -74.0060
	const minMiles, maxMiles = 0.2, 0.6
	const milesPerDegreeLat = 69.0
	milesPerDegreeLng := 69.0 * math.Cos(lat*math.Pi/180)

	for i := 0; i < 100; i++ {
		gotLat, gotLng := randomPointInRadius(lat, lng, minMiles, maxMiles)

		dLat := (gotLat - lat) * milesPerDegreeLat
		dLng := (gotLng - lng) * milesPerDegreeLng
		dist := math.Sqrt(dLat*dLat + dLng*dLng)

		if dist < minMiles-1e-6 || dist > maxMiles+1e-6 {
			t.Fatalf("point %v,%v is %.4f miles out; want [%v, %v]", gotLat, gotLng, dist, minMiles, maxMiles)
		}
	}
}
