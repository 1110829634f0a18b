package geo

import "math"

const (
	// earthRadiusKm is the spherical-earth radius used by Distance.
	earthRadiusKm = 6371.0

	// avgSpeedKmh is the assumed courier speed for ETA estimates.
	avgSpeedKmh = 40.0

	// DefaultBaseRate and DefaultPerKmRate are the delivery fee defaults,
	// overridable through config.
	DefaultBaseRate  = 3.00
	DefaultPerKmRate = 0.80
)

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Candidate pairs an identifier with a location, for nearest-neighbour
// selection among delivery runners.
type Candidate struct {
	ID       string
	Location Point
}

// Distance returns the great-circle distance between a and b in kilometers
// using the haversine formula. Symmetric, zero for identical points, and
// never NaN: the asin argument is clamped against floating point drift on
// antipodal inputs.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	if h > 1 {
		h = 1
	}
	if h < 0 {
		h = 0
	}

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// ETA estimates travel time in whole minutes for the given distance,
// assuming a fixed average speed and rounding to the nearest minute.
func ETA(distanceKm float64) int {
	return int(math.Round(distanceKm / avgSpeedKmh * 60))
}

// Nearest returns the candidate closest to origin. Ties are broken by input
// order: the first minimal element wins, so the result is deterministic for
// a given slice. The second return value is false when candidates is empty.
func Nearest(origin Point, candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	best := candidates[0]
	bestDist := Distance(origin, best.Location)
	for _, c := range candidates[1:] {
		if d := Distance(origin, c.Location); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best, true
}

// SortByDistance returns a copy of candidates ordered by ascending distance
// from origin. The sort is stable so equidistant candidates keep their
// input order.
func SortByDistance(origin Point, candidates []Candidate) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)

	// Insertion sort keeps equal elements in input order without pulling in
	// sort.SliceStable closures over recomputed distances.
	dists := make([]float64, len(sorted))
	for i, c := range sorted {
		dists[i] = Distance(origin, c.Location)
	}
	for i := 1; i < len(sorted); i++ {
		c, d := sorted[i], dists[i]
		j := i - 1
		for j >= 0 && dists[j] > d {
			sorted[j+1], dists[j+1] = sorted[j], dists[j]
			j--
		}
		sorted[j+1], dists[j+1] = c, d
	}
	return sorted
}

// DeliveryFee computes baseRate*itemCount + perKmRate*distanceKm rounded to
// two decimal places.
func DeliveryFee(itemCount int, distanceKm, baseRate, perKmRate float64) float64 {
	fee := baseRate*float64(itemCount) + perKmRate*distanceKm
	return math.Round(fee*100) / 100
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
