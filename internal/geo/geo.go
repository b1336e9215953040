package geo

import "math"

// EarthRadiusKm is the mean radius of Earth in kilometers.
const EarthRadiusKm = 6371.0

// Coord is a WGS-84 coordinate pair.
type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineKm returns the great-circle distance between two coordinates in
// kilometers. This is the geodesic distance used for route lengths, ranking
// and trimming; it must not be mixed up with the planar helpers below, which
// exist only to rank points cheaply.
func HaversineKm(a, b Coord) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat + math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*sinLng*sinLng
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Destination returns the coordinate reached by travelling distKm from p along
// the given initial bearing (degrees clockwise from north). Used to derive the
// corners of a discovery bounding box from its center and diagonal.
func Destination(p Coord, bearingDeg, distKm float64) Coord {
	lat1 := radians(p.Lat)
	lng1 := radians(p.Lng)
	brng := radians(bearingDeg)
	d := distKm / EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lng2 := lng1 + math.Atan2(
		math.Sin(brng)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Coord{Lat: degrees(lat2), Lng: degrees(lng2)}
}

// ProjectOntoSegment returns the closest point on the closed segment [a,b] to
// p, treating coordinates as planar. A zero-length segment projects to a.
func ProjectOntoSegment(a, b, p Coord) Coord {
	vLat := b.Lat - a.Lat
	vLng := b.Lng - a.Lng

	lenSq := vLat*vLat + vLng*vLng
	if lenSq == 0 {
		return a
	}

	t := ((p.Lat-a.Lat)*vLat + (p.Lng-a.Lng)*vLng) / lenSq
	if t < 0 {
		return a
	}
	if t > 1 {
		return b
	}
	return Coord{Lat: a.Lat + t*vLat, Lng: a.Lng + t*vLng}
}

// NearestPointOnPath scans consecutive point pairs of path and returns the
// projection of p onto the pair whose far endpoint has the smallest planar
// squared distance to p, together with that squared distance. Ranking by the
// endpoint rather than the projected point is a deliberate approximation that
// keeps the scan cheap; callers needing true distances recompute them with
// HaversineKm afterwards. Ties go to the earliest pair in path order.
//
// stride > 1 subsamples the path before scanning, trading accuracy for speed
// on dense paths. If subsampling leaves fewer than two points the full path is
// used instead.
func NearestPointOnPath(path []Coord, p Coord, stride int) (Coord, float64) {
	if len(path) == 0 {
		return Coord{}, math.Inf(1)
	}
	if len(path) == 1 {
		return path[0], planarSq(path[0], p)
	}

	pts := path
	if stride > 1 {
		sampled := make([]Coord, 0, len(path)/stride+1)
		for i := 0; i < len(path); i += stride {
			sampled = append(sampled, path[i])
		}
		if len(sampled) >= 2 {
			pts = sampled
		}
	}

	best := pts[0]
	bestSq := math.Inf(1)
	for i := 0; i < len(pts)-1; i++ {
		sq := planarSq(pts[i+1], p)
		if sq < bestSq {
			bestSq = sq
			best = ProjectOntoSegment(pts[i], pts[i+1], p)
		}
	}
	return best, bestSq
}

// PathLengthKm returns the summed geodesic length of an ordered path.
func PathLengthKm(path []Coord) float64 {
	total := 0.0
	for i := 0; i < len(path)-1; i++ {
		total += HaversineKm(path[i], path[i+1])
	}
	return total
}

func planarSq(a, b Coord) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return dLat*dLat + dLng*dLng
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
