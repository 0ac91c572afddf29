// Package geo holds the location data model shared by the geocoding client
// and the tools: validated coordinates, lookup results and distances.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius (IUGG) used for great-circle distances.
const EarthRadiusKm = 6371.0088

const milesPerKm = 0.621371

var (
	// ErrInvalidInput marks malformed or out-of-range arguments. It is always
	// raised before any network call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable marks transport failures and non-success replies
	// from the geocoding service.
	ErrServiceUnavailable = errors.New("geocoding service unavailable")
)

// Coordinates is a validated latitude/longitude pair in degrees.
// The zero value is (0, 0), which is a valid point.
type Coordinates struct {
	lat float64
	lon float64
}

// NewCoordinates validates lat in [-90, 90] and lon in [-180, 180].
func NewCoordinates(lat, lon float64) (Coordinates, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Coordinates{}, fmt.Errorf("%w: latitude %s is out of range [-90, 90]", ErrInvalidInput, FormatDegrees(lat))
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return Coordinates{}, fmt.Errorf("%w: longitude %s is out of range [-180, 180]", ErrInvalidInput, FormatDegrees(lon))
	}
	return Coordinates{lat: lat, lon: lon}, nil
}

// MustCoordinates is NewCoordinates for literals known to be valid.
func MustCoordinates(lat, lon float64) Coordinates {
	c, err := NewCoordinates(lat, lon)
	if err != nil {
		panic(err)
	}
	return c
}

// Lat returns the latitude in degrees.
func (c Coordinates) Lat() float64 { return c.lat }

// Lon returns the longitude in degrees.
func (c Coordinates) Lon() float64 { return c.lon }

// String renders the pair as "lat, lon".
func (c Coordinates) String() string {
	return FormatDegrees(c.lat) + ", " + FormatDegrees(c.lon)
}

func (c Coordinates) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(c.lat, c.lon)
}

// FormatDegrees prints a coordinate with the shortest exact representation.
func FormatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Place is the result of a lookup: a display name with its coordinates, or
// nothing. The zero value means "no match" and is a normal outcome.
type Place struct {
	name   string
	coords Coordinates
	found  bool
}

// NewPlace builds a found place.
func NewPlace(name string, coords Coordinates) Place {
	return Place{name: name, coords: coords, found: true}
}

// Found reports whether the lookup matched anything.
func (p Place) Found() bool { return p.found }

// Name returns the display name, empty when not found.
func (p Place) Name() string { return p.name }

// Coordinates returns the matched location, zero when not found.
func (p Place) Coordinates() Coordinates { return p.coords }

// Distance is a non-negative great-circle distance.
type Distance struct {
	km float64
}

// Kilometers returns the distance in kilometres.
func (d Distance) Kilometers() float64 { return d.km }

// Miles returns the distance in statute miles.
func (d Distance) Miles() float64 { return d.km * milesPerKm }

// DistanceBetween returns the great-circle distance between a and b on a
// sphere of radius EarthRadiusKm. It is symmetric and zero for equal points.
func DistanceBetween(a, b Coordinates) Distance {
	angle := a.latLng().Distance(b.latLng())
	return Distance{km: angle.Radians() * EarthRadiusKm}
}
