package geo

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// Validate checks a WGS84 coordinate pair.
func Validate(latitude, longitude float64) error {
	if math.IsNaN(latitude) || latitude < -90 || latitude > 90 {
		return fmt.Errorf("%w: got %v", ErrInvalidLatitude, latitude)
	}
	if math.IsNaN(longitude) || longitude < -180 || longitude > 180 {
		return fmt.Errorf("%w: got %v", ErrInvalidLongitude, longitude)
	}
	return nil
}
