// Package geo provides great-circle distance, grid cells and reverse
// geocoding used to enrich listings with an area name.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusKM is the mean Earth radius.
const EarthRadiusKM = 6371.0088

// DistanceKM returns the haversine distance between two points in kilometers.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	φ1 := lat1 * math.Pi / 180
	φ2 := lat2 * math.Pi / 180
	Δφ := (lat2 - lat1) * math.Pi / 180
	Δλ := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

// CellSize is the grid resolution in degrees, roughly 1km at mid latitudes.
const CellSize = 0.01

// Cell is a CellSize x CellSize grid square identified by its south-west corner.
type Cell struct {
	Lat float64
	Lon float64
}

// CellOf returns the grid cell containing a point.
func CellOf(lat, lon float64) Cell {
	// epsilon keeps values like 34.05 from flooring into the cell below
	const eps = 1e-9
	return Cell{
		Lat: math.Floor(lat/CellSize+eps) * CellSize,
		Lon: math.Floor(lon/CellSize+eps) * CellSize,
	}
}

// Key returns the subject key used for takeaways about this cell.
func (c Cell) Key() string {
	return fmt.Sprintf("geo:%.2f:%.2f", c.Lat, c.Lon)
}

// Center returns the cell's center point.
func (c Cell) Center() (lat, lon float64) {
	return c.Lat + CellSize/2, c.Lon + CellSize/2
}

// CellKey is shorthand for CellOf(lat, lon).Key().
func CellKey(lat, lon float64) string {
	return CellOf(lat, lon).Key()
}

// ParseCellKey parses a key produced by Cell.Key.
func ParseCellKey(key string) (Cell, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] != "geo" {
		return Cell{}, fmt.Errorf("invalid cell key %q", key)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Cell{}, fmt.Errorf("invalid cell latitude in %q: %w", key, err)
	}
	lon, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return Cell{}, fmt.Errorf("invalid cell longitude in %q: %w", key, err)
	}
	return Cell{Lat: lat, Lon: lon}, nil
}
