package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	austin := Point{Lat: 30.2672, Lng: -97.7431}

	t.Run("identical points are zero distance", func(t *testing.T) {
		assert.Equal(t, 0.0, DistanceKm(austin, austin))
	})

	t.Run("symmetric", func(t *testing.T) {
		dallas := Point{Lat: 32.7767, Lng: -96.797}
		assert.InDelta(t, DistanceKm(austin, dallas), DistanceKm(dallas, austin), 1e-9)
	})

	t.Run("austin to dallas is roughly 293km", func(t *testing.T) {
		dallas := Point{Lat: 32.7767, Lng: -96.797}
		assert.InDelta(t, 293.0, DistanceKm(austin, dallas), 5.0)
	})

	t.Run("one degree of latitude is roughly 111km", func(t *testing.T) {
		a := Point{Lat: 0, Lng: 0}
		b := Point{Lat: 1, Lng: 0}
		assert.InDelta(t, 111.19, DistanceKm(a, b), 0.5)
	})

	t.Run("nan coordinates propagate", func(t *testing.T) {
		bad := Point{Lat: math.NaN(), Lng: -97.7}
		assert.True(t, math.IsNaN(DistanceKm(austin, bad)))
	})
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{South: 30.0, West: -98.0, North: 31.0, East: -97.0}

	t.Run("interior point", func(t *testing.T) {
		assert.True(t, box.Contains(Point{Lat: 30.5, Lng: -97.5}))
	})

	t.Run("edges are inclusive", func(t *testing.T) {
		assert.True(t, box.Contains(Point{Lat: 30.0, Lng: -97.5}))
		assert.True(t, box.Contains(Point{Lat: 31.0, Lng: -97.5}))
		assert.True(t, box.Contains(Point{Lat: 30.5, Lng: -98.0}))
		assert.True(t, box.Contains(Point{Lat: 30.5, Lng: -97.0}))
		assert.True(t, box.Contains(Point{Lat: 30.0, Lng: -98.0}))
	})

	t.Run("outside", func(t *testing.T) {
		assert.False(t, box.Contains(Point{Lat: 29.9999, Lng: -97.5}))
		assert.False(t, box.Contains(Point{Lat: 30.5, Lng: -96.9999}))
	})
}
