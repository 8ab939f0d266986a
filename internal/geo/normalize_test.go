package geo

import (
	"math"
	"testing"
)

// TestNormalize_FieldVariants verifies that all accepted coordinate shapes
// resolve to the same canonical form.
func TestNormalize_FieldVariants(t *testing.T) {
	n := NewNormalizer(Options{})

	tests := []struct {
		name string
		raw  any
	}{
		{"long field names", map[string]any{"latitude": 49.9, "longitude": 36.4}},
		{"short field names", map[string]any{"lat": 49.9, "lng": 36.4}},
		{"lon alias", map[string]any{"lat": 49.9, "lon": 36.4}},
		{"ordered pair", []any{49.9, 36.4}},
		{"float slice", []float64{49.9, 36.4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.raw)
			if got == nil {
				t.Fatal("expected coordinates, got nil")
			}
			if got.Latitude != 49.9 || got.Longitude != 36.4 {
				t.Errorf("got (%f, %f), want (49.9, 36.4)", got.Latitude, got.Longitude)
			}
		})
	}
}

// TestNormalize_Rejects verifies that unresolvable values yield nil rather
// than an error.
func TestNormalize_Rejects(t *testing.T) {
	n := NewNormalizer(DefaultOptions())

	tests := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"string", "49.9,36.4"},
		{"missing longitude", map[string]any{"lat": 49.9}},
		{"non-numeric fields", map[string]any{"lat": "49.9", "lng": "36.4"}},
		{"three-element pair", []any{49.9, 36.4, 120.0}},
		{"infinite latitude", map[string]any{"lat": math.Inf(1), "lng": 36.4}},
		{"nan longitude", map[string]any{"lat": 49.9, "lng": math.NaN()}},
		{"latitude out of range", map[string]any{"lat": 95.0, "lng": 36.4}},
		{"longitude out of range", map[string]any{"lat": 49.9, "lng": 181.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.raw); got != nil {
				t.Errorf("expected nil, got (%f, %f)", got.Latitude, got.Longitude)
			}
		})
	}
}

// TestNormalize_TruncationRepair verifies the theatre-specific latitude
// repair: inside the window 0 <= lat < 10 and 30 < lng < 41 the normalized
// latitude equals lat+40; everywhere else the input latitude is unchanged.
func TestNormalize_TruncationRepair(t *testing.T) {
	n := NewNormalizer(DefaultOptions())

	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantLat float64
	}{
		{"inside window", 5, 35, 45},
		{"window upper edges", 9.99, 40.99, 49.99},
		{"lat zero", 0, 36.4, 40},
		{"lat at 10 excluded", 10, 35, 10},
		{"lng at 30 excluded", 5, 30, 5},
		{"lng at 41 excluded", 5, 41, 5},
		{"negative lat excluded", -1, 35, -1},
		{"lng below window", 5, 29.99, 5},
		{"normal theatre coordinate", 49.9, 36.4, 49.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(map[string]any{"lat": tt.lat, "lng": tt.lng})
			if got == nil {
				t.Fatal("expected coordinates, got nil")
			}
			if got.Latitude != tt.wantLat {
				t.Errorf("latitude = %f, want %f", got.Latitude, tt.wantLat)
			}
			if got.Longitude != tt.lng {
				t.Errorf("longitude = %f, want %f (must never change)", got.Longitude, tt.lng)
			}
		})
	}
}

// TestNormalize_TruncationRepairDisabled verifies the compatibility shim
// can be switched off, leaving low latitudes untouched.
func TestNormalize_TruncationRepairDisabled(t *testing.T) {
	n := NewNormalizer(Options{TruncationRepair: false})

	got := n.Normalize(map[string]any{"lat": 5.0, "lng": 35.0})
	if got == nil {
		t.Fatal("expected coordinates, got nil")
	}
	if got.Latitude != 5.0 {
		t.Errorf("latitude = %f, want 5.0 with repair disabled", got.Latitude)
	}
}

// TestDistance verifies the planar degree distance.
func TestDistance(t *testing.T) {
	a := Coordinates{Latitude: 49.90, Longitude: 36.40}
	b := Coordinates{Latitude: 49.92, Longitude: 36.42}

	got := Distance(a, b)
	want := math.Sqrt(0.02*0.02 + 0.02*0.02)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("distance = %f, want %f", got, want)
	}

	if Distance(a, a) != 0 {
		t.Error("distance from a point to itself should be 0")
	}
}
