package geo

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		a, b Point
		want float64
	}{
		{
			name: "bengaluru to mysuru",
			a:    Point{Lat: 12.9716, Lng: 77.5946},
			b:    Point{Lat: 12.2958, Lng: 76.6394},
			want: 128.0169,
		},
		{
			name: "short hop inside the city",
			a:    Point{Lat: 12.9716, Lng: 77.5946},
			b:    Point{Lat: 12.9352, Lng: 77.6245},
			want: 5.1847,
		},
		{
			name: "same point",
			a:    Point{Lat: 10, Lng: 10},
			b:    Point{Lat: 10, Lng: 10},
			want: 0,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := DistanceKm(tc.a, tc.b)
			if math.Abs(got-tc.want) > 0.001 {
				t.Errorf("DistanceKm = %.4f, want %.4f", got, tc.want)
			}
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	t.Parallel()

	a := Point{Lat: 51.5074, Lng: -0.1278}
	b := Point{Lat: 48.8566, Lng: 2.3522}
	if d1, d2 := DistanceKm(a, b), DistanceKm(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("expected symmetric distance, got %v and %v", d1, d2)
	}
}

func TestCoordinateRanges(t *testing.T) {
	t.Parallel()

	if !ValidLatitude(90) || !ValidLatitude(-90) || ValidLatitude(90.0001) {
		t.Error("unexpected latitude range result")
	}
	if !ValidLongitude(180) || !ValidLongitude(-180) || ValidLongitude(-181) {
		t.Error("unexpected longitude range result")
	}
}
