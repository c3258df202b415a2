package dms

import (
	"errors"
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		str  string
		axis Axis
		want float64
	}{
		{str: `N51*7'36.4800`, axis: Latitude, want: 51 + 7.0/60 + 36.48/3600},
		{str: `E2*44'34.11600`, axis: Longitude, want: 2 + 44.0/60 + 34.116/3600},
		{str: `E2*44'34.116"`, axis: Longitude, want: 2 + 44.0/60 + 34.116/3600},
		{str: `S33°51'35.9`, axis: Latitude, want: -(33 + 51.0/60 + 35.9/3600)},
		{str: `W0*5'0`, axis: Longitude, want: -5.0 / 60},
		{str: `  N49*0'0.0000 `, axis: Latitude, want: 49},
		{str: `N90*0'0.0`, axis: Latitude, want: 90},
		{str: `W180*0'0.0`, axis: Longitude, want: -180},
	} {
		a, err := Parse(tc.str)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.str, err)
			continue
		}
		if a.Axis() != tc.axis {
			t.Errorf("%s: got axis %s, expected %s", tc.str, a.Axis(), tc.axis)
		}
		if math.Abs(a.Decimal()-tc.want) > 1e-12 {
			t.Errorf("%s: got %.12f, expected %.12f", tc.str, a.Decimal(), tc.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		str  string
		want error
	}{
		{str: ``, want: ErrInvalidFormat},
		{str: `51*7'36.48`, want: ErrInvalidFormat},
		{str: `X51*7'36.48`, want: ErrInvalidFormat},
		{str: `N51-7'36.48`, want: ErrInvalidFormat},
		{str: `N51*7'`, want: ErrInvalidFormat},
		{str: `N51*7'36.48"x`, want: ErrInvalidFormat},
		{str: `N-51*7'36.48`, want: ErrInvalidFormat},
		{str: `N51*60'0.0`, want: ErrOutOfRange},
		{str: `N51*7'60.0`, want: ErrOutOfRange},
		{str: `N91*0'0.0`, want: ErrOutOfRange},
		{str: `N90*0'0.1`, want: ErrOutOfRange},
		{str: `E180*0'0.5`, want: ErrOutOfRange},
	} {
		if _, err := Parse(tc.str); !errors.Is(err, tc.want) {
			t.Errorf("%q: got error %v, expected %v", tc.str, err, tc.want)
		}
	}
}

func TestParseAxis(t *testing.T) {
	if _, err := ParseAxis(`N51*7'36.48`, Longitude); !errors.Is(err, ErrAxisMismatch) {
		t.Errorf("latitude hemisphere for longitude: got %v", err)
	}
	if _, err := ParseAxis(`E2*44'34.116`, Latitude); !errors.Is(err, ErrAxisMismatch) {
		t.Errorf("longitude hemisphere for latitude: got %v", err)
	}
	v, err := ParseAxis(`W2*30'0`, Longitude)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != -2.5 {
		t.Errorf("got %f, expected -2.5", v)
	}
}

func TestFormat(t *testing.T) {
	for _, tc := range []struct {
		v    float64
		axis Axis
		want string
	}{
		{v: 51.1268, axis: Latitude, want: `N51*7'36.4800`},
		{v: -33.5, axis: Latitude, want: `S33*30'0.0000`},
		{v: 2.5, axis: Longitude, want: `E2*30'0.0000`},
		{v: -0.25, axis: Longitude, want: `W0*15'0.0000`},
		{v: 0, axis: Latitude, want: `N0*0'0.0000`},
		// 59.99999" rounds up into the next minute and degree.
		{v: 50 + 59.0/60 + 59.99999/3600, axis: Latitude, want: `N51*0'0.0000`},
		{v: 180, axis: Longitude, want: `E180*0'0.0000`},
	} {
		got, err := Format(tc.v, tc.axis)
		if err != nil {
			t.Errorf("%f: unexpected error: %v", tc.v, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%f: got %s, expected %s", tc.v, got, tc.want)
		}
	}

	for _, v := range []float64{90.0001, -91, math.NaN()} {
		if _, err := Format(v, Latitude); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("%f: expected ErrOutOfRange, got %v", v, err)
		}
	}
	if _, err := Format(-180.5, Longitude); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for -180.5 longitude, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	// Half a unit of the last written seconds digit, in degrees.
	const tol = 0.5 / secondsScale / 3600

	for _, str := range []string{
		`N51*7'36.4800`,
		`E2*44'34.11600`,
		`S12*0'59.99996`,
		`W179*59'59.9999`,
		`N0*0'0.00004`,
		`E3*3'3.123456789`,
		`N50*30'15`,
	} {
		a, err := Parse(str)
		if err != nil {
			t.Fatalf("%s: %v", str, err)
		}
		formatted, err := Format(a.Decimal(), a.Axis())
		if err != nil {
			t.Fatalf("%s: %v", str, err)
		}
		b, err := Parse(formatted)
		if err != nil {
			t.Fatalf("%s -> %s: %v", str, formatted, err)
		}
		if math.Abs(a.Decimal()-b.Decimal()) > tol+1e-15 {
			t.Errorf("%s -> %s: %.12f != %.12f", str, formatted, b.Decimal(), a.Decimal())
		}

		// Formatting is stable once the value is at the written precision.
		again, err := Format(b.Decimal(), b.Axis())
		if err != nil {
			t.Fatal(err)
		}
		if again != formatted {
			t.Errorf("%s: second format %s differs from %s", str, again, formatted)
		}
	}
}
