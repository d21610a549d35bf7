package units

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		// Resistance
		{"4.7kΩ", 4700, true},
		{"4.7k", 4700, true},
		{"10 ohm", 10, true},
		{"10 Ohms", 10, true},
		{"1MΩ", 1e6, true},
		{"1MegOhm", 1e6, true},
		{"1meg", 1e6, true},
		{"220mΩ", 0.22, true},

		// Capacitance
		{"100nF", 1e-7, true},
		{"100 nF", 1e-7, true},
		{"22pF", 22e-12, true},
		{"4.7uF", 4.7e-6, true},
		{"4.7µF", 4.7e-6, true},
		{"1F", 1, true},

		// Inductance
		{"10mH", 0.01, true},
		{"2.2uH", 2.2e-6, true},

		// Voltage
		{"25V", 25, true},
		{"3.3v", 3.3, true},

		// Sign and bare numbers
		{"-5", -5, true},
		{"+12V", 12, true},
		{"50", 50, true},

		// Milli vs mega
		{"5m", 5e-3, true},
		{"5M", 5e6, true},

		// Trailing junk after the prefix is ignored
		{"10k 5%", 10000, true},

		// Unparsable
		{"", 0, false},
		{"abc", 0, false},
		{"±5%", 0, false},
	}

	for _, tt := range tests {
		got, ok := Normalize(tt.in)
		if ok != tt.valid {
			t.Errorf("Normalize(%q) ok = %v, want %v", tt.in, ok, tt.valid)
			continue
		}
		if !tt.valid {
			continue
		}
		if math.Abs(got-tt.want) > math.Abs(tt.want)*1e-12 {
			t.Errorf("Normalize(%q) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestInRange(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		val  string
		min  *float64
		max  *float64
		want bool
	}{
		{"no bounds passes anything", "garbage", nil, nil, true},
		{"no bounds passes empty", "", nil, nil, true},
		{"inside both bounds", "4.7kΩ", f(1000), f(10000), true},
		{"below min", "100Ω", f(1000), nil, false},
		{"above max", "1MΩ", nil, f(10000), false},
		{"exactly min", "1kΩ", f(1000), nil, true},
		{"exactly max", "10k", nil, f(10000), true},
		{"unparsable with bound excluded", "n/a", f(0), nil, false},
		{"empty with bound excluded", "", nil, f(100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InRange(tt.val, tt.min, tt.max); got != tt.want {
				t.Errorf("InRange(%q, %v, %v) = %v, want %v", tt.val, tt.min, tt.max, got, tt.want)
			}
		})
	}
}
