package units

import "testing"

func TestFactor(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		want     float64
	}{
		{name: "watts to kilowatts", from: "W", to: "kW", want: 0.001},
		{name: "kilowatts to watts", from: "kW", to: "W", want: 1000.0},
		{name: "watt-hours to megawatt-hours", from: "Wh", to: "MWh", want: 0.000001},
		{name: "reactive power down", from: "var", to: "kvar", want: 0.001},
		{name: "case-insensitive", from: "KVAR", to: "VAR", want: 1000.0},
		{name: "same unit", from: "kW", to: "kW", want: 1.0},
		{name: "unknown pair", from: "Hz", to: "kHz", want: 1.0},
		{name: "missing from", from: "", to: "kW", want: 1.0},
		{name: "missing to", from: "kW", to: "", want: 1.0},
		{name: "whitespace tolerated", from: " w ", to: " kw ", want: 0.001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Factor(tt.from, tt.to); got != tt.want {
				t.Errorf("Factor(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
