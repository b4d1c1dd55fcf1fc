package detectors

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClasses(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "   ", want: nil},
		{in: "0", want: []int{0}},
		{in: "0, 2,5", want: []int{0, 2, 5}},
		{in: "person,car", wantErr: true},
		{in: "1,,2", wantErr: true},
		{in: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClasses(tt.in)
			if tt.wantErr {
				assert.EqualError(t, err, "classes must be comma-separated integers")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := map[string]func(*Config){
		"confidence above one": func(c *Config) { c.ConfidenceThreshold = 1.1 },
		"negative confidence":  func(c *Config) { c.ConfidenceThreshold = -0.1 },
		"nms above one":        func(c *Config) { c.NMSThreshold = 2 },
		"negative input size":  func(c *Config) { c.InputSize = image.Pt(-1, 640) },
		"negative class":       func(c *Config) { c.Classes = []int{0, -3} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
