package crop

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePercent(t *testing.T) {
	tests := []struct {
		name    string
		region  Percent
		wantErr error
	}{
		{"usable crop", Percent{X: 0.6, Y: 0.05, W: 0.3, H: 0.1}, nil},
		{"exact full page is the sentinel", Percent{X: 0, Y: 0, W: 1, H: 1}, ErrNotConfigured},
		{"near full page within tolerance", Percent{X: 0.005, Y: 0.005, W: 0.995, H: 0.992}, ErrNotConfigured},
		{"zero size", Percent{X: 0.2, Y: 0.2, W: 0, H: 0.1}, ErrInvalid},
		{"negative size", Percent{X: 0.2, Y: 0.2, W: -0.1, H: 0.1}, ErrInvalid},
		{"out of bounds right", Percent{X: 0.9, Y: 0.1, W: 0.2, H: 0.1}, ErrInvalid},
		{"negative origin", Percent{X: -0.1, Y: 0.1, W: 0.2, H: 0.1}, ErrInvalid},
		{"below minimum side", Percent{X: 0.2, Y: 0.2, W: 0.005, H: 0.1}, ErrInvalid},
		{"nan field", Percent{X: math.NaN(), Y: 0.1, W: 0.2, H: 0.1}, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.region)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidatePoints(t *testing.T) {
	letter := func(x, y, w, h float64) Points {
		return Points{X: x, Y: y, W: w, H: h, PageW: 612, PageH: 792}
	}

	tests := []struct {
		name    string
		region  Points
		wantErr error
	}{
		{"usable crop", letter(380, 40, 180, 60), nil},
		{"missing page size", Points{X: 10, Y: 10, W: 100, H: 50}, ErrInvalid},
		{"out of bounds", letter(600, 40, 100, 60), ErrInvalid},
		{"below minimum side", letter(380, 40, 7, 60), ErrInvalid},
		{"infinite field", letter(math.Inf(1), 40, 180, 60), ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.region)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSentinelIsNotInvalid(t *testing.T) {
	err := Validate(Percent{W: 1, H: 1})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.NotErrorIs(t, err, ErrInvalid)
}
