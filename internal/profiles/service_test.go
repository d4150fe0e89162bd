package profiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troyfry/workorder-reconciler/internal/crop"
)

const validConfig = `{
	"profiles": {
		"acme": {
			"templateId": "acme-v2",
			"expectedDigits": 7,
			"pattern": "^12\\d{5}$",
			"page": 1,
			"crop": {"mode": "percent", "x": 0.6, "y": 0.05, "w": 0.3, "h": 0.1}
		},
		"northwind": {
			"templateId": "nw-v1",
			"expectedDigits": 6,
			"crop": {"mode": "points", "x": 380, "y": 40, "w": 180, "h": 60, "pageW": 612, "pageH": 792}
		},
		"bare": {
			"templateId": "bare-v1",
			"expectedDigits": 5
		}
	}
}`

func TestParseValidConfig(t *testing.T) {
	svc, err := Parse([]byte(validConfig), nil)
	require.NoError(t, err)
	assert.Len(t, svc.Keys(), 3)

	t.Run("percent profile", func(t *testing.T) {
		p, err := svc.Get("acme")
		require.NoError(t, err)
		assert.Equal(t, "acme-v2", p.TemplateID)
		assert.Equal(t, 7, p.Rule.ExpectedDigits)
		require.NotNil(t, p.Rule.Pattern)
		assert.True(t, p.Rule.Pattern.MatchString("1234567"))
		assert.Equal(t, crop.Percent{X: 0.6, Y: 0.05, W: 0.3, H: 0.1}, p.Crop)
	})

	t.Run("points profile", func(t *testing.T) {
		p, err := svc.Get("northwind")
		require.NoError(t, err)
		assert.Equal(t, crop.Points{X: 380, Y: 40, W: 180, H: 60, PageW: 612, PageH: 792}, p.Crop)
		assert.Nil(t, p.Rule.Pattern)
	})

	t.Run("missing page defaults to 1", func(t *testing.T) {
		p, err := svc.Get("bare")
		require.NoError(t, err)
		assert.Equal(t, 1, p.Page)
		assert.Nil(t, p.Crop, "no crop configured stays nil")
	})
}

func TestParseRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing profiles key", `{}`},
		{"missing templateId", `{"profiles": {"acme": {"expectedDigits": 7}}}`},
		{"typo'd key rejected by schema", `{"profiles": {"acme": {"templateId": "t", "expectedDigits": 7, "epxectedDigits": 7}}}`},
		{"bad crop mode", `{"profiles": {"acme": {"templateId": "t", "expectedDigits": 7, "crop": {"mode": "inches", "x": 1, "y": 1, "w": 1, "h": 1}}}}`},
		{"digits out of range", `{"profiles": {"acme": {"templateId": "t", "expectedDigits": 0}}}`},
		{"not json", `profiles:`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw), nil)
			assert.Error(t, err)
		})
	}
}

func TestParseRejectsBadPattern(t *testing.T) {
	_, err := Parse([]byte(`{"profiles": {"acme": {"templateId": "t", "expectedDigits": 7, "pattern": "("}}}`), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad pattern")
}

func TestGetUnknownSender(t *testing.T) {
	svc, err := Parse([]byte(validConfig), nil)
	require.NoError(t, err)

	_, err = svc.Get("unknown-co")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0o600))

	svc, err := Load(path, nil)
	require.NoError(t, err)
	assert.Len(t, svc.Keys(), 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}
