// Package profiles holds the per-sender (fmKey) template configuration: the
// expected work-order number shape, the page to read and the crop to read it
// from. Profiles load once from a JSON file and are immutable afterwards.
package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"github.com/troyfry/workorder-reconciler/internal/crop"
	"github.com/troyfry/workorder-reconciler/internal/extract"
)

// ErrNotFound is returned when no profile exists for a sender key.
var ErrNotFound = errors.New("sender profile not found")

// SenderProfile is the resolved, validated configuration for one sender.
type SenderProfile struct {
	SenderKey  string
	TemplateID string
	Page       int
	Rule       extract.Rule
	Crop       crop.Region
}

type cropConfig struct {
	Mode  string  `json:"mode"` // "percent" | "points"
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	PageW float64 `json:"pageW,omitempty"`
	PageH float64 `json:"pageH,omitempty"`
}

type profileConfig struct {
	TemplateID     string      `json:"templateId"`
	ExpectedDigits int         `json:"expectedDigits"`
	Pattern        string      `json:"pattern,omitempty"`
	Page           int         `json:"page,omitempty"`
	Crop           *cropConfig `json:"crop,omitempty"`
}

type fileConfig struct {
	Profiles map[string]profileConfig `json:"profiles"`
}

// Service looks up sender profiles by key.
type Service struct {
	profiles map[string]SenderProfile
	logger   *slog.Logger
}

// Load reads, schema-validates and compiles the profile config file.
func Load(path string, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles config: %w", err)
	}
	return Parse(raw, logger)
}

// Parse builds a Service from raw config bytes.
func Parse(raw []byte, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := validateConfig(raw); err != nil {
		return nil, fmt.Errorf("profiles config invalid: %w", err)
	}

	var cfg fileConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse profiles config: %w", err)
	}

	out := make(map[string]SenderProfile, len(cfg.Profiles))
	for key, pc := range cfg.Profiles {
		p := SenderProfile{
			SenderKey:  key,
			TemplateID: pc.TemplateID,
			Page:       pc.Page,
			Rule:       extract.Rule{ExpectedDigits: pc.ExpectedDigits},
		}
		if p.Page < 1 {
			p.Page = 1
		}
		if pc.Pattern != "" {
			re, err := regexp.Compile(pc.Pattern)
			if err != nil {
				return nil, fmt.Errorf("profile %q: bad pattern: %w", key, err)
			}
			p.Rule.Pattern = re
		}
		if pc.Crop != nil {
			region, err := toRegion(*pc.Crop)
			if err != nil {
				return nil, fmt.Errorf("profile %q: %w", key, err)
			}
			p.Crop = region
		}
		out[key] = p
	}

	logger.Info("profiles.loaded", "count", len(out))
	return &Service{profiles: out, logger: logger}, nil
}

func toRegion(c cropConfig) (crop.Region, error) {
	switch c.Mode {
	case "percent":
		return crop.Percent{X: c.X, Y: c.Y, W: c.W, H: c.H}, nil
	case "points":
		return crop.Points{X: c.X, Y: c.Y, W: c.W, H: c.H, PageW: c.PageW, PageH: c.PageH}, nil
	default:
		return nil, fmt.Errorf("unknown crop mode %q", c.Mode)
	}
}

// Get returns the profile for a sender key.
func (s *Service) Get(senderKey string) (SenderProfile, error) {
	p, ok := s.profiles[senderKey]
	if !ok {
		return SenderProfile{}, fmt.Errorf("%w: %q", ErrNotFound, senderKey)
	}
	return p, nil
}

// Keys returns the configured sender keys.
func (s *Service) Keys() []string {
	keys := make([]string, 0, len(s.profiles))
	for k := range s.profiles {
		keys = append(keys, k)
	}
	return keys
}
