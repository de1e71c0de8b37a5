package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"reelfit/internal/model"
)

// DefaultPlatforms are rendered when no platform list is configured.
var DefaultPlatforms = []string{"instagram", "tiktok", "youtube"}

func baseProfile(name string) model.PlatformProfile {
	return model.PlatformProfile{
		Name:               name,
		Width:              1080,
		Height:             1920,
		SizeMargin:         0.05,
		RetryMarginStep:    0.05,
		MaxAttempts:        2,
		AbsoluteFloor:      800_000,
		AudioSampleRate:    44100,
		FPSSnapTolerance:   0.5,
		MaxUpscale:         2.0,
		SyncTolerance:      0.1,
		MaxAudioCorrection: 0.3,
		VideoCodec:         "libx264",
		Preset:             "medium",
		Profile:            "high",
		RefFrames:          3,
		BFrames:            2,
	}
}

// DefaultProfiles returns the built-in platform table.
func DefaultProfiles() map[string]model.PlatformProfile {
	ig := baseProfile("instagram")
	ig.MaxFPS = 30
	ig.MinDurationSec = 3
	ig.MaxDurationSec = 90
	ig.SizeCeilingBytes = 100 * model.MiB
	ig.MinBitrate = 2_500_000
	ig.MaxBitrate = 8_000_000
	ig.AudioBitrate = 192_000
	ig.Level = "4.1"

	tt := baseProfile("tiktok")
	tt.MaxFPS = 60
	tt.MinDurationSec = 3
	tt.MaxDurationSec = 600
	tt.SizeCeilingBytes = 287 * model.MiB
	tt.MinBitrate = 2_500_000
	tt.MaxBitrate = 10_000_000
	tt.AudioBitrate = 128_000
	tt.Level = "4.2"

	yt := baseProfile("youtube")
	yt.MaxFPS = 60
	yt.MinDurationSec = 1
	yt.MaxDurationSec = 180
	yt.SizeCeilingBytes = 256 * model.MiB
	yt.MinBitrate = 2_500_000
	yt.MaxBitrate = 12_000_000
	yt.AudioBitrate = 192_000
	yt.Level = "4.2"

	return map[string]model.PlatformProfile{
		ig.Name: ig,
		tt.Name: tt,
		yt.Name: yt,
	}
}

// ProfileTable is the immutable, validated set of platform profiles.
type ProfileTable struct {
	byName map[string]model.PlatformProfile
}

// NewProfileTable validates profiles and freezes them.
func NewProfileTable(profiles map[string]model.PlatformProfile) (*ProfileTable, error) {
	if len(profiles) == 0 {
		return nil, errors.New("no platform profiles configured")
	}
	t := &ProfileTable{byName: make(map[string]model.PlatformProfile, len(profiles))}
	var errs []error
	for name, p := range profiles {
		p.Name = strings.ToLower(name)
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		t.byName[p.Name] = p
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// LoadProfiles starts from DefaultProfiles and applies the profiles.<name>
// subtree from v. Unknown names define new platforms on top of the
// instagram defaults.
func LoadProfiles(v *viper.Viper) (*ProfileTable, error) {
	profiles := DefaultProfiles()
	for name := range v.GetStringMap("profiles") {
		key := strings.ToLower(name)
		p, ok := profiles[key]
		if !ok {
			p = profiles["instagram"]
		}
		if err := v.UnmarshalKey("profiles."+name, &p); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		profiles[key] = p
	}
	return NewProfileTable(profiles)
}

// Get returns the profile for name.
func (t *ProfileTable) Get(name string) (model.PlatformProfile, bool) {
	p, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names lists the platforms in sorted order.
func (t *ProfileTable) Names() []string {
	names := make([]string, 0, len(t.byName))
	for n := range t.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Select resolves names to profiles, preserving order and dropping repeats.
func (t *ProfileTable) Select(names []string) ([]model.PlatformProfile, error) {
	seen := make(map[string]bool, len(names))
	var out []model.PlatformProfile
	for _, raw := range names {
		for _, n := range strings.Split(raw, ",") {
			n = strings.ToLower(strings.TrimSpace(n))
			if n == "" || seen[n] {
				continue
			}
			p, ok := t.Get(n)
			if !ok {
				return nil, fmt.Errorf("unknown platform %q (known: %s)", n, strings.Join(t.Names(), ", "))
			}
			seen[n] = true
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no platforms selected")
	}
	return out, nil
}
