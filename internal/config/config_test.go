package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"

	"reelfit/internal/compose"
	"reelfit/internal/model"
)

func readYAML(t *testing.T, doc string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(doc)); err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	return v
}

func TestDefaultProfilesAreValid(t *testing.T) {
	table, err := NewProfileTable(DefaultProfiles())
	if err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if got := strings.Join(table.Names(), ","); got != "instagram,tiktok,youtube" {
		t.Errorf("names = %s", got)
	}
	ig, _ := table.Get("Instagram")
	if ig.SizeCeilingBytes != 100*model.MiB || ig.Width != 1080 || ig.Height != 1920 {
		t.Errorf("instagram = %+v", ig)
	}
}

func TestLoadProfiles_Overrides(t *testing.T) {
	v := readYAML(t, `
profiles:
  instagram:
    max_attempts: 3
    size_ceiling_bytes: 52428800
  reels_hd:
    width: 1440
    height: 2560
`)
	table, err := LoadProfiles(v)
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	ig, _ := table.Get("instagram")
	if ig.MaxAttempts != 3 || ig.SizeCeilingBytes != 50*model.MiB {
		t.Errorf("instagram override not applied: %+v", ig)
	}
	if ig.MinBitrate != 2_500_000 {
		t.Errorf("unrelated field lost: min_bitrate = %d", ig.MinBitrate)
	}
	hd, ok := table.Get("reels_hd")
	if !ok {
		t.Fatal("custom profile missing")
	}
	if hd.Name != "reels_hd" || hd.Width != 1440 || hd.AudioBitrate != 192_000 {
		t.Errorf("custom profile = %+v", hd)
	}
}

func TestLoadProfiles_RejectsInvalid(t *testing.T) {
	v := readYAML(t, `
profiles:
  tiktok:
    max_attempts: 0
`)
	if _, err := LoadProfiles(v); err == nil {
		t.Error("expected validation error")
	}
}

func TestProfileTable_Select(t *testing.T) {
	table, err := NewProfileTable(DefaultProfiles())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		in      []string
		want    string
		wantErr string
	}{
		{name: "comma list", in: []string{"tiktok, instagram"}, want: "tiktok,instagram"},
		{name: "dedupe", in: []string{"youtube", "YouTube", "tiktok"}, want: "youtube,tiktok"},
		{name: "unknown", in: []string{"vine"}, wantErr: `unknown platform "vine"`},
		{name: "empty", in: []string{" , "}, wantErr: "no platforms selected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Select(tt.in)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			var names []string
			for _, p := range got {
				names = append(names, p.Name)
			}
			if strings.Join(names, ",") != tt.want {
				t.Errorf("selected %v, want %s", names, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	v := readYAML(t, `
out_dir: /tmp/reelfit-out
input_dir: /tmp/reelfit-in
archive_dir: /tmp/reelfit-archive
jobs: 4
platforms: [tiktok]
cta:
  text: Follow for more
  position: top
overlay:
  path: /tmp/logo.png
`)
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutDir != "/tmp/reelfit-out" || cfg.InputDir != "/tmp/reelfit-in" || cfg.ArchiveDir != "/tmp/reelfit-archive" {
		t.Errorf("dirs = %q %q %q", cfg.OutDir, cfg.InputDir, cfg.ArchiveDir)
	}
	if cfg.Jobs != 4 || len(cfg.Platforms) != 1 || cfg.Platforms[0] != "tiktok" {
		t.Errorf("jobs=%d platforms=%v", cfg.Jobs, cfg.Platforms)
	}
	if cfg.CTA.Text != "Follow for more" || cfg.CTA.Position != compose.PositionTop || cfg.CTA.FontSize != 40 {
		t.Errorf("cta = %+v", cfg.CTA)
	}
	if cfg.Overlay.Path != "/tmp/logo.png" || cfg.Overlay.WidthFraction != 0.3 {
		t.Errorf("overlay = %+v", cfg.Overlay)
	}
}

func TestLoad_UnknownPlatform(t *testing.T) {
	v := readYAML(t, "platforms: [instagram, myspace]\n")
	if _, err := Load(v); err == nil {
		t.Error("expected error for unknown platform")
	}
}
