package cmd

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"reelfit/internal/config"
)

func TestProfilesTOML_RoundTrip(t *testing.T) {
	want, err := config.NewProfileTable(config.DefaultProfiles())
	if err != nil {
		t.Fatal(err)
	}
	out, err := profilesTOML(want.Names(), want.Get)
	if err != nil {
		t.Fatalf("profilesTOML: %v", err)
	}
	if !strings.Contains(string(out), "[profiles.instagram]") {
		t.Fatalf("unexpected TOML:\n%s", out)
	}

	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewReader(out)); err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	got, err := config.LoadProfiles(v)
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	for _, name := range want.Names() {
		w, _ := want.Get(name)
		g, ok := got.Get(name)
		if !ok || !reflect.DeepEqual(g, w) {
			t.Errorf("%s: got %+v, want %+v", name, g, w)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"x"}, {"y", "z"}}, []columnAlignment{alignLeft, alignRight})
	for _, want := range []string{"A", "B", "x", "y", "z"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("empty headers should render nothing")
	}
}
