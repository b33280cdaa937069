package housefile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/chorewheel/internal/rotation"
	"github.com/dukerupert/chorewheel/internal/week"
)

const sample = `
name: Maple St
timezone: America/Chicago
anchor: 2024-01-03
members:
  - name: Alice
  - id: b2
    name: Bob
  - name: Carol
chores: [Vacuum, Dishes, Trash, Bathroom]
sole_tasks:
  - title: Lawn
    responsible: [carol, b2]
  - title: Gutters
`

func TestParseSample(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if f.Name != "Maple St" {
		t.Errorf("name = %q", f.Name)
	}
	if f.CycleLength != 3 {
		t.Errorf("cycle length = %d, want member count 3", f.CycleLength)
	}
	if f.Members[0].ID != "Alice" || f.Members[1].ID != "b2" {
		t.Errorf("member ids = %q, %q", f.Members[0].ID, f.Members[1].ID)
	}
	lawn := f.SoleTasks[0]
	if len(lawn.Responsible) != 2 || lawn.Responsible[0] != "Carol" || lawn.Responsible[1] != "b2" {
		t.Errorf("lawn responsible = %v, want [Carol b2]", lawn.Responsible)
	}
}

func TestConfigResolves(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := f.Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	if week.Key(cfg.Anchor) != "2024-01-01" {
		t.Errorf("anchor = %s, want Monday 2024-01-01", week.Key(cfg.Anchor))
	}
	if cfg.Anchor.Location().String() != "America/Chicago" {
		t.Errorf("anchor location = %v", cfg.Anchor.Location())
	}
	if len(cfg.Bundles) != 3 {
		t.Fatalf("bundles = %d, want 3", len(cfg.Bundles))
	}

	w, err := rotation.Resolve(cfg, time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	mapping := w.Mapping()
	if mapping["Lawn"] != "Bob" {
		t.Errorf("Lawn = %q, want Bob", mapping["Lawn"])
	}
	if mapping["Gutters"] != rotation.Unassigned {
		t.Errorf("Gutters = %q, want Unassigned", mapping["Gutters"])
	}
	if w.Bundles[0].MemberName != "Bob" {
		t.Errorf("bundle A -> %q, want Bob", w.Bundles[0].MemberName)
	}
}

func TestParseDefaults(t *testing.T) {
	f, err := Parse([]byte("anchor: 2024-01-01\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Timezone != "UTC" {
		t.Errorf("timezone = %q, want UTC", f.Timezone)
	}
	if f.CycleLength != DefaultCycleLength {
		t.Errorf("cycle length = %d, want %d", f.CycleLength, DefaultCycleLength)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "   ", "empty"},
		{"no anchor", "name: X\n", "anchor is required"},
		{"unknown member", "anchor: 2024-01-01\nmembers: [{name: A}]\nsole_tasks: [{title: T, responsible: [Z]}]\n", "unknown member"},
		{"duplicate id", "anchor: 2024-01-01\nmembers: [{name: A}, {name: A}]\n", "duplicate member"},
		{"bad yaml", "anchor: [", "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestNegativeCycleLength(t *testing.T) {
	_, err := Parse([]byte("anchor: 2024-01-01\ncycle_length: -2\n"))
	if !errors.Is(err, rotation.ErrInvalidCycleLength) {
		t.Errorf("err = %v, want ErrInvalidCycleLength", err)
	}
}

func TestConfigBadAnchor(t *testing.T) {
	f, err := Parse([]byte("anchor: next monday\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := f.Config(); !errors.Is(err, week.ErrInvalidDate) {
		t.Errorf("err = %v, want ErrInvalidDate", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "house.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(f.Members) != 3 {
		t.Errorf("members = %d, want 3", len(f.Members))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSoleTaskTitleClash(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"matches chore", "anchor: 2024-01-01\nmembers: [{name: A}, {name: B}]\nchores: [Bins, Dishes]\nsole_tasks: [{title: ' Bins', responsible: [b]}]\n"},
		{"repeated sole task", "anchor: 2024-01-01\nmembers: [{name: A}]\nsole_tasks: [{title: Lawn}, {title: Lawn}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, rotation.ErrDuplicateTitle) {
				t.Errorf("err = %v, want ErrDuplicateTitle", err)
			}
		})
	}
}
