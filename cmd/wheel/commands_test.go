package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

const house = `
name: Test House
anchor: 2024-01-01
members:
  - name: A
  - name: B
chores: [Dishes, Vacuum, Trash]
sole_tasks:
  - title: Lawn
    responsible: [B]
`

func runWheel(t *testing.T, args ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "house.yaml")
	if err := os.WriteFile(path, []byte(house), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	root := &cobra.Command{Use: "wheel"}
	root.PersistentFlags().StringP("file", "f", "house.yaml", "")
	root.AddCommand(weekCmd(), monthCmd(), bundlesCmd(), snapshotsCmd(), restoreCmd())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--file", path))
	if err := root.Execute(); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestWeekCommand(t *testing.T) {
	out := runWheel(t, "week", "--date", "2024-01-10")

	if !strings.Contains(out, "Week of Jan 8 - Jan 14 (rotation week 2)") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "Common Areas Pack A (Dishes + Trash)") {
		t.Errorf("missing bundle A:\n%s", out)
	}
	if !strings.Contains(out, "Lawn") {
		t.Errorf("missing sole task:\n%s", out)
	}
}

func TestMonthCommand(t *testing.T) {
	out := runWheel(t, "month", "--year", "2024", "--month", "1")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d, want header + 5 weeks:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "bundle-A=A") {
		t.Errorf("first week = %q, want bundle-A=A", lines[1])
	}
	if !strings.Contains(lines[2], "bundle-A=B") {
		t.Errorf("second week = %q, want bundle-A=B", lines[2])
	}
}

func TestMonthCommandDefaultsToHouseholdZone(t *testing.T) {
	auckland, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	instant := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

	y, m := defaultMonth(0, 0, instant.In(auckland))
	if y != 2024 || m != time.February {
		t.Errorf("default = %d/%s, want 2024/February", y, m)
	}
	if y, m = defaultMonth(2023, 0, instant.In(auckland)); y != 2023 || m != time.February {
		t.Errorf("partial default = %d/%s, want 2023/February", y, m)
	}

	orig := clock
	clock = func() time.Time { return time.Date(2024, 1, 31, 23, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { clock = orig })
	out := runWheel(t, "month")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 || !strings.HasPrefix(lines[1], "Jan 1 - Jan 7") {
		t.Errorf("want January in a UTC household:\n%s", out)
	}
}

func TestBundlesCommand(t *testing.T) {
	out := runWheel(t, "bundles")

	if !strings.Contains(out, "bundle-A") || !strings.Contains(out, "bundle-B") {
		t.Errorf("missing bundles:\n%s", out)
	}
	if strings.Contains(out, "bundle-C") {
		t.Errorf("unexpected third bundle:\n%s", out)
	}
}
