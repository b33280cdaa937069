// Package housefile reads a household's rotation setup from a YAML file, for
// resolving schedules without a database.
package housefile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/chorewheel/internal/rotation"
	"github.com/dukerupert/chorewheel/internal/week"
)

// DefaultCycleLength is used when the file names neither a cycle length nor
// any members.
const DefaultCycleLength = 4

// File is the on-disk household description.
//
//	name: Maple St
//	timezone: America/Chicago
//	anchor: 2024-01-01
//	members:
//	  - name: Alice
//	  - id: b2
//	    name: Bob
//	chores: [Vacuum, Dishes, Trash]
//	sole_tasks:
//	  - title: Lawn
//	    responsible: [Alice, b2]
type File struct {
	Name        string              `yaml:"name"`
	Timezone    string              `yaml:"timezone"`
	Anchor      string              `yaml:"anchor"`
	CycleLength int                 `yaml:"cycle_length"`
	Members     []rotation.Member   `yaml:"members"`
	Chores      []string            `yaml:"chores"`
	SoleTasks   []rotation.SoleTask `yaml:"sole_tasks"`
}

// Parse decodes and normalizes a household file payload.
func Parse(data []byte) (File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return File{}, errors.New("housefile: payload is empty")
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("housefile: decode: %w", err)
	}
	if err := f.normalize(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Load reads and parses the household file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("housefile: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// normalize fills member IDs from names, rewrites sole-task references to
// member IDs and applies defaults.
func (f *File) normalize() error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Timezone == "" {
		f.Timezone = "UTC"
	}
	if strings.TrimSpace(f.Anchor) == "" {
		return errors.New("housefile: anchor is required")
	}

	ids := make(map[string]bool, len(f.Members))
	byName := make(map[string]string, len(f.Members))
	for i := range f.Members {
		m := &f.Members[i]
		m.Name = strings.TrimSpace(m.Name)
		m.ID = strings.TrimSpace(m.ID)
		if m.Name == "" {
			return fmt.Errorf("housefile: member %d has no name", i+1)
		}
		if m.ID == "" {
			m.ID = m.Name
		}
		if ids[m.ID] {
			return fmt.Errorf("housefile: duplicate member id %q", m.ID)
		}
		ids[m.ID] = true
		byName[strings.ToLower(m.Name)] = m.ID
	}

	titles := make(map[string]bool, len(f.Chores)+len(f.SoleTasks))
	for _, c := range f.Chores {
		titles[strings.TrimSpace(c)] = true
	}
	for i := range f.SoleTasks {
		t := &f.SoleTasks[i]
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			return fmt.Errorf("housefile: sole task %d has no title", i+1)
		}
		if titles[t.Title] {
			return fmt.Errorf("housefile: %w: %q is listed more than once", rotation.ErrDuplicateTitle, t.Title)
		}
		titles[t.Title] = true
		for j, ref := range t.Responsible {
			ref = strings.TrimSpace(ref)
			switch {
			case ids[ref]:
				t.Responsible[j] = ref
			case byName[strings.ToLower(ref)] != "":
				t.Responsible[j] = byName[strings.ToLower(ref)]
			default:
				return fmt.Errorf("housefile: sole task %q: unknown member %q", t.Title, ref)
			}
		}
	}

	if f.CycleLength == 0 {
		f.CycleLength = len(f.Members)
		if f.CycleLength == 0 {
			f.CycleLength = DefaultCycleLength
		}
	}
	if f.CycleLength < 0 {
		return fmt.Errorf("housefile: %w: got %d", rotation.ErrInvalidCycleLength, f.CycleLength)
	}
	return nil
}

// Location returns the file's time zone.
func (f File) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return nil, fmt.Errorf("housefile: timezone %q: %w", f.Timezone, err)
	}
	return loc, nil
}

// Config builds the resolver configuration. Bundles are partitioned from the
// chore list over the current member count.
func (f File) Config() (rotation.Config, error) {
	loc, err := f.Location()
	if err != nil {
		return rotation.Config{}, err
	}
	anchor, err := week.ParseKey(f.Anchor, loc)
	if err != nil {
		return rotation.Config{}, fmt.Errorf("housefile: anchor: %w", err)
	}

	cfg := rotation.Config{
		Anchor:      anchor,
		CycleLength: f.CycleLength,
		Members:     f.Members,
		Bundles:     rotation.BuildBundles(f.Chores, len(f.Members)),
		SoleTasks:   f.SoleTasks,
	}
	if err := cfg.Validate(); err != nil {
		return rotation.Config{}, fmt.Errorf("housefile: %w", err)
	}
	return cfg, nil
}
