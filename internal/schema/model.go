// Package schema holds the logical model of an analytical cube and turns it
// into the OLAP schema document the server's analysis catalog expects.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// LogicalModel is the set of cubes published as one catalog.
type LogicalModel struct {
	Name  string `yaml:"name,omitempty"`
	Cubes []Cube `yaml:"cubes"`
}

// Cube is a fact table with its dimensions and measures.
type Cube struct {
	Name       string      `yaml:"name"`
	Table      string      `yaml:"table"`
	Schema     string      `yaml:"schema,omitempty"`
	Dimensions []Dimension `yaml:"dimensions,omitempty"`
	Measures   []Measure   `yaml:"measures"`
}

// Dimension groups levels. A dimension without Table reads its levels from the
// fact table (a degenerate dimension).
type Dimension struct {
	Name       string  `yaml:"name"`
	Table      string  `yaml:"table,omitempty"`
	ForeignKey string  `yaml:"foreign_key,omitempty"`
	PrimaryKey string  `yaml:"primary_key,omitempty"`
	Time       bool    `yaml:"time,omitempty"`
	Levels     []Level `yaml:"levels"`
}

type Level struct {
	Name          string `yaml:"name"`
	Column        string `yaml:"column"`
	Type          string `yaml:"type,omitempty"`
	LevelType     string `yaml:"level_type,omitempty"`
	UniqueMembers bool   `yaml:"unique_members,omitempty"`
}

type Measure struct {
	Name         string `yaml:"name"`
	Column       string `yaml:"column"`
	Aggregator   string `yaml:"aggregator,omitempty"`
	FormatString string `yaml:"format_string,omitempty"`
}

var aggregators = map[string]bool{
	"sum": true, "count": true, "min": true, "max": true, "avg": true, "distinct-count": true,
}

// Validate checks the model is complete enough to export.
func (m LogicalModel) Validate() error {
	if len(m.Cubes) == 0 {
		return errors.New("logical model has no cubes")
	}
	var errs []error
	for i, c := range m.Cubes {
		if err := c.validate(); err != nil {
			errs = append(errs, fmt.Errorf("cube %d (%s): %w", i, c.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (c Cube) validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return errors.New("name is required")
	case strings.TrimSpace(c.Table) == "":
		return errors.New("fact table is required")
	case len(c.Measures) == 0:
		return errors.New("at least one measure is required")
	}
	for _, d := range c.Dimensions {
		if d.Name == "" || len(d.Levels) == 0 {
			return fmt.Errorf("dimension %q needs a name and at least one level", d.Name)
		}
		if d.Table != "" && d.ForeignKey == "" {
			return fmt.Errorf("dimension %q joins table %s without a foreign key", d.Name, d.Table)
		}
		for _, l := range d.Levels {
			if l.Name == "" || l.Column == "" {
				return fmt.Errorf("dimension %q has a level without name or column", d.Name)
			}
		}
	}
	for _, m := range c.Measures {
		if m.Name == "" || m.Column == "" {
			return errors.New("measure needs a name and a column")
		}
		if m.Aggregator != "" && !aggregators[strings.ToLower(m.Aggregator)] {
			return fmt.Errorf("measure %q: unknown aggregator %q", m.Name, m.Aggregator)
		}
	}
	return nil
}
