// Package model loads workspace files: YAML documents that describe a model
// to publish, its datasource, its artifact and its logical cubes.
package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/kamusis/modelpub/internal/datasource"
	"github.com/kamusis/modelpub/internal/schema"
)

// Workspace is one publishable model.
type Workspace struct {
	// Name is the model name. It becomes the analysis catalog name and the
	// metadata domain id.
	Name       string `yaml:"name"`
	SchemaName string `yaml:"schema_name"`
	// JNDI is the server datasource the catalog queries. It defaults to the
	// server-compatible datasource name.
	JNDI string `yaml:"jndi,omitempty"`

	// Artifact is the local report or analysis file. Relative paths resolve
	// against the workspace file's directory.
	Artifact        string `yaml:"artifact,omitempty"`
	PublishArtifact bool   `yaml:"publish_artifact,omitempty"`
	// TargetPath is the repository folder the artifact is published to.
	TargetPath string `yaml:"target_path,omitempty"`

	Datasource    *datasource.Descriptor `yaml:"datasource,omitempty"`
	DatasourceRef string                 `yaml:"datasource_ref,omitempty"`

	LogicalModel schema.LogicalModel `yaml:"logical_model"`

	path string
}

// DatasourceLookup finds locally defined datasources by name.
type DatasourceLookup interface {
	Get(name string) (datasource.Descriptor, bool)
}

// Load reads, normalizes and validates the workspace at path.
func Load(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workspace %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a workspace document. path is used to resolve relative file
// references and in error messages.
func Parse(data []byte, path string) (*Workspace, error) {
	var ws Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("unmarshaling workspace from %s: %w", path, err)
	}
	ws.path = path
	ws.normalize()
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return &ws, nil
}

// Path returns the file the workspace was loaded from.
func (w *Workspace) Path() string {
	return w.path
}

func (w *Workspace) normalize() {
	w.Name = strings.TrimSpace(w.Name)
	w.SchemaName = strings.TrimSpace(w.SchemaName)
	if w.Artifact != "" && !filepath.IsAbs(w.Artifact) && w.path != "" {
		w.Artifact = filepath.Join(filepath.Dir(w.path), w.Artifact)
	}
	if w.TargetPath == "" {
		w.TargetPath = "/public"
	}
	if w.LogicalModel.Name == "" {
		w.LogicalModel.Name = w.Name
	}
	w.defaultJNDI()
}

func (w *Workspace) defaultJNDI() {
	if w.JNDI == "" && w.Datasource != nil {
		w.JNDI = datasource.CompatibleName(w.Datasource.Name)
	}
}

// Validate reports every problem found, not just the first.
func (w *Workspace) Validate() error {
	var problems []string
	if w.Name == "" {
		problems = append(problems, "name is required")
	}
	if w.SchemaName == "" {
		problems = append(problems, "schema_name is required")
	}
	switch {
	case w.Datasource == nil && w.DatasourceRef == "":
		problems = append(problems, "one of datasource or datasource_ref is required")
	case w.Datasource != nil && w.DatasourceRef != "":
		problems = append(problems, "datasource and datasource_ref are mutually exclusive")
	case w.Datasource != nil && strings.TrimSpace(w.Datasource.Name) == "":
		problems = append(problems, "datasource.name is required")
	}
	if w.PublishArtifact && w.Artifact == "" {
		problems = append(problems, "publish_artifact needs an artifact")
	}
	if err := w.LogicalModel.Validate(); err != nil {
		problems = append(problems, "logical_model: "+err.Error())
	}

	if len(problems) > 0 {
		return &ValidationError{Path: w.path, Problems: problems}
	}
	return nil
}

// ResolveDatasource replaces a datasource_ref with the named local datasource.
func (w *Workspace) ResolveDatasource(lookup DatasourceLookup) error {
	if w.Datasource != nil {
		return nil
	}
	if lookup == nil {
		return fmt.Errorf("datasource %q: no local datasources configured", w.DatasourceRef)
	}
	d, ok := lookup.Get(w.DatasourceRef)
	if !ok {
		return fmt.Errorf("datasource %q is not defined locally", w.DatasourceRef)
	}
	w.Datasource = &d
	w.defaultJNDI()
	return nil
}
