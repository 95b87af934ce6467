package config

import (
	"fmt"
	"sort"

	"github.com/kamusis/modelpub/internal/datasource"
)

const datasourcesFile = "datasources.json"

// Datasources represents the datasources.json structure
type Datasources struct {
	Version     int                              `json:"version"`
	Datasources map[string]datasource.Descriptor `json:"datasources"`
}

// LoadDatasources loads local datasources from ~/.modelpub/datasources.json.
// Passwords are not filled in; see ResolvePassword.
func LoadDatasources() (*Datasources, error) {
	ds := &Datasources{Version: 1, Datasources: map[string]datasource.Descriptor{}}
	if _, err := readJSON(datasourcesFile, ds); err != nil {
		return nil, fmt.Errorf("loading %s: %w", datasourcesFile, err)
	}
	if ds.Datasources == nil {
		ds.Datasources = map[string]datasource.Descriptor{}
	}
	for name, d := range ds.Datasources {
		if d.Name == "" {
			d.Name = name
			ds.Datasources[name] = d
		}
	}
	return ds, nil
}

func SaveDatasources(ds *Datasources) error {
	return writeJSON(datasourcesFile, ds)
}

// Get returns the named datasource with its stored password.
func (ds *Datasources) Get(name string) (datasource.Descriptor, bool) {
	d, ok := ds.Datasources[name]
	if !ok {
		return datasource.Descriptor{}, false
	}
	_ = ResolvePassword(&d)
	return d, true
}

// Names returns the datasource names in sorted order.
func (ds *Datasources) Names() []string {
	names := make([]string, 0, len(ds.Datasources))
	for name := range ds.Datasources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddDatasource stores d under its name with conflict handling. A non-empty
// password goes to the credentials store. It reports whether d was written.
func AddDatasource(d datasource.Descriptor, strategy ConflictStrategy) (bool, error) {
	ds, err := LoadDatasources()
	if err != nil {
		return false, err
	}

	if _, exists := ds.Datasources[d.Name]; exists {
		switch strategy {
		case ConflictSkip:
			return false, nil
		case ConflictOverwrite:
		default:
			return false, fmt.Errorf("datasource %s: %w", d.Name, ErrExists)
		}
	}

	ds.Datasources[d.Name] = d
	if err := SaveDatasources(ds); err != nil {
		return false, err
	}
	if d.Password != "" {
		if err := SetCredentials(DatasourceCredentialKey(d.Name), d.Username, d.Password); err != nil {
			return true, err
		}
	}
	return true, nil
}

// ResolvePassword fills d.Password from the credentials store when it is
// empty.
func ResolvePassword(d *datasource.Descriptor) error {
	if d.Password != "" {
		return nil
	}
	_, password, err := GetCredentials(DatasourceCredentialKey(d.Name))
	if err != nil {
		return err
	}
	d.Password = password
	return nil
}
