// Package datasource compares locally defined datasources with the
// connections registered on a BI server and creates or updates them there.
package datasource

import (
	"strconv"
	"strings"
)

// AccessType is how the server reaches the database.
type AccessType string

const (
	AccessNative AccessType = "NATIVE"
	AccessJNDI   AccessType = "JNDI"
	AccessODBC   AccessType = "ODBC"
)

// Descriptor is a datasource as the operator defined it locally.
type Descriptor struct {
	Name     string     `json:"name" yaml:"name"`
	Type     string     `json:"type" yaml:"type"`
	Access   AccessType `json:"access,omitempty" yaml:"access,omitempty"`
	Host     string     `json:"host,omitempty" yaml:"host,omitempty"`
	Port     string     `json:"port,omitempty" yaml:"port,omitempty"`
	Database string     `json:"database,omitempty" yaml:"database,omitempty"`
	Username string     `json:"username,omitempty" yaml:"username,omitempty"`
	// Password never touches datasources.json; it lives in the encrypted
	// credentials store or comes from the environment.
	Password string `json:"-" yaml:"-"`
	// DriverClass overrides the driver implied by Type.
	DriverClass    string `json:"driver_class,omitempty" yaml:"driver_class,omitempty"`
	ForceLowercase bool   `json:"force_lowercase,omitempty" yaml:"force_lowercase,omitempty"`
	QuoteAllFields bool   `json:"quote_all_fields,omitempty" yaml:"quote_all_fields,omitempty"`
}

// AccessMode returns the access type, defaulting to native.
func (d Descriptor) AccessMode() AccessType {
	if d.Access == "" {
		return AccessNative
	}
	return AccessType(strings.ToUpper(string(d.Access)))
}

// IsNative reports whether connection parameters are published directly
// rather than through a server-managed JNDI name.
func (d Descriptor) IsNative() bool {
	return d.AccessMode() == AccessNative
}

// Driver returns the JDBC driver class used to reach the database.
func (d Descriptor) Driver() string {
	if d.DriverClass != "" {
		return d.DriverClass
	}
	return DriverClass(d.Type)
}

// EffectivePort returns the configured port or the dialect default.
func (d Descriptor) EffectivePort() string {
	if d.Port != "" {
		return d.Port
	}
	if dialect, ok := DialectFor(d.Type); ok && dialect.DefaultPort > 0 {
		return strconv.Itoa(dialect.DefaultPort)
	}
	return ""
}

// CompatibleName turns a local datasource name into one the server accepts
// as a connection name.
func CompatibleName(name string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, strings.TrimSpace(name))
}
