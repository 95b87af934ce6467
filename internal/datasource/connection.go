package datasource

import "strings"

// DatabaseType identifies the server-side dialect of a connection.
type DatabaseType struct {
	Name                string `json:"name"`
	ShortName           string `json:"shortName"`
	DefaultDatabasePort int    `json:"defaultDatabasePort,omitempty"`
}

// Connection is the server's representation of a datasource. Field names
// follow the server's JSON contract.
type Connection struct {
	ID                            string        `json:"id,omitempty"`
	Name                          string        `json:"name"`
	Hostname                      string        `json:"hostname,omitempty"`
	DatabaseName                  string        `json:"databaseName,omitempty"`
	DatabasePort                  string        `json:"databasePort,omitempty"`
	Username                      *string       `json:"username,omitempty"`
	Password                      string        `json:"password,omitempty"`
	AccessType                    AccessType    `json:"accessType"`
	DatabaseType                  *DatabaseType `json:"databaseType,omitempty"`
	ForcingIdentifiersToLowerCase bool          `json:"forcingIdentifiersToLowerCase"`
	QuoteAllFields                bool          `json:"quoteAllFields"`
}

// DriverClass returns the driver the server will use for this connection, or
// nil when the database type is missing or unknown.
func (c *Connection) DriverClass() *string {
	if c == nil || c.DatabaseType == nil {
		return nil
	}
	d := DriverClass(c.DatabaseType.ShortName)
	if d == "" {
		return nil
	}
	return &d
}

// ToConnection maps a local descriptor onto the wire shape. Published
// connections are always native: the server cannot publish a JNDI name.
func ToConnection(d Descriptor) Connection {
	conn := Connection{
		Name:                          CompatibleName(d.Name),
		Hostname:                      d.Host,
		DatabaseName:                  d.Database,
		DatabasePort:                  d.EffectivePort(),
		Username:                      optional(d.Username),
		Password:                      d.Password,
		AccessType:                    AccessNative,
		ForcingIdentifiersToLowerCase: d.ForceLowercase,
		QuoteAllFields:                d.QuoteAllFields,
	}
	conn.DatabaseType = DatabaseTypeFor(d.Type)
	return conn
}

// DatabaseTypeFor builds the wire database type for dbType. Unknown types are
// passed through with a normalized short name; an empty type yields nil.
func DatabaseTypeFor(dbType string) *DatabaseType {
	if dialect, ok := DialectFor(dbType); ok {
		return &DatabaseType{
			Name:                dialect.Name,
			ShortName:           dialect.ShortName,
			DefaultDatabasePort: dialect.DefaultPort,
		}
	}
	if strings.TrimSpace(dbType) == "" {
		return nil
	}
	return &DatabaseType{Name: dbType, ShortName: NormalizeDbType(dbType)}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullSafeEqual treats two absent values as equal and an absent value as
// different from any present one.
func nullSafeEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
