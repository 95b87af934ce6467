// Package dbeaver reads connection definitions out of DBeaver project
// archives so they can be used as local datasources.
package dbeaver

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kamusis/modelpub/internal/datasource"
)

// ParseDBP parses a DBeaver .dbp file and returns the archive structure
func ParseDBP(path string) (*DBPArchive, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dbp file: %w", err)
	}
	defer reader.Close()

	archive := &DBPArchive{}

	for _, file := range reader.File {
		if file.Name == "meta.xml" {
			rc, err := file.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open meta.xml: %w", err)
			}
			archive.MetaXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read meta.xml: %w", err)
			}
			break
		}
	}

	dataSources, err := ExtractDataSources(&reader.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to extract data-sources.json: %w", err)
	}
	archive.DataSources = dataSources

	return archive, nil
}

// ExtractDataSources extracts and parses data-sources.json from a zip archive
func ExtractDataSources(zipReader *zip.Reader) (*DataSources, error) {
	for _, file := range zipReader.File {
		if strings.HasSuffix(file.Name, "data-sources.json") {
			rc, err := file.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open data-sources.json: %w", err)
			}
			defer rc.Close()

			data, err := io.ReadAll(rc)
			if err != nil {
				return nil, fmt.Errorf("failed to read data-sources.json: %w", err)
			}

			var dataSources DataSources
			if err := json.Unmarshal(data, &dataSources); err != nil {
				return nil, fmt.Errorf("failed to parse data-sources.json: %w", err)
			}

			return &dataSources, nil
		}
	}

	return nil, fmt.Errorf("data-sources.json not found in archive")
}

// ConnectionIDs returns the archive's connection ids in a stable order.
func (a *DBPArchive) ConnectionIDs() []string {
	if a.DataSources == nil {
		return nil
	}
	ids := make([]string, 0, len(a.DataSources.Connections))
	for id := range a.DataSources.Connections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ConvertConnection turns a DBeaver connection into a native datasource
// descriptor named prefix_<name>. Passwords are never imported.
func ConvertConnection(conn *DBeaverConnection, prefix string) (datasource.Descriptor, error) {
	if strings.TrimSpace(conn.Name) == "" {
		return datasource.Descriptor{}, fmt.Errorf("connection has no name")
	}

	dbType := InferDBType(conn.Provider, conn.Configuration.URL)
	if dbType == "" {
		return datasource.Descriptor{}, fmt.Errorf("cannot infer database type of %q", conn.Name)
	}

	host, port, database := conn.Configuration.Host, conn.Configuration.Port, conn.Configuration.Database
	if host == "" || database == "" {
		h, p, db := ParseJDBCURL(conn.Configuration.URL)
		if host == "" {
			host = h
		}
		if port == "" {
			port = p
		}
		if database == "" {
			database = db
		}
	}
	if host == "" {
		return datasource.Descriptor{}, fmt.Errorf("no host for %q", conn.Name)
	}

	name := datasource.CompatibleName(conn.Name)
	if prefix != "" {
		name = fmt.Sprintf("%s_%s", prefix, name)
	}

	return datasource.Descriptor{
		Name:     name,
		Type:     dbType,
		Access:   datasource.AccessNative,
		Host:     host,
		Port:     port,
		Database: database,
		Username: conn.Configuration.User,
	}, nil
}

// InferDBType infers the server database type from provider and JDBC URL
func InferDBType(provider, jdbcURL string) string {
	provider = strings.ToLower(provider)
	provider = strings.TrimSpace(provider)

	// The JDBC protocol wins over the provider label; Sybase connections
	// report provider=mssql.
	if strings.HasPrefix(jdbcURL, "jdbc:") {
		urlWithoutJDBC := strings.TrimPrefix(jdbcURL, "jdbc:")
		if idx := strings.Index(urlWithoutJDBC, ":"); idx != -1 {
			protocol := strings.TrimSpace(urlWithoutJDBC[:idx])
			if protocol != "" {
				return datasource.NormalizeDbType(protocol)
			}
		}
	}

	return datasource.NormalizeDbType(provider)
}

// ParseJDBCURL pulls host, port and database out of a JDBC URL.
// Example: jdbc:postgresql://host:5432/sales → host, 5432, sales
// Example: jdbc:oracle:thin:@//host:1521/ORCL → host, 1521, ORCL
// Example: jdbc:oracle:thin:@host:1521:ORCL → host, 1521, ORCL
// Example: jdbc:sqlserver://host:1433;databaseName=dw → host, 1433, dw
// Example: jdbc:sybase:Tds:host:5000?ServiceName=db → host, 5000, db
func ParseJDBCURL(jdbcURL string) (host, port, database string) {
	if !strings.HasPrefix(jdbcURL, "jdbc:") {
		return "", "", ""
	}
	rest := strings.TrimPrefix(jdbcURL, "jdbc:")

	protocolIdx := strings.Index(rest, ":")
	if protocolIdx == -1 {
		return "", "", ""
	}
	rest = rest[protocolIdx+1:]

	var params string
	if i := strings.IndexAny(rest, ";?"); i != -1 {
		rest, params = rest[:i], rest[i+1:]
	}

	switch {
	case strings.Contains(rest, "//"):
		rest = rest[strings.Index(rest, "//")+2:]
	case strings.Contains(rest, "@"):
		rest = rest[strings.Index(rest, "@")+1:]
	case strings.HasPrefix(rest, "Tds:"):
		rest = strings.TrimPrefix(rest, "Tds:")
	}

	authority := rest
	if i := strings.Index(rest, "/"); i != -1 {
		authority, database = rest[:i], rest[i+1:]
	}

	parts := strings.Split(authority, ":")
	host = parts[0]
	if len(parts) > 1 {
		port = parts[1]
	}
	if len(parts) > 2 && database == "" {
		database = parts[2]
	}

	if database == "" {
		database = paramValue(params, "databaseName", "database", "ServiceName")
	}
	return host, port, database
}

func paramValue(params string, keys ...string) string {
	for _, kv := range strings.FieldsFunc(params, func(r rune) bool { return r == ';' || r == '&' }) {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		for _, key := range keys {
			if strings.EqualFold(strings.TrimSpace(k), key) {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}
