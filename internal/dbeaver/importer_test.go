package dbeaver

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/modelpub/internal/datasource"
)

func writeDBP(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.dbp")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

const dataSourcesJSON = `{
  "connections": {
    "postgres-jdbc-1": {
      "name": "Sales DW",
      "provider": "postgresql",
      "driver": "postgres-jdbc",
      "save-password": true,
      "configuration": {"host": "db.local", "port": "5432", "database": "sales", "user": "etl",
        "url": "jdbc:postgresql://db.local:5432/sales"}
    },
    "oracle-1": {
      "name": "ERP",
      "provider": "oracle",
      "configuration": {"url": "jdbc:oracle:thin:@erp-host:1521:ORCL"}
    }
  }
}`

func TestParseDBP(t *testing.T) {
	path := writeDBP(t, map[string]string{
		"meta.xml": "<project/>",
		"projects/General/.dbeaver/data-sources.json": dataSourcesJSON,
	})

	archive, err := ParseDBP(path)
	require.NoError(t, err)
	assert.Equal(t, "<project/>", string(archive.MetaXML))
	require.NotNil(t, archive.DataSources)
	assert.Equal(t, []string{"oracle-1", "postgres-jdbc-1"}, archive.ConnectionIDs())
	assert.Equal(t, "etl", archive.DataSources.Connections["postgres-jdbc-1"].Configuration.User)
}

func TestParseDBP_MissingDataSources(t *testing.T) {
	path := writeDBP(t, map[string]string{"meta.xml": "<project/>"})

	_, err := ParseDBP(path)
	assert.ErrorContains(t, err, "data-sources.json not found")
}

func TestParseDBP_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.dbp")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))

	_, err := ParseDBP(path)
	assert.Error(t, err)
}

func TestConvertConnection(t *testing.T) {
	conn := DBeaverConnection{
		Name:     "Sales DW",
		Provider: "postgresql",
		Configuration: ConnectionConfig{
			Host: "db.local", Port: "5432", Database: "sales", User: "etl",
		},
	}

	d, err := ConvertConnection(&conn, "")
	require.NoError(t, err)
	assert.Equal(t, datasource.Descriptor{
		Name: "Sales_DW", Type: "POSTGRESQL", Access: datasource.AccessNative,
		Host: "db.local", Port: "5432", Database: "sales", Username: "etl",
	}, d)

	d, err = ConvertConnection(&conn, "dbv")
	require.NoError(t, err)
	assert.Equal(t, "dbv_Sales_DW", d.Name)
}

func TestConvertConnection_FromURL(t *testing.T) {
	conn := DBeaverConnection{
		Name:          "ERP",
		Provider:      "mssql",
		Configuration: ConnectionConfig{URL: "jdbc:sybase:Tds:syb-host:5000?ServiceName=ledger"},
	}

	d, err := ConvertConnection(&conn, "")
	require.NoError(t, err)
	assert.Equal(t, "SYBASE", d.Type)
	assert.Equal(t, "syb-host", d.Host)
	assert.Equal(t, "5000", d.Port)
	assert.Equal(t, "ledger", d.Database)
}

func TestConvertConnection_Errors(t *testing.T) {
	_, err := ConvertConnection(&DBeaverConnection{Provider: "postgresql"}, "")
	assert.Error(t, err)

	_, err = ConvertConnection(&DBeaverConnection{Name: "x", Provider: "postgresql"}, "")
	assert.ErrorContains(t, err, "no host")
}

func TestInferDBType(t *testing.T) {
	tests := []struct {
		provider string
		url      string
		want     string
	}{
		{"postgresql", "", "POSTGRESQL"},
		{"mssql", "jdbc:sybase:Tds:host:5000", "SYBASE"},
		{"generic", "jdbc:mysql://h/db", "MYSQL"},
		{" Oracle ", "", "ORACLE"},
		{"", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferDBType(tt.provider, tt.url), tt.provider+" "+tt.url)
	}
}

func TestParseJDBCURL(t *testing.T) {
	tests := []struct {
		url                  string
		host, port, database string
	}{
		{"jdbc:postgresql://host:5432/sales", "host", "5432", "sales"},
		{"jdbc:oracle:thin:@//host:1521/ORCL", "host", "1521", "ORCL"},
		{"jdbc:oracle:thin:@host:1521:ORCL", "host", "1521", "ORCL"},
		{"jdbc:sqlserver://host:1433;databaseName=dw", "host", "1433", "dw"},
		{"jdbc:sybase:Tds:host:5000?ServiceName=db", "host", "5000", "db"},
		{"jdbc:mysql://host/db?useSSL=false", "host", "", "db"},
		{"postgresql://host/db", "", "", ""},
	}
	for _, tt := range tests {
		h, p, db := ParseJDBCURL(tt.url)
		assert.Equal(t, []string{tt.host, tt.port, tt.database}, []string{h, p, db}, tt.url)
	}
}
