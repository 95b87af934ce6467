package datasource

import "strings"

// Dialect describes how a database type is reached over JDBC on the server.
type Dialect struct {
	// ShortName is the server's identifier for the database type (e.g. POSTGRESQL).
	ShortName   string
	Name        string
	DriverClass string
	DefaultPort int
}

var knownDialects = []Dialect{
	{ShortName: "POSTGRESQL", Name: "PostgreSQL", DriverClass: "org.postgresql.Driver", DefaultPort: 5432},
	{ShortName: "ORACLE", Name: "Oracle", DriverClass: "oracle.jdbc.driver.OracleDriver", DefaultPort: 1521},
	{ShortName: "MYSQL", Name: "MySQL", DriverClass: "org.gjt.mm.mysql.Driver", DefaultPort: 3306},
	{ShortName: "MSSQL", Name: "MS SQL Server", DriverClass: "net.sourceforge.jtds.jdbc.Driver", DefaultPort: 1433},
	{ShortName: "MSSQLNATIVE", Name: "MS SQL Server (Native)", DriverClass: "com.microsoft.sqlserver.jdbc.SQLServerDriver", DefaultPort: 1433},
	{ShortName: "H2", Name: "H2", DriverClass: "org.h2.Driver", DefaultPort: -1},
	{ShortName: "HYPERSONIC", Name: "Hypersonic", DriverClass: "org.hsqldb.jdbcDriver", DefaultPort: 9001},
	{ShortName: "DB2", Name: "IBM DB2", DriverClass: "com.ibm.db2.jcc.DB2Driver", DefaultPort: 50000},
	{ShortName: "INFORMIX", Name: "Informix", DriverClass: "com.informix.jdbc.IfxDriver", DefaultPort: 1526},
	{ShortName: "SYBASE", Name: "Sybase", DriverClass: "net.sourceforge.jtds.jdbc.Driver", DefaultPort: 5001},
	{ShortName: "VERTICA5", Name: "Vertica 5+", DriverClass: "com.vertica.jdbc.Driver", DefaultPort: 5433},
	{ShortName: "GENERIC", Name: "Generic database", DefaultPort: -1},
}

var dialects = func() map[string]Dialect {
	m := make(map[string]Dialect, len(knownDialects))
	for _, d := range knownDialects {
		m[d.ShortName] = d
	}
	return m
}()

// NormalizeDbType maps the many spellings of a database type (DBeaver
// provider ids, JDBC protocols, casual names) onto the server short name.
func NormalizeDbType(dbType string) string {
	v := strings.ToLower(strings.TrimSpace(dbType))
	switch v {
	case "postgresql", "postgres", "pg":
		return "POSTGRESQL"
	case "oracle", "oracle:thin":
		return "ORACLE"
	case "mysql", "mariadb":
		return "MYSQL"
	case "mssql", "jtds":
		return "MSSQL"
	case "sqlserver":
		return "MSSQLNATIVE"
	case "informix-sqli":
		return "INFORMIX"
	case "hsqldb":
		return "HYPERSONIC"
	case "vertica":
		return "VERTICA5"
	default:
		return strings.ToUpper(v)
	}
}

// DialectFor returns the dialect registered for dbType.
func DialectFor(dbType string) (Dialect, bool) {
	d, ok := dialects[NormalizeDbType(dbType)]
	return d, ok
}

// DriverClass returns the JDBC driver class for dbType, or "" when the type is
// unknown.
func DriverClass(dbType string) string {
	d, ok := DialectFor(dbType)
	if !ok {
		return ""
	}
	return d.DriverClass
}
