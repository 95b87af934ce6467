package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/modelpub/internal/config"
)

// executeRootCmd runs the cobra root command with the given args and captures stdout/stderr.
func executeRootCmd(t *testing.T, args ...string) (stdout string, stderr string, err error) {
	t.Helper()

	// Cobra commands are global singletons in this package; avoid parallel execution.
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	resetFlags(rootCmd)
	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(errBuf)
	rootCmd.SetArgs(args)

	err = rootCmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// resetFlags puts every flag of c and its subcommands back to its default so
// one run's flags, --help included, do not carry into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// TestCLI_HelpSmoke verifies that the CLI command tree is wired and can render help.
func TestCLI_HelpSmoke(t *testing.T) {
	stdout, _, err := executeRootCmd(t, "--help")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !strings.Contains(stdout, "Usage:") || !strings.Contains(stdout, "modelpub [command]") {
		t.Fatalf("expected help output to include usage for modelpub, got: %q", stdout)
	}
}

// TestCLI_SubcommandHelpSmoke verifies key subcommands can render help without backend access.
func TestCLI_SubcommandHelpSmoke(t *testing.T) {
	cases := []struct {
		name        string
		args        []string
		wantSubstrs []string
	}{
		{name: "publish_help", args: []string{"publish", "--help"}, wantSubstrs: []string{"publish", "--check-datasource"}},
		{name: "publish_report_help", args: []string{"publish-report", "--help"}, wantSubstrs: []string{"--metadata"}},
		{name: "datasource_help", args: []string{"datasource", "--help"}, wantSubstrs: []string{"compare", "import-dbeaver", "sync"}},
		{name: "tree_help", args: []string{"tree", "--help"}, wantSubstrs: []string{"--depth"}},
		{name: "server_help", args: []string{"server", "--help"}, wantSubstrs: []string{"add", "use"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			stdout, _, err := executeRootCmd(t, tc.args...)
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			for _, sub := range tc.wantSubstrs {
				if !strings.Contains(strings.ToLower(stdout), strings.ToLower(sub)) {
					t.Fatalf("expected help output to contain %q, got: %q", sub, stdout)
				}
			}
		})
	}
}

const cliWorkspace = `
name: Sales
schema_name: sales.mondrian.xml
artifact: sales.xmi
datasource:
  name: Sales DW
  type: POSTGRESQL
  host: db.local
  database: dw
  username: etl
logical_model:
  cubes:
    - name: Sales
      table: fact_sales
      dimensions:
        - name: Region
          levels:
            - name: Region
              column: region
      measures:
        - name: Revenue
          column: revenue
          aggregator: sum
`

type recordingServer struct {
	*httptest.Server
	mu    sync.Mutex
	calls []string
}

func newRecordingServer(t *testing.T, reply func(r *http.Request) (int, string)) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.calls = append(rs.calls, r.Method+" "+r.URL.Path)
		rs.mu.Unlock()

		if user, pass, ok := r.BasicAuth(); !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		status, body := reply(r)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) recorded() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string(nil), rs.calls...)
}

func setupCLIHome(t *testing.T, serverURL string) string {
	t.Helper()
	t.Setenv(config.HomeEnv, t.TempDir())
	t.Setenv(passwordEnv, "secret")
	_, err := config.AddServer("test", config.Server{URL: serverURL + "/", Username: "admin"}, config.ConflictOverwrite)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.xmi"), []byte("<xmi/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.yaml"), []byte(cliWorkspace), 0o644))
	return dir
}

func TestCLI_PublishWorkspace(t *testing.T) {
	srv := newRecordingServer(t, func(*http.Request) (int, string) { return http.StatusOK, "3" })
	dir := setupCLIHome(t, srv.URL)
	staging := filepath.Join(dir, "staging")

	stdout, _, err := executeRootCmd(t, "publish", filepath.Join(dir, "sales.yaml"),
		"--server", "test", "--staging-dir", staging, "--log-level", "error")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"POST /plugin/data-access/api/mondrian/postAnalysis",
		"PUT /plugin/data-access/api/metadata/import",
	}, srv.recorded())
	assert.FileExists(t, filepath.Join(staging, "sales.mondrian.xml"))
	assert.Contains(t, stdout, "[Publish to test] Publish was successful.")
}

func TestCLI_FlagsDoNotLeakBetweenRuns(t *testing.T) {
	srv := newRecordingServer(t, func(*http.Request) (int, string) { return http.StatusOK, "3" })
	dir := setupCLIHome(t, srv.URL)
	ws := filepath.Join(dir, "sales.yaml")

	help, _, err := executeRootCmd(t, "publish", "--help", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, help, "--check-datasource")
	assert.Empty(t, srv.recorded())

	stdout, _, err := executeRootCmd(t, "publish", ws,
		"--server", "test", "--staging-dir", filepath.Join(dir, "staging"), "--log-level", "error")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "Publish was successful.")
	assert.Len(t, srv.recorded(), 2)

	quiet, err := publishCmd.Flags().GetBool("quiet")
	require.NoError(t, err)
	assert.False(t, quiet)
}

func TestCLI_PublishWorkspaceFailureExitsWithError(t *testing.T) {
	srv := newRecordingServer(t, func(*http.Request) (int, string) { return http.StatusOK, "2" })
	dir := setupCLIHome(t, srv.URL)

	stdout, _, err := executeRootCmd(t, "publish", filepath.Join(dir, "sales.yaml"),
		"--server", "test", "--staging-dir", filepath.Join(dir, "staging"), "--log-level", "error")
	require.Error(t, err)

	var oe *outcomeError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, []string{"POST /plugin/data-access/api/mondrian/postAnalysis"}, srv.recorded())
	assert.Contains(t, stdout, "failed")
}

func TestCLI_ServerCommands(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())

	_, _, err := executeRootCmd(t, "server", "add", "prod", "http://bi.local:8080/pentaho", "--username", "admin")
	require.NoError(t, err)

	stdout, _, err := executeRootCmd(t, "server", "ls", "--plain")
	require.NoError(t, err)
	assert.Contains(t, stdout, "prod")
	assert.Contains(t, stdout, "http://bi.local:8080/pentaho/")

	cfgPath, err := config.GetConfigPath()
	require.NoError(t, err)
	saved, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(saved), "current_server: prod")

	_, _, err = executeRootCmd(t, "server", "use", "missing")
	assert.Error(t, err)

	_, _, err = executeRootCmd(t, "server", "rm", "prod")
	require.NoError(t, err)
	s, err := config.GetServer("prod")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestCLI_ExistsUsesRepositoryTree(t *testing.T) {
	srv := newRecordingServer(t, func(*http.Request) (int, string) {
		return http.StatusOK, `{"file":{"name":"public","path":"/public","folder":true},
			"children":[{"file":{"name":"sales.prpt","path":"/public/sales.prpt","folder":false}}]}`
	})
	setupCLIHome(t, srv.URL)

	stdout, _, err := executeRootCmd(t, "exists", "/public", "sales.prpt", "--server", "test", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sales.prpt exists in /public")
	assert.Equal(t, []string{"GET /api/repo/files/:public/tree"}, srv.recorded())

	_, _, err = executeRootCmd(t, "exists", "/public", "other.prpt", "--server", "test", "--log-level", "error")
	assert.Error(t, err)
}
