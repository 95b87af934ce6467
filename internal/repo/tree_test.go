package repo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/modelpub/internal/client"
	"github.com/kamusis/modelpub/internal/logging"
)

const publicTree = `{
	"file": {"name": "public", "path": "/public", "folder": true},
	"children": [
		{"file": {"name": "sales.xanalyzer", "path": "/public/sales.xanalyzer", "folder": false}},
		{"file": {"name": "Reports", "path": "/public/Reports", "folder": "true"},
		 "children": [
			{"file": {"name": "q1.prpt", "path": "/public/Reports/q1.prpt", "folder": false}},
			{"file": {"name": "Archive", "path": "/public/Reports/Archive", "folder": true}}
		 ]},
		{"file": {"name": ".trash", "path": "/public/.trash", "folder": true, "hidden": true}}
	]
}`

func treeServer(t *testing.T, status int, body string) (*TreeClient, *[]*http.Request) {
	t.Helper()
	var got []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := client.NewClient(srv.URL+"/pentaho/", 2*time.Second)
	return NewTreeClient(c, WithLogger(logging.Nop)), &got
}

func TestEncodePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ":"},
		{"/", ":"},
		{"a/b", "a:b"},
		{"/public/Sales Reports", ":public:Sales Reports"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EncodePath(tt.in), tt.in)
	}
}

func TestFetchTree_RequestShape(t *testing.T) {
	tc, got := treeServer(t, http.StatusOK, publicTree)

	tree := tc.FetchTree(context.Background(), "a/b", TreeOptions{Depth: 3, Filter: "*.prpt", ShowHidden: true})
	require.False(t, tree.IsEmpty())

	require.Len(t, *got, 1)
	r := (*got)[0]
	assert.Equal(t, http.MethodGet, r.Method)
	assert.Equal(t, "/pentaho/api/repo/files/a:b/tree", r.URL.Path)
	assert.Equal(t, "3", r.URL.Query().Get("depth"))
	assert.Equal(t, "*.prpt", r.URL.Query().Get("filter"))
	assert.Equal(t, "true", r.URL.Query().Get("showHidden"))
}

func TestFetchTree_DefaultsToRoot(t *testing.T) {
	tc, got := treeServer(t, http.StatusOK, publicTree)

	tc.FetchTree(context.Background(), "", DefaultTreeOptions())

	require.Len(t, *got, 1)
	r := (*got)[0]
	assert.Equal(t, "/pentaho/api/repo/files/:/tree", r.URL.Path)
	assert.Equal(t, "-1", r.URL.Query().Get("depth"))
	assert.Equal(t, "*", r.URL.Query().Get("filter"))
	assert.Equal(t, "false", r.URL.Query().Get("showHidden"))
}

func TestFetchTree_Decodes(t *testing.T) {
	tc, _ := treeServer(t, http.StatusOK, publicTree)

	tree := tc.FetchTree(context.Background(), "/public", DefaultTreeOptions())
	assert.Equal(t, "public", tree.Name)
	assert.True(t, tree.Folder)
	require.Len(t, tree.Children, 3)
	assert.Equal(t, "sales.xanalyzer", tree.Children[0].Name)
	assert.False(t, tree.Children[0].Folder)
	assert.True(t, tree.Children[1].Folder)
	require.Len(t, tree.Children[1].Children, 2)
	assert.True(t, tree.Children[2].Hidden)
}

func TestFetchTree_FailuresYieldEmptyTree(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		tc, _ := treeServer(t, http.StatusInternalServerError, "boom")
		assert.True(t, tc.FetchTree(context.Background(), "/public", DefaultTreeOptions()).IsEmpty())
	})
	t.Run("bad json", func(t *testing.T) {
		tc, _ := treeServer(t, http.StatusOK, "<html/>")
		assert.True(t, tc.FetchTree(context.Background(), "/public", DefaultTreeOptions()).IsEmpty())
	})
	t.Run("unreachable", func(t *testing.T) {
		tc := NewTreeClient(client.NewClient("http://127.0.0.1:1", 200*time.Millisecond), WithLogger(logging.Nop))
		assert.True(t, tc.FetchTree(context.Background(), "/public", DefaultTreeOptions()).IsEmpty())
	})
}

func TestContainsFile(t *testing.T) {
	tc, got := treeServer(t, http.StatusOK, publicTree)
	ctx := context.Background()

	ok, err := tc.ContainsFile(ctx, "/public", "sales.xanalyzer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", (*got)[0].URL.Query().Get("depth"))

	tests := []struct {
		name string
		file string
	}{
		{"nested file is not a direct child", "q1.prpt"},
		{"folders never match", "Reports"},
		{"match is case-sensitive", "Sales.xanalyzer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tc.ContainsFile(ctx, "/public", tt.file)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestContainsFile_ValidatesBeforeNetwork(t *testing.T) {
	tc, got := treeServer(t, http.StatusOK, publicTree)

	for _, args := range [][2]string{{"", "x"}, {"/public", ""}, {"  ", "x"}} {
		ok, err := tc.ContainsFile(context.Background(), args[0], args[1])
		assert.False(t, ok)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), "%q", args)
	}
	assert.Empty(t, *got)
}

func TestFolders(t *testing.T) {
	tc, _ := treeServer(t, http.StatusOK, publicTree)
	tree := tc.FetchTree(context.Background(), "/public", DefaultTreeOptions())

	folders := Folders(tree)
	require.Len(t, folders, 2)
	assert.Equal(t, Folder{Path: "/public/Reports", Name: "Reports", Depth: 0}, folders[0])
	assert.Equal(t, Folder{Path: "/public/Reports/Archive", Name: "Archive", Depth: 1}, folders[1])
	assert.Equal(t, "  Archive", folders[1].Indented())

	assert.Empty(t, Folders(Node{}))
}
