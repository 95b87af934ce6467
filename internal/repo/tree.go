// Package repo reads the folder and file tree of the BI server repository.
package repo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kamusis/modelpub/internal/client"
	"github.com/kamusis/modelpub/internal/logging"
)

const (
	filesPath = "api/repo/files"

	// RootPath is the encoded form of the repository root.
	RootPath = ":"
)

// Node is one file or folder of the repository tree. A tree is built fresh for
// every fetch.
type Node struct {
	Path     string
	Name     string
	Folder   bool
	Hidden   bool
	Children []Node
}

// IsEmpty reports whether the node carries nothing, which is what a failed
// fetch returns.
func (n Node) IsEmpty() bool {
	return n.Path == "" && n.Name == "" && len(n.Children) == 0
}

// TreeOptions bound a tree fetch.
type TreeOptions struct {
	// Depth limits recursion; -1 means unlimited.
	Depth      int
	Filter     string
	ShowHidden bool
}

// DefaultTreeOptions fetches the whole tree, hidden files excluded.
func DefaultTreeOptions() TreeOptions {
	return TreeOptions{Depth: -1, Filter: "*"}
}

// API is the subset of the HTTP client the tree client needs.
type API interface {
	GetRaw(ctx context.Context, pathAndQuery string) (*client.Response, error)
}

// TreeClient fetches repository trees from one server.
type TreeClient struct {
	api    API
	logger zerolog.Logger
}

// Option configures a TreeClient.
type Option func(*TreeClient)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *TreeClient) {
		c.logger = logger
	}
}

func NewTreeClient(api API, opts ...Option) *TreeClient {
	c := &TreeClient{api: api, logger: *logging.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EncodePath turns a repository path into the colon-separated form the files
// API expects. The root and the empty path both encode to ":".
func EncodePath(path string) string {
	if path == "" || path == "/" {
		return RootPath
	}
	return strings.ReplaceAll(path, "/", ":")
}

func treeRequest(path string, opts TreeOptions) string {
	filter := opts.Filter
	if filter == "" {
		filter = "*"
	}
	q := url.Values{}
	q.Set("depth", strconv.Itoa(opts.Depth))
	q.Set("filter", filter)
	q.Set("showHidden", strconv.FormatBool(opts.ShowHidden))
	return fmt.Sprintf("%s/%s/tree?%s", filesPath, url.PathEscape(EncodePath(path)), q.Encode())
}

// FetchTree returns the tree under path. Failures are logged and produce an
// empty node.
func (c *TreeClient) FetchTree(ctx context.Context, path string, opts TreeOptions) Node {
	resp, err := c.api.GetRaw(ctx, treeRequest(path, opts))
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("fetch repository tree")
		return Node{}
	}
	if !resp.OK() {
		c.logger.Error().Int("status", resp.StatusCode).Str("path", path).Msg("fetch repository tree")
		return Node{}
	}

	var dto treeDTO
	if err := resp.DecodeJSON(&dto); err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("decode repository tree")
		return Node{}
	}
	return dto.node()
}

// ContainsFile reports whether a file called name sits directly in the folder
// at path. Sub-folders are not searched and folders never match.
func (c *TreeClient) ContainsFile(ctx context.Context, path, name string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, &ValidationError{Field: "path", Reason: "must not be empty"}
	}
	if strings.TrimSpace(name) == "" {
		return false, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	opts := DefaultTreeOptions()
	opts.Depth = 1
	tree := c.FetchTree(ctx, path, opts)
	for _, child := range tree.Children {
		if !child.Folder && child.Name == name {
			return true, nil
		}
	}
	return false, nil
}
