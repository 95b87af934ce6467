package datasource

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kamusis/modelpub/internal/client"
	"github.com/kamusis/modelpub/internal/logging"
)

const (
	connectionListPath   = "plugin/data-access/api/connection/list"
	connectionGetPath    = "plugin/data-access/api/connection/getresponse"
	connectionAddPath    = "plugin/data-access/api/connection/add"
	connectionUpdatePath = "plugin/data-access/api/connection/update"
)

// API is the subset of the HTTP client the registry needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values) (*client.Response, error)
	PostJSON(ctx context.Context, path string, body any) (*client.Response, error)
}

// Registry reads and writes datasource connections on one server.
//
// Fetched connections are cached by name until a forced fetch. The cache is
// not safe for concurrent use; give each publish its own Registry.
type Registry struct {
	api    API
	cache  map[string]*Connection
	logger zerolog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

func NewRegistry(api API, opts ...RegistryOption) *Registry {
	r := &Registry{
		api:    api,
		cache:  make(map[string]*Connection),
		logger: *logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the connections registered on the server. The registry is
// advisory: failures are logged and yield an empty list.
func (r *Registry) List(ctx context.Context) []Connection {
	resp, err := r.api.Get(ctx, connectionListPath, nil)
	if err != nil {
		r.logger.Error().Err(err).Msg("list remote connections")
		return []Connection{}
	}
	if !resp.OK() {
		r.logger.Error().Int("status", resp.StatusCode).Str("body", resp.Text()).Msg("list remote connections")
		return []Connection{}
	}

	conns, err := decodeConnectionList(resp.Body)
	if err != nil {
		r.logger.Error().Err(err).Msg("decode remote connection list")
		return []Connection{}
	}
	return conns
}

// The list endpoint answers with a bare array on some server versions and
// with a wrapper object on others.
func decodeConnectionList(body []byte) ([]Connection, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var conns []Connection
		if err := json.Unmarshal(body, &conns); err != nil {
			return nil, err
		}
		return conns, nil
	}

	var wrapped struct {
		DatabaseConnections []Connection `json:"databaseConnections"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.DatabaseConnections == nil {
		return []Connection{}, nil
	}
	return wrapped.DatabaseConnections, nil
}

// Fetch returns the named connection. A cached value is returned unless
// force is set. The second result is false when the server does not have
// the connection, which is an expected answer rather than an error.
func (r *Registry) Fetch(ctx context.Context, name string, force bool) (*Connection, bool) {
	if cached, ok := r.cache[name]; ok && !force {
		return cached, true
	}

	resp, err := r.api.Get(ctx, connectionGetPath, url.Values{"name": {name}})
	if err != nil {
		r.logger.Error().Err(err).Str("connection", name).Msg("fetch remote connection")
		delete(r.cache, name)
		return nil, false
	}
	if !resp.OK() {
		r.logger.Debug().Int("status", resp.StatusCode).Str("connection", name).Str("body", resp.Text()).Msg("remote connection not available")
		delete(r.cache, name)
		return nil, false
	}

	var conn Connection
	if err := resp.DecodeJSON(&conn); err != nil {
		r.logger.Error().Err(err).Str("connection", name).Msg("decode remote connection")
		delete(r.cache, name)
		return nil, false
	}
	r.cache[name] = &conn
	return &conn, true
}

// Compare checks local against the server connection of the same name.
// JNDI and other non-native datasources are never compared field by field.
func (r *Registry) Compare(ctx context.Context, local Descriptor) Comparison {
	if !local.IsNative() {
		return comparisonOf(NotNativeAccess)
	}

	remote, ok := r.Fetch(ctx, CompatibleName(local.Name), false)
	if !ok {
		return comparisonOf(MissingOnServer)
	}

	dbMatch := strings.EqualFold(local.Database, remote.DatabaseName)
	userMatch := nullSafeEqual(optional(local.Username), remote.Username)
	driverMatch := nullSafeEqual(optional(local.Driver()), remote.DriverClass())

	r.logger.Debug().
		Str("connection", remote.Name).
		Bool("database_match", dbMatch).
		Bool("user_match", userMatch).
		Bool("driver_match", driverMatch).
		Msg("compared datasource with server")

	if dbMatch && userMatch && driverMatch {
		return comparisonOf(SameAsServer)
	}
	return comparisonOf(DifferentFromServer)
}

// Upsert creates (isUpdate false) or replaces (isUpdate true) the server
// connection for local. A single failed attempt is final.
func (r *Registry) Upsert(ctx context.Context, local Descriptor, isUpdate bool) bool {
	conn := ToConnection(local)
	path := connectionAddPath
	if isUpdate {
		path = connectionUpdatePath
	}

	resp, err := r.api.PostJSON(ctx, path, conn)
	if err != nil {
		r.logger.Error().Err(err).Str("connection", conn.Name).Bool("update", isUpdate).Msg("publish datasource")
		return false
	}
	if !resp.OK() {
		r.logger.Error().Int("status", resp.StatusCode).Str("connection", conn.Name).Bool("update", isUpdate).Str("body", resp.Text()).Msg("publish datasource rejected")
		return false
	}

	delete(r.cache, conn.Name)
	r.logger.Info().Str("connection", conn.Name).Bool("update", isUpdate).Msg("published datasource")
	return true
}
