package config

import (
	"fmt"
	"sort"
)

const serversFile = "servers.json"

// Servers represents the servers.json structure
type Servers struct {
	Version int               `json:"version"`
	Servers map[string]Server `json:"servers"`
}

// Server is a BI server profile. The password lives in the credentials store.
type Server struct {
	URL          string `json:"url"`
	Username     string `json:"username"`
	SavePassword bool   `json:"save_password"`
}

// LoadServers loads profiles from ~/.modelpub/servers.json
func LoadServers() (*Servers, error) {
	servers := &Servers{Version: 1, Servers: map[string]Server{}}
	if _, err := readJSON(serversFile, servers); err != nil {
		return nil, fmt.Errorf("loading %s: %w", serversFile, err)
	}
	if servers.Servers == nil {
		servers.Servers = map[string]Server{}
	}
	return servers, nil
}

func SaveServers(servers *Servers) error {
	return writeJSON(serversFile, servers)
}

// GetServer retrieves a server by name. A missing server is (nil, nil).
func GetServer(name string) (*Server, error) {
	servers, err := LoadServers()
	if err != nil {
		return nil, err
	}
	s, exists := servers.Servers[name]
	if !exists {
		return nil, nil
	}
	return &s, nil
}

// AddServer adds a server with conflict handling. It reports whether the
// server was written.
func AddServer(name string, server Server, strategy ConflictStrategy) (bool, error) {
	servers, err := LoadServers()
	if err != nil {
		return false, err
	}

	if _, exists := servers.Servers[name]; exists {
		switch strategy {
		case ConflictSkip:
			return false, nil
		case ConflictOverwrite:
		default:
			return false, fmt.Errorf("server %s: %w", name, ErrExists)
		}
	}

	servers.Servers[name] = server
	return true, SaveServers(servers)
}

// RemoveServer deletes a server and its stored password.
func RemoveServer(name string) (bool, error) {
	servers, err := LoadServers()
	if err != nil {
		return false, err
	}
	if _, exists := servers.Servers[name]; !exists {
		return false, nil
	}
	delete(servers.Servers, name)
	if err := SaveServers(servers); err != nil {
		return false, err
	}
	return true, DeleteCredentials(ServerCredentialKey(name))
}

// Names returns the server names in sorted order.
func (s *Servers) Names() []string {
	names := make([]string, 0, len(s.Servers))
	for name := range s.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
