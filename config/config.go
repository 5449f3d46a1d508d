// Package config loads and validates the cluster configuration file: the
// server list, which protocol variant to run, and the read/write quorum
// sizes.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// Protocol selects which register variant a client or server runs.
type Protocol string

const (
	ProtocolABD      Protocol = "abd"
	ProtocolBlocking Protocol = "blocking"
)

// ServerSpec is one replica's identity and address, as written in the
// config file's "servers" array.
type ServerSpec struct {
	ID   int32  `json:"id"`
	Host string `json:"host"`
	Port int32  `json:"port"`
}

// Address returns the server's "host:port" dial string.
func (s ServerSpec) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Config is the parsed, validated contents of a cluster configuration file.
type Config struct {
	Servers     []ServerSpec `json:"servers"`
	Protocol    Protocol     `json:"protocol"`
	ReadQuorum  int32        `json:"read_quorum"`
	WriteQuorum int32        `json:"write_quorum"`
	NumReplicas int32        `json:"num_replicas"`
}

// Load reads and parses the configuration file at path, then validates it.
// A validation failure is a fatal configuration error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the configuration for structural errors. Quorums exceeding
// the server count are a fatal error; a mismatched num_replicas or a
// quorum pair that doesn't guarantee R+W>N is only a warning.
func (c *Config) Validate() error {
	if len(c.Servers) == 0 {
		return fmt.Errorf("config error: no servers configured")
	}
	if c.ReadQuorum <= 0 || c.WriteQuorum <= 0 {
		return fmt.Errorf("config error: quorums must be positive (read=%d, write=%d)", c.ReadQuorum, c.WriteQuorum)
	}
	n := int32(len(c.Servers))
	if c.ReadQuorum > n || c.WriteQuorum > n {
		return fmt.Errorf("config error: quorum (read=%d, write=%d) exceeds server count %d", c.ReadQuorum, c.WriteQuorum, n)
	}
	if c.Protocol != ProtocolABD && c.Protocol != ProtocolBlocking {
		return fmt.Errorf("config error: unknown protocol %q", c.Protocol)
	}

	if c.NumReplicas != 0 && c.NumReplicas != n {
		log.Warnf("config: num_replicas=%d does not match servers.length=%d", c.NumReplicas, n)
	}
	if c.ReadQuorum+c.WriteQuorum <= n {
		log.Warnf("config: read_quorum(%d)+write_quorum(%d) <= %d servers; linearizability is not guaranteed", c.ReadQuorum, c.WriteQuorum, n)
	}
	return nil
}

// Server returns the ServerSpec with the given id, and whether it was found.
func (c *Config) Server(id int32) (ServerSpec, bool) {
	for _, s := range c.Servers {
		if s.ID == id {
			return s, true
		}
	}
	return ServerSpec{}, false
}
