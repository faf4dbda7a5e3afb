// Package config parses the server and client CLI surfaces described in
// spec.md §6, using pflag for POSIX-style double-dash flags in place of
// the teacher's hand-rolled INI file reader.
package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ServerConfig is the server's CLI surface: --host, --port, --password
// and --audit-dsn.
type ServerConfig struct {
	Host     string
	Port     uint16
	Password string

	// AuditDSN, if set, enables the optional MySQL audit sink (see
	// internal/audit). Absent DSN means audit is a no-op.
	AuditDSN string
}

// ParseServerConfig parses args (typically os.Args[1:]) into a
// ServerConfig.
func ParseServerConfig(args []string) (ServerConfig, error) {
	fs := pflag.NewFlagSet("echosphere-server", pflag.ContinueOnError)

	host := fs.String("host", "0.0.0.0", "address to listen on")
	port := fs.Uint16("port", 12300, "port to listen on")
	password := fs.String("password", "", "shared server password (absent = no password required)")
	auditDSN := fs.String("audit-dsn", "", "MySQL DSN for the optional connection audit sink")

	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, fmt.Errorf("config: %w", err)
	}

	return ServerConfig{
		Host:     *host,
		Port:     *port,
		Password: *password,
		AuditDSN: *auditDSN,
	}, nil
}

// ClientConfig is the client's CLI surface.
type ClientConfig struct {
	Host     string
	Port     uint16
	Username string
	Password string
}

// ParseClientConfig parses args (typically os.Args[1:]) into a
// ClientConfig. Username/host are optional on the CLI; the terminal UI
// prompts for anything left unset, matching client/main.py's
// _config_prompt.
func ParseClientConfig(args []string) (ClientConfig, error) {
	fs := pflag.NewFlagSet("echosphere-client", pflag.ContinueOnError)

	host := fs.String("host", "localhost", "server host")
	port := fs.Uint16("port", 12300, "server port")
	username := fs.String("username", "", "display name to log in with")
	password := fs.String("password", "", "server password, if required")

	if err := fs.Parse(args); err != nil {
		return ClientConfig{}, fmt.Errorf("config: %w", err)
	}

	return ClientConfig{
		Host:     *host,
		Port:     *port,
		Username: *username,
		Password: *password,
	}, nil
}
