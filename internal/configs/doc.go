// Package configs manages the zkgit configuration file.
//
// Configuration is stored in TOML format at
// $XDG_CONFIG_HOME/zkgit/config.toml:
//
//	server_url      = "https://git.example.com"
//	bridge_port     = 10101
//	repos_path      = "/home/alice/.local/share/zkgit/repos"
//	timeout_seconds = 30
//	client_id       = "3f2b..."
//
// Missing fields take their defaults. The client ID is generated on first
// use and identifies this installation in the audit trail.
//
// # Overrides
//
// ZKGIT_SERVER_URL and ZKGIT_BRIDGE_PORT take precedence over the file.
//
// # Settings
//
// DefaultSettings resolves the config file and data directory from the XDG
// base directories. Nothing is resolved at package init.
package configs
