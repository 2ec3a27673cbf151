// Package config handles configuration loading for sgu-admin.
//
// # Overview
//
// Configuration is optional. When no file exists the console runs with
// Default(), which targets the local API from loopback hosts and the public
// API from everywhere else.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from SGU_CONFIG environment variable
//  2. ~/.config/sgu-admin/config.yaml (or $XDG_CONFIG_HOME)
//
// Files ending in .toml are decoded as TOML; anything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	api:
//	  public_url: "${SGU_API_URL}"
//
// # Configuration Sections
//
// API endpoints:
//
//	api:
//	  local_url: "http://127.0.0.1:8000"
//	  public_url: "https://api.agamjain.online/sgu"
//	  host: "localhost"   # decides local vs public; defaults to os.Hostname()
//	  timeout: "0s"       # zero means no client timeout
//
// Durable token storage:
//
//	storage:
//	  driver: "file"      # file, sqlite, memory
//	  path: "~/.config/sgu-admin"
//
// Notifications:
//
//	notify:
//	  hide_after: "4s"
//
// Logging:
//
//	logging:
//	  level: "warn"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
