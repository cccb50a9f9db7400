// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

/*
Package config loads the gateway configuration.

Sources are layered with Koanf v2, later layers overriding earlier ones:

 1. Built-in defaults (structs provider)
 2. An optional YAML file: $CONFIG_PATH, or config.yaml / config.yml in the
    working directory
 3. Environment variables

Environment variables map onto nested keys by their first underscore:

	PALO_SERVER         -> palo.server
	PALO_MAX_SESSIONS   -> palo.max_sessions
	SECURITY_CORS_ORIGINS=a,b -> security.cors_origins
	LOG_LEVEL           -> logging.level

Variables whose prefix is not a configuration section are ignored. List
values may be given comma-separated. The merged result is validated with
go-playground/validator tags before it is returned.

Example config.yaml:

	server:
	  port: 3000
	palo:
	  server: olap.internal
	  user: gateway
	  password: secret
	  allow_databases: [Biker, Demo]
	  max_sessions: 5
	forms:
	  dir: /etc/cubegate/forms
	  watch: true
	  cache_size: 256
	  cache_ttl: 10m
*/
package config
