// Package config loads inboxbrief settings.
//
// Values are layered in this order, later sources winning: built-in
// defaults, an optional YAML file, .env files, INBOXBRIEF_* environment
// variables. Command-line flags are applied on top by the cmd package.
//
// Example file:
//
//	imap:
//	  dialTimeout: 10s
//	  maxCount: 20
//	providers:
//	  - domain: example.org
//	    host: imap.example.org
//	allowedDomains: [gmail.com, example.org]
//	server:
//	  transport: streamable-http
//	  httpAddr: ":8080"
package config
