// Package config loads runtime configuration for the GophBlog CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c/--config, JSON or YAML by extension.
//  3. A .env file in the working directory and GOPHBLOG_* environment variables.
//  4. Command-line flags set explicitly (see RegisterFlags).
//
// # File schema
//
// Durations use timex.Duration, so values may be strings like "10s" or
// integer nanoseconds:
//
//	api_base_url: http://localhost:3000/api
//	database_path: data/blog.db
//	request_timeout: 10s
//	token_ttl: 168h
//	log_level: debug
//
// # Environment
//
//	GOPHBLOG_API_BASE_URL, GOPHBLOG_ASSETS_BASE_URL, GOPHBLOG_DB_PATH,
//	GOPHBLOG_REQUEST_TIMEOUT, GOPHBLOG_TOKEN_TTL, GOPHBLOG_LOG_LEVEL,
//	GOPHBLOG_LOG_FORMAT
package config
