// Package config loads application configuration from environment variables
// and an optional .env file, with defaults declared as struct tags on the
// partial Config types that each package owns.
package config
