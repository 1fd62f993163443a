// Package config turns environment variables into typed structs with
// github.com/caarlos0/env/v11. An optional ./.env file, or files passed to
// LoadEnv, are read first through github.com/joho/godotenv.
package config
