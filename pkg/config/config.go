package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	ErrParsingConfig  = errors.New("config: parse environment")
	ErrLoadingEnvFile = errors.New("config: load env file")
	ErrNilPointer     = errors.New("config: nil target")
)

var (
	dotenv sync.Once
	cache  sync.Map // reflect.Type -> parsed value
)

// LoadEnv reads dotenv files into the process environment without
// overriding variables that are already set. No paths means ./.env.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("%w: %w", ErrLoadingEnvFile, err)
	}
	return nil
}

// Load fills v from the environment using its `env` tags. The first call
// for a type parses; later calls for the same type get that result until
// ResetCache.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	// ./.env is optional.
	dotenv.Do(func() { _ = godotenv.Load() })

	key := reflect.TypeFor[T]()
	if hit, ok := cache.Load(key); ok {
		*v = hit.(T)
		return nil
	}
	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return fmt.Errorf("%w: %w", ErrParsingConfig, err)
	}
	hit, _ := cache.LoadOrStore(key, parsed)
	*v = hit.(T)
	return nil
}

// ResetCache forgets every parsed type.
func ResetCache() {
	cache.Clear()
}
