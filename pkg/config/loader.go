package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be
	// parsed into the target struct.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrReadingFile is returned when a YAML config file cannot be read or
	// decoded.
	ErrReadingFile = errors.New("failed to load config file")

	// ErrNilPointer is returned when a nil target is passed to a loader.
	ErrNilPointer = errors.New("nil pointer provided to config loader")
)

var dotenvOnce sync.Once

// Load fills v from the environment according to its env tags. A .env file in
// the working directory is folded into the environment once per process; a
// missing file is not an error.
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// LoadYAML fills v from a YAML file. Unknown keys are rejected so typos in
// hand-written files fail loudly instead of silently doing nothing.
func LoadYAML[T any](path string, v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(ErrReadingFile, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrReadingFile, err)
	}
	return nil
}
