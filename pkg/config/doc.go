// Package config loads typed configuration for the Postmark client packages.
//
// Load fills a struct from environment variables using env tags, loading a
// .env file once per process when one exists:
//
//	var cfg postmark.Config
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
//
// LoadYAML fills a struct from a YAML file, used by the CLI for message
// manifests:
//
//	var manifest Manifest
//	err := config.LoadYAML("messages.yaml", &manifest)
//
// MustLoad panics on failure, for configuration without which the process
// cannot meaningfully start.
package config
