// Package config loads the optional YAML configuration file that
// overrides commit identity and the replay error policy, using the
// familiar Unmarshal/LoadFile/validate trio over yaml.v2.
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// ErrorPolicy decides what the Driver does when a document's replay fails.
type ErrorPolicy string

const (
	// PolicyAbort stops the whole run. No rollback is attempted either
	// way; abort just means "stop now".
	PolicyAbort ErrorPolicy = "abort"
	// PolicySkip abandons the current document (leaving its working-tree
	// file at whatever state it last reached) and continues with the
	// next one.
	PolicySkip ErrorPolicy = "skip"
)

// DefaultFallbackName and DefaultFallbackEmail are the built-in synthetic
// commit identity used when neither the VCS global configuration nor this
// Config supplies one.
const (
	DefaultFallbackName  = "c9rev2git"
	DefaultFallbackEmail = "bot@localhost"
)

// Config is the optional YAML configuration file for a run.
type Config struct {
	CommitUser  string      `yaml:"commit_user"`
	CommitEmail string      `yaml:"commit_email"`
	OnParseErr  ErrorPolicy `yaml:"on_parse_error"`
	OnStateErr  ErrorPolicy `yaml:"on_state_mismatch"`
}

// Default returns the configuration used when no file is supplied: both
// policies are "abort".
func Default() *Config {
	return &Config{
		OnParseErr: PolicyAbort,
		OnStateErr: PolicyAbort,
	}
}

// Unmarshal parses YAML content into a Config, applying defaults first.
func Unmarshal(content []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads and parses a configuration file from disk.
func LoadFile(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load %v: %v", filename, err)
	}
	cfg, err := Unmarshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to load %v: %v", filename, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.OnParseErr == "" {
		c.OnParseErr = PolicyAbort
	}
	if c.OnStateErr == "" {
		c.OnStateErr = PolicyAbort
	}
	for _, p := range []ErrorPolicy{c.OnParseErr, c.OnStateErr} {
		if p != PolicyAbort && p != PolicySkip {
			return fmt.Errorf("invalid error policy %q: must be %q or %q", p, PolicyAbort, PolicySkip)
		}
	}
	if (c.CommitUser == "") != (c.CommitEmail == "") {
		return fmt.Errorf("commit_user and commit_email must be set together")
	}
	return nil
}

// FallbackName returns the commit identity name to use when the VCS global
// configuration provides none.
func (c *Config) FallbackName() string {
	if c != nil && c.CommitUser != "" {
		return c.CommitUser
	}
	return DefaultFallbackName
}

// FallbackEmail returns the commit identity email to use when the VCS
// global configuration provides none.
func (c *Config) FallbackEmail() string {
	if c != nil && c.CommitEmail != "" {
		return c.CommitEmail
	}
	return DefaultFallbackEmail
}
