// Package settings stores the Transifex credentials used by txsync.
//
// Credentials live in transifex.auth in the project root, a JSON object:
//
//	{
//	  "user": "api",
//	  "password": "1/0123456789abcdef"
//	}
//
// An API token can be used as the password with user "api". The file holds
// a secret, so it is written with 0600 permissions and should be ignored
// by version control.
//
// Lookup order:
//  1. --user / --token flags (highest priority)
//  2. TX_USER / TX_TOKEN environment variables
//  3. transifex.auth
//  4. user "api" with an empty password
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the credentials file name, relative to the project root.
const FileName = "transifex.auth"

// DefaultUser is the user name Transifex expects for token authentication.
const DefaultUser = "api"

// Environment variables consulted by Resolve.
const (
	EnvUser  = "TX_USER"
	EnvToken = "TX_TOKEN"
)

// Credentials are HTTP Basic credentials for the Transifex API.
type Credentials struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// Empty reports whether no password is set.
func (c Credentials) Empty() bool { return c.Password == "" }

// ConfigError reports a credentials file that exists but cannot be used.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("credentials %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FilePath returns the credentials file path for a project root.
func FilePath(rootDir string) string {
	return filepath.Join(rootDir, FileName)
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credentials file. A missing file is not an error and
// yields ok == false.
func Load(rootDir string) (creds Credentials, ok bool, err error) {
	path := FilePath(rootDir)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, false, nil
		}
		return Credentials{}, false, &ConfigError{Path: path, Err: err}
	}

	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, false, &ConfigError{Path: path, Err: fmt.Errorf("parsing JSON: %w", err)}
	}
	return creds, true, nil
}

// Save writes the credentials file with 0600 permissions.
func Save(rootDir string, creds Credentials) error {
	path := FilePath(rootDir)

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("chmod auth file: %w", err)
	}
	return nil
}

// Remove deletes the credentials file. A missing file is not an error.
func Remove(rootDir string) error {
	if err := os.Remove(FilePath(rootDir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// Resolve picks user and password independently by priority: flag values,
// environment, credentials file, defaults. Only an unusable credentials
// file is an error.
func Resolve(rootDir, flagUser, flagPassword string) (Credentials, error) {
	stored, _, err := Load(rootDir)
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{
		User:     firstNonEmpty(flagUser, os.Getenv(EnvUser), stored.User, DefaultUser),
		Password: firstNonEmpty(flagPassword, os.Getenv(EnvToken), stored.Password),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

// MaskKey returns a masked version of a key/token for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
