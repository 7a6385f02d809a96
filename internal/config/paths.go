package config

import (
	"fmt"
	"os"
	"regexp"
	"path/filepath"
	"strings"
)

const defaultBaseDir = ".zoebot"

// Paths holds resolved filesystem paths for zoebot data.
type Paths struct {
	Base   string // ~/.zoebot
	Config string // ~/.zoebot/config.yaml
	Data   string // ~/.zoebot/data
	Logs   string // ~/.zoebot/logs
}

// ResolvePaths returns the layout under ~/.zoebot, or under ZOEBOT_HOME
// when that is set.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("ZOEBOT_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
		Logs:   filepath.Join(base, "logs"),
	}, nil
}

// Database is the SQLite session database location.
func (p Paths) Database() string {
	return filepath.Join(p.Data, "zoebot.db")
}

// EnsureDirs creates the base, data and logs directories owner-only.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data, p.Logs} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// keySegment is one YAML key of a dotted config path, e.g. "gigyaApiKey".
var keySegment = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ParseConfigPath splits a dotted key such as "webhook.auth.mode" into its
// segments.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config key"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if !keySegment.MatchString(p) {
			return nil, &ConfigError{Message: fmt.Sprintf("invalid segment %q in config key %q", p, raw)}
		}
	}
	return parts, nil
}

// GetValueAtPath looks up a dotted key in the raw config map.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	current := any(root)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetValueAtPath stores value under a dotted key. Missing sections are
// created and a scalar in the way is replaced by a section.
func SetValueAtPath(root map[string]any, path []string, value any) {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			next = map[string]any{}
			current[key] = next
		}
		m, ok := next.(map[string]any)
		if !ok {
			m = map[string]any{}
			current[key] = m
		}
		current = m
	}
	current[path[len(path)-1]] = value
}

// UnsetValueAtPath deletes a dotted key and reports whether it existed.
func UnsetValueAtPath(root map[string]any, path []string) bool {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			return false
		}
		m, ok := next.(map[string]any)
		if !ok {
			return false
		}
		current = m
	}
	last := path[len(path)-1]
	if _, ok := current[last]; !ok {
		return false
	}
	delete(current, last)
	return true
}
