// Package settings provides the thread-safe store for the user-editable
// irename settings: the inference server base URL and the automatic
// renaming toggle. Settings live in a single YAML file and are re-read by
// callers on every request through [Store.Get].
//
// ${VAR} references in the file are expanded when it is read. Writes only
// replace the keys that changed, so references and comments elsewhere in the
// file survive a toggle.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultServerURL is used when no server_url is configured.
const DefaultServerURL = "http://127.0.0.1:8000"

// ServerURLEnv overrides the configured server URL when set.
const ServerURLEnv = "IRENAME_SERVER_URL"

// Settings is a snapshot of the user settings.
type Settings struct {
	ServerURL         string `yaml:"server_url"`
	AutomaticRenaming bool   `yaml:"automatic_renaming"`
}

// Defaults returns the settings used when the file is missing or empty.
func Defaults() Settings {
	return Settings{ServerURL: DefaultServerURL}
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("settings: resolve config dir: %w", err)
	}

	return filepath.Join(dir, "irename", "settings.yaml"), nil
}

// LoadDotEnv loads environment variables from path. A missing file is
// silently ignored so that .env files remain optional.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}

// ValidateServerURL checks that raw is an absolute http(s) URL.
func ValidateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("settings: invalid server url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("settings: server url %q must use http or https", raw)
	}

	if u.Host == "" {
		return fmt.Errorf("settings: server url %q has no host", raw)
	}

	return nil
}

// Store manages settings persisted to a YAML file. mu guards the in-memory
// snapshot; writeMu serializes read-modify-persist sequences so the file and
// the snapshot change in the same order.
type Store struct {
	mu       sync.RWMutex
	writeMu  sync.Mutex
	cur      Settings
	filePath string
}

// Open creates a Store backed by the given file and loads it immediately.
// A missing file yields [Defaults].
func Open(filePath string) (*Store, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("settings: resolve path: %w", err)
	}

	s := &Store{cur: Defaults(), filePath: abs}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	return s, nil
}

// Path returns the absolute path of the backing file.
func (s *Store) Path() string { return s.filePath }

// Get returns the current settings with the environment override applied.
func (s *Store) Get() Settings {
	s.mu.RLock()
	cur := s.cur
	s.mu.RUnlock()

	if v := os.Getenv(ServerURLEnv); v != "" {
		cur.ServerURL = v
	}

	return cur
}

// ServerURL returns the base URL requests should be sent to.
func (s *Store) ServerURL() string { return s.Get().ServerURL }

// AutomaticRenaming reports whether hover suggestions are enabled.
func (s *Store) AutomaticRenaming() bool { return s.Get().AutomaticRenaming }

// Reload re-reads the backing file. On error the previous snapshot is kept.
func (s *Store) Reload() error {
	next, err := read(s.filePath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cur = next
	s.mu.Unlock()

	return nil
}

// SetAutomaticRenaming sets the toggle and persists the change.
func (s *Store) SetAutomaticRenaming(on bool) error {
	_, err := s.update(func(next *Settings) []field {
		next.AutomaticRenaming = on
		return []field{boolField("automatic_renaming", on)}
	})

	return err
}

// ToggleAutomaticRenaming flips the toggle, persists it and returns the new
// value. On error the toggle keeps its previous value.
func (s *Store) ToggleAutomaticRenaming() (bool, error) {
	snap, err := s.update(func(next *Settings) []field {
		next.AutomaticRenaming = !next.AutomaticRenaming
		return []field{boolField("automatic_renaming", next.AutomaticRenaming)}
	})

	return snap.AutomaticRenaming, err
}

// SetServerURL validates and stores a new server URL.
func (s *Store) SetServerURL(raw string) error {
	if err := ValidateServerURL(raw); err != nil {
		return err
	}

	_, err := s.update(func(next *Settings) []field {
		next.ServerURL = raw
		return []field{{key: "server_url", value: raw, tag: "!!str"}}
	})

	return err
}

// update applies change to a copy of the snapshot, writes the changed keys
// and publishes the copy only once the write succeeded. It returns the
// snapshot in effect afterwards.
func (s *Store) update(change func(next *Settings) []field) (Settings, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	prev := s.cur
	s.mu.RUnlock()

	next := prev
	fields := change(&next)

	if err := s.persist(fields); err != nil {
		return prev, err
	}

	s.mu.Lock()
	s.cur = next
	s.mu.Unlock()

	return next, nil
}

// --- persistence ---

// read parses the settings file. ${VAR} and $VAR references are expanded
// from the environment before parsing.
func read(path string) (Settings, error) {
	cur := Defaults()

	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration
	if err != nil {
		if os.IsNotExist(err) {
			return cur, nil
		}

		return cur, fmt.Errorf("settings: read file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return cur, nil
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(trimmed))), &cur); err != nil {
		return Defaults(), fmt.Errorf("settings: parse file: %w", err)
	}

	if cur.ServerURL == "" {
		cur.ServerURL = DefaultServerURL
	}

	return cur, nil
}

// field is one top-level key to write.
type field struct {
	key   string
	value string
	tag   string
}

func boolField(key string, v bool) field {
	return field{key: key, value: strconv.FormatBool(v), tag: "!!bool"}
}

// persist writes fields into the file on disk. Only the named keys are
// touched: other keys, comments and ${VAR} references stay as written.
func (s *Store) persist(fields []field) error {
	data, err := s.merge(fields)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o750); err != nil {
		return fmt.Errorf("settings: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("settings: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName) //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		return fmt.Errorf("settings: write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		return fmt.Errorf("settings: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.filePath); err != nil { //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		_ = os.Remove(tmpName) //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		return fmt.Errorf("settings: rename temp file: %w", err)
	}

	return nil
}

// merge returns the raw file with fields set on its top-level mapping.
func (s *Store) merge(fields []field) ([]byte, error) {
	raw, err := os.ReadFile(s.filePath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("settings: read file: %w", err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("settings: parse file: %w", err)
		}
	}

	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("settings: file is not a mapping")
	}

	for _, f := range fields {
		setKey(root, f)
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("settings: marshal: %w", err)
	}

	return out, nil
}

func setKey(m *yaml.Node, f field) {
	value := &yaml.Node{Kind: yaml.ScalarNode, Tag: f.tag, Value: f.value}

	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == f.key {
			value.LineComment = m.Content[i+1].LineComment
			m.Content[i+1] = value

			return
		}
	}

	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.key}, value)
}
