package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// noteExtension is appended to every note name on disk.
const noteExtension = ".md"

var validNoteName = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

// Note describes a stored memory note.
type Note struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store persists free-form notes as individual files under a root directory.
// It is the durable memory the assistant uses to remember user preferences
// and context between sessions.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir. The directory is created if it
// does not exist.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("memory store directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create memory directory %s: %w", dir, err)
	}
	return &Store{root: dir}, nil
}

// DefaultDir returns the default memory directory under the user config dir.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine user config directory: %w", err)
	}
	return filepath.Join(configDir, "inboxpilot", "memory"), nil
}

// Root returns the directory notes are stored under.
func (s *Store) Root() string {
	return s.root
}

// Save writes content to the named note, creating or overwriting it.
func (s *Store) Save(name, content string) error {
	path, err := s.notePath(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.root, ".note-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write note %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close note %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to save note %s: %w", name, err)
	}
	return nil
}

// Read returns the content of the named note.
func (s *Store) Read(name string) (string, error) {
	path, err := s.notePath(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("note %q not found", name)
		}
		return "", fmt.Errorf("failed to read note %s: %w", name, err)
	}
	return string(data), nil
}

// List returns all stored notes sorted by name.
func (s *Store) List() ([]Note, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory directory: %w", err)
	}

	var notes []Note
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), noteExtension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		notes = append(notes, Note{
			Name:     strings.TrimSuffix(entry.Name(), noteExtension),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].Name < notes[j].Name
	})
	return notes, nil
}

// Delete removes the named note.
func (s *Store) Delete(name string) error {
	path, err := s.notePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("note %q not found", name)
		}
		return fmt.Errorf("failed to delete note %s: %w", name, err)
	}
	return nil
}

// notePath validates the note name and returns its path on disk. Names are
// restricted to lowercase kebab/snake case so a note can never escape the
// store root.
func (s *Store) notePath(name string) (string, error) {
	if !validNoteName.MatchString(name) {
		return "", fmt.Errorf("invalid note name %q: use lowercase letters, digits, hyphens, and underscores", name)
	}
	return filepath.Join(s.root, name+noteExtension), nil
}
