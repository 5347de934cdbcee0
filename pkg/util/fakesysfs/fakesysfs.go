package fakesysfs

import (
	"fmt"
	"os"
)

// Write records a single WriteAttr call.
type Write struct {
	Entry string
	Name  string
	Value string
}

// Tree is an in-memory sysfs.DeviceProvider. Entries are returned in the
// order they were added.
type Tree struct {
	entries []string
	files   map[string]string
	reads   map[string]int

	// EntriesErr, when set, is returned by Entries.
	EntriesErr error
	// WriteErr, when set, fails every WriteAttr after it is recorded.
	WriteErr error

	Writes []Write
}

func NewTree() *Tree {
	return &Tree{
		files: make(map[string]string),
		reads: make(map[string]int),
	}
}

// AddDevice adds an entry with the given attribute files. A nil map adds a
// bare entry.
func (t *Tree) AddDevice(entry string, attrs map[string]string) *Tree {
	t.entries = append(t.entries, entry)
	for name, value := range attrs {
		t.files[key(entry, name)] = value
	}
	return t
}

func (t *Tree) Entries() ([]string, error) {
	if t.EntriesErr != nil {
		return nil, t.EntriesErr
	}
	return append([]string(nil), t.entries...), nil
}

func (t *Tree) Exists(entry, name string) bool {
	t.reads[entry]++
	_, ok := t.files[key(entry, name)]
	return ok
}

func (t *Tree) ReadAttr(entry, name string) (string, error) {
	t.reads[entry]++
	value, ok := t.files[key(entry, name)]
	if !ok {
		return "", fmt.Errorf("error reading %s for device %s: %w", name, entry, os.ErrNotExist)
	}
	return value, nil
}

func (t *Tree) WriteAttr(entry, name, value string) error {
	t.Writes = append(t.Writes, Write{Entry: entry, Name: name, Value: value})
	if t.WriteErr != nil {
		return t.WriteErr
	}
	if _, ok := t.files[key(entry, name)]; !ok {
		return fmt.Errorf("error opening %s for device %s: %w", name, entry, os.ErrNotExist)
	}
	t.files[key(entry, name)] = value
	return nil
}

// Attr returns the current contents of an attribute file.
func (t *Tree) Attr(entry, name string) (string, bool) {
	value, ok := t.files[key(entry, name)]
	return value, ok
}

// Touched reports whether any Exists or ReadAttr call looked at entry.
func (t *Tree) Touched(entry string) bool {
	return t.reads[entry] > 0
}

func key(entry, name string) string {
	return entry + "/" + name
}
