package classfile

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Entry is one classpath entry as the classpath finder yields it: a name
// (the file's path relative to its classpath root) and its raw bytes.
type Entry struct {
	Name string
	Data []byte
}

// FindAll walks every directory in roots (in order) and returns one Entry
// per ".kls" file found, sorted by name within each root for deterministic
// TypeMap registration order (spec §5 ordering guarantee (a) depends on a
// stable registration order to make the graph walk reproducible, P5).
//
// Each entry's bytes are read and returned immediately — nothing is kept
// memory-mapped or held open past this call, matching spec §5's "each is
// released immediately after the class is ingested."
func FindAll(roots []string) ([]Entry, error) {
	var entries []Entry
	for _, root := range roots {
		names, err := listClassFiles(root)
		if err != nil {
			return nil, errors.Wrapf(err, "classpath root %s", root)
		}
		for _, name := range names {
			data, err := os.ReadFile(filepath.Join(root, name))
			if err != nil {
				return nil, errors.Wrapf(err, "reading %s", name)
			}
			entries = append(entries, Entry{Name: name, Data: data})
		}
	}
	return entries, nil
}

func listClassFiles(root string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".kls" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		names = append(names, rel)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
