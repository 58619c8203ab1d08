package events

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
)

// File is an open data file whose trees can be inspected by name.
type File interface {
	// Entries returns the entry count of the top-level tree called name.
	// found is false when the file has no top-level key with that name.
	Entries(name string) (n int64, found bool, err error)
	Close() error
}

// Opener opens data files for metadata inspection.
type Opener interface {
	Open(path string) (File, error)
}

// GrootOpener reads ROOT files with groot. Opening a file reads its header
// and key list; tree entry counts come from the tree metadata, so no basket
// payload is decompressed.
type GrootOpener struct{}

// Open implements Opener.
func (GrootOpener) Open(path string) (File, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, err
	}
	return &grootFile{f: f}, nil
}

type grootFile struct {
	f *riofs.File
}

func (g *grootFile) Entries(name string) (int64, bool, error) {
	if !hasKey(g.f, name) {
		return 0, false, nil
	}

	obj, err := g.f.Get(name)
	if err != nil {
		return 0, true, fmt.Errorf("failed to read key %q: %w", name, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		return 0, true, fmt.Errorf("key %q is a %s, not a tree", name, obj.Class())
	}
	return tree.Entries(), true, nil
}

func (g *grootFile) Close() error {
	return g.f.Close()
}

func hasKey(dir riofs.Directory, name string) bool {
	for _, k := range dir.Keys() {
		if k.Name() == name {
			return true
		}
	}
	return false
}
