package sfddust

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// mapExtensions are tried in order when looking for a hemisphere's file.
var mapExtensions = []string{".fits", ".fits.gz", ".fits.zst"}

// Store holds the two hemisphere maps for the lifetime of a query session.
// It is read-only after construction and safe for concurrent queries. The
// maps are not modified, so several stores may share them.
type Store struct {
	North *HemisphereMap
	South *HemisphereMap

	logger *slog.Logger
}

// Load reads <base>_ngp and <base>_sgp from dir. Missing or unreadable
// files fail with *MapNotFoundError, undecodable ones with *MapFormatError.
// File handles are closed before Load returns.
func Load(dir string, opts ...Option) (*Store, error) {
	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(o)
	}

	var maps [2]*HemisphereMap
	for _, pole := range []Hemisphere{North, South} {
		path, err := MapPath(dir, o.baseName, pole)
		if err != nil {
			return nil, err
		}
		m, err := loadMapFile(path, pole)
		if err != nil {
			return nil, err
		}
		o.logger.Info("loaded dust map",
			"hemisphere", pole,
			"path", path,
			"size", m.Grid.Size,
			"projection", string(m.Proj.Type))
		maps[pole] = m
	}
	return NewStore(maps[North], maps[South], opts...)
}

// NewStore builds a store from maps already in memory.
func NewStore(north, south *HemisphereMap, opts ...Option) (*Store, error) {
	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(o)
	}
	if north == nil || south == nil {
		return nil, fmt.Errorf("NewStore: both hemisphere maps are required")
	}
	if north.Pole != North || south.Pole != South {
		return nil, &MapFormatError{Err: fmt.Errorf("maps are assigned to the wrong poles (%s, %s)", north.Pole, south.Pole)}
	}
	if north.Grid.Size != south.Grid.Size {
		o.logger.Warn("hemisphere grids differ in size",
			"north", north.Grid.Size,
			"south", south.Grid.Size)
	}
	return &Store{North: north, South: south, logger: o.logger}, nil
}

// Map returns the map for a hemisphere.
func (s *Store) Map(h Hemisphere) *HemisphereMap {
	if h == North {
		return s.North
	}
	return s.South
}

// MapPath returns the first existing file for the hemisphere among the
// supported extensions.
func MapPath(dir, base string, pole Hemisphere) (string, error) {
	stem := filepath.Join(dir, fmt.Sprintf("%s_%s", base, pole.Suffix()))
	var firstErr error
	for _, ext := range mapExtensions {
		path := stem + ext
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", &MapNotFoundError{Hemisphere: pole, Path: stem + mapExtensions[0], Err: firstErr}
}

func loadMapFile(path string, pole Hemisphere) (*HemisphereMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MapNotFoundError{Hemisphere: pole, Path: path, Err: err}
	}
	defer f.Close()

	raw, err := readMapBytes(f)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, &MapNotFoundError{Hemisphere: pole, Path: path, Err: err}
		}
		return nil, &MapFormatError{Path: path, Err: err}
	}

	m, err := DecodeMap(raw)
	if err != nil {
		var fe *MapFormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	if m.Pole != pole {
		return nil, &MapFormatError{Path: path, Err: fmt.Errorf("%s map is centred on the %s pole", pole, m.Pole)}
	}
	return m, nil
}
