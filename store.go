// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapsforge

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kelindar/mapsforge-go/internal/telemetry"
)

// Store serves the ".map" files of one directory by name and lazily opens
// each one on first use, caching the open Reader for the lifetime of the Store: a
// lazily-populated sync.Map keyed by name, with a single winner on a
// concurrent first open.
type Store struct {
	basePath string
	metrics  *telemetry.Metrics
	readers  sync.Map // name (string) -> *Reader
}

// StoreOption configures a Store constructed with OpenStore.
type StoreOption func(*Store)

// WithStoreMetrics reports every Reader opened by the Store to m.
func WithStoreMetrics(m *telemetry.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// OpenStore verifies directory exists and returns a Store over it. No map
// file is opened until Reader is first called for its name.
func OpenStore(directory string, opts ...StoreOption) (*Store, error) {
	info, err := os.Stat(directory)
	if err != nil {
		return nil, fmt.Errorf("mapsforge: directory %q does not exist: %w", directory, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("mapsforge: %q is not a directory", directory)
	}

	s := &Store{basePath: directory}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Reader returns the opened Reader for name (e.g. "germany.map"), opening
// and caching it on first use. Concurrent first calls for the same name
// race to open the file; the loser closes its handle and uses the winner's.
func (s *Store) Reader(name string) (*Reader, error) {
	if r, ok := s.readers.Load(name); ok {
		return r.(*Reader), nil
	}

	var openOpts []ReaderOption
	if s.metrics != nil {
		openOpts = append(openOpts, WithReaderMetrics(s.metrics))
	}
	r, err := Open(filepath.Join(s.basePath, name), openOpts...)
	if err != nil {
		return nil, err
	}

	actual, loaded := s.readers.LoadOrStore(name, r)
	if loaded {
		_ = r.Close()
		return actual.(*Reader), nil
	}
	return r, nil
}

// Close closes every Reader opened so far.
func (s *Store) Close() error {
	var firstErr error
	s.readers.Range(func(_, value any) bool {
		if err := value.(*Reader).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}
