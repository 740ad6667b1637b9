// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"strconv"
	"sync"
)

// featureSet is a concurrency-safe, insertion-ordered collection of named
// features (tools, prompts, or resources), used to back the server's
// primitive registries. Lookup is by the feature's own key; iteration
// preserves registration order, matching the order MCP clients expect from
// a tools/list or prompts/list response.
type featureSet[T any] struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]T
	// changed is called with the lock released whenever the set's contents
	// change, so the server can fire a */list_changed notification.
	changed func()
}

func newFeatureSet[T any](changed func()) *featureSet[T] {
	return &featureSet[T]{entries: make(map[string]T), changed: changed}
}

// add inserts or replaces the entry for key, preserving its original
// position on replace and appending on insert.
func (s *featureSet[T]) add(key string, v T) {
	s.mu.Lock()
	if _, exists := s.entries[key]; !exists {
		s.order = append(s.order, key)
	}
	s.entries[key] = v
	s.mu.Unlock()
	if s.changed != nil {
		s.changed()
	}
}

// remove deletes the entry for key, if present, reporting whether anything
// was removed.
func (s *featureSet[T]) remove(key string) bool {
	s.mu.Lock()
	_, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
		for i, k := range s.order {
			if k == key {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	if ok && s.changed != nil {
		s.changed()
	}
	return ok
}

func (s *featureSet[T]) get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// list returns a snapshot of the set's values in insertion order.
func (s *featureSet[T]) list() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.entries[k])
	}
	return out
}

func (s *featureSet[T]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// paginate slices items starting at the offset encoded by cursor, returning
// at most pageSize of them (the whole remainder if pageSize is zero) and the
// cursor for the following page, or "" once the set is exhausted. The cursor
// is an opaque stringified offset into the list's stable insertion order;
// it's only valid against lists produced by the same featureSet.
func paginate[T any](items []T, cursor string, pageSize int) ([]T, string, error) {
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return nil, "", &WireError{Code: CodeInvalidParams, Message: "invalid cursor"}
		}
		offset = n
	}
	if offset > len(items) {
		offset = len(items)
	}
	if pageSize <= 0 || offset+pageSize >= len(items) {
		return items[offset:], "", nil
	}
	return items[offset : offset+pageSize], strconv.Itoa(offset + pageSize), nil
}
