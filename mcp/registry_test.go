// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFeatureSetOrderAndReplace(t *testing.T) {
	fs := newFeatureSet[string](nil)
	fs.add("b", "B1")
	fs.add("a", "A1")
	fs.add("c", "C1")

	if diff := cmp.Diff([]string{"B1", "A1", "C1"}, fs.list()); diff != "" {
		t.Errorf("list order mismatch (-want +got):\n%s", diff)
	}

	// Replacing an existing key updates the value but keeps its position.
	fs.add("a", "A2")
	if diff := cmp.Diff([]string{"B1", "A2", "C1"}, fs.list()); diff != "" {
		t.Errorf("replace changed order (-want +got):\n%s", diff)
	}

	if v, ok := fs.get("a"); !ok || v != "A2" {
		t.Errorf("get(a) = %q, %v, want A2, true", v, ok)
	}
	if _, ok := fs.get("missing"); ok {
		t.Error("get(missing) = _, true, want false")
	}
	if fs.len() != 3 {
		t.Errorf("len() = %d, want 3", fs.len())
	}
}

func TestFeatureSetRemove(t *testing.T) {
	fs := newFeatureSet[string](nil)
	fs.add("a", "A")
	fs.add("b", "B")

	if !fs.remove("a") {
		t.Fatal("remove(a) = false, want true")
	}
	if fs.remove("a") {
		t.Error("remove(a) again = true, want false")
	}
	if diff := cmp.Diff([]string{"B"}, fs.list()); diff != "" {
		t.Errorf("list after remove mismatch (-want +got):\n%s", diff)
	}
}

func TestPaginate(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	page, next, err := paginate(items, "", 2)
	if err != nil || next == "" {
		t.Fatalf("first page: got %v, %q, %v, want 2 items and a cursor", page, next, err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, page); diff != "" {
		t.Errorf("first page mismatch (-want +got):\n%s", diff)
	}

	page, next, err = paginate(items, next, 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if diff := cmp.Diff([]string{"c", "d"}, page); diff != "" {
		t.Errorf("second page mismatch (-want +got):\n%s", diff)
	}
	if next == "" {
		t.Fatal("second page NextCursor is empty, want one more page")
	}

	page, next, err = paginate(items, next, 2)
	if err != nil || next != "" {
		t.Fatalf("final page: got %v, %q, %v, want 1 item and no cursor", page, next, err)
	}
	if diff := cmp.Diff([]string{"e"}, page); diff != "" {
		t.Errorf("final page mismatch (-want +got):\n%s", diff)
	}

	if _, _, err := paginate(items, "not-a-number", 2); err == nil {
		t.Error("paginate with malformed cursor: want error, got nil")
	}

	page, next, err = paginate(items, "", 0)
	if err != nil || next != "" || len(page) != len(items) {
		t.Fatalf("zero page size: got %v, %q, %v, want the whole list and no cursor", page, next, err)
	}
}

func TestFeatureSetChangedCallback(t *testing.T) {
	var calls int
	fs := newFeatureSet[string](func() { calls++ })

	fs.add("a", "A")
	fs.add("a", "A2") // replace still fires changed
	fs.remove("missing")
	fs.remove("a")

	if calls != 3 {
		t.Errorf("changed fired %d times, want 3", calls)
	}
}
