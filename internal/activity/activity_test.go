package activity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordAndTail(t *testing.T) {
	log := New(t.TempDir())
	log.Record("create", "abc", "Essay")
	log.Record("delete", "abc", "rolled back: offline")

	entries, err := log.Tail(0)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != "create" || entries[1].TaskID != "abc" {
		t.Errorf("Unexpected entries: %+v", entries)
	}

	last, err := log.Tail(1)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(last) != 1 || last[0].Action != "delete" {
		t.Errorf("Expected last entry to be the delete, got %+v", last)
	}
}

func TestTailMissingFile(t *testing.T) {
	entries, err := New(t.TempDir()).Tail(10)
	if err != nil {
		t.Fatalf("Expected no error for a missing journal, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}

func TestTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	var b strings.Builder
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "{\"action\":\"a%d\"}\n", i)
	}
	if err := os.WriteFile(path, []byte(b.String()), fileMode); err != nil {
		t.Fatal(err)
	}

	if err := truncateIfNeeded(path, 10); err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
	lines, err := readLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 10 {
		t.Fatalf("Expected 10 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "a5") {
		t.Errorf("Expected oldest kept entry to be a5, got %s", lines[0])
	}
}
