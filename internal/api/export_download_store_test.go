package api

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExportDownloadStoreRemovesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "stale.xlsx")
	if err := os.WriteFile(stale, []byte("x"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	s := newExportDownloadStore()
	token := s.put(stale, "stale.xlsx", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok := s.get(token); ok {
		t.Fatalf("expired token should not resolve")
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expired export file still on disk: %v", err)
	}

	fresh := filepath.Join(dir, "fresh.xlsx")
	if err := os.WriteFile(fresh, []byte("x"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	token = s.put(fresh, "fresh.xlsx", time.Minute)
	if item, ok := s.get(token); !ok || item.filePath != fresh {
		t.Fatalf("fresh token lost: %+v %v", item, ok)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh export file removed: %v", err)
	}
}

func TestExportDownloadStorePurgeOnPut(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "stale.xlsx")
	if err := os.WriteFile(stale, []byte("x"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	s := newExportDownloadStore()
	s.put(stale, "stale.xlsx", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	s.put(filepath.Join(dir, "next.xlsx"), "next.xlsx", time.Minute)

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expired export file still on disk: %v", err)
	}
}
