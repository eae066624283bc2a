package terminal

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir(), "scope")

	h, err := store.Load()
	if err != nil || h != "" {
		t.Fatalf("empty Load: got (%q, %v)", h, err)
	}

	if err := store.Save("%4"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if h, _ := store.Load(); h != "%4" {
		t.Errorf("Load: got %q, want %q", h, "%4")
	}

	if err := store.Save(""); err != nil {
		t.Fatalf("Save empty: %v", err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Errorf("state file should be removed when cleared, stat err = %v", err)
	}
	if err := store.Save(""); err != nil {
		t.Errorf("clearing twice: %v", err)
	}
}

func TestFileStoreCorruptStateIsError(t *testing.T) {
	store := NewFileStore(t.TempDir(), "scope")
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestFileStoreLockExcludesSecondHolder(t *testing.T) {
	dir := t.TempDir()
	a := NewFileStore(dir, "scope")
	b := NewFileStore(dir, "scope")

	unlock, err := a.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := b.Lock(ctx); err == nil {
		t.Fatal("second holder acquired a held lock")
	}

	unlock()
	unlockB, err := b.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	unlockB()
}

func TestFileStoreScopesDiffer(t *testing.T) {
	dir := t.TempDir()
	if NewFileStore(dir, "a").Path() == NewFileStore(dir, "b").Path() {
		t.Error("different scopes must map to different files")
	}
}
