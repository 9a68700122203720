package boltkv_test

import (
	"path/filepath"
	"testing"

	"github.com/jihwankim/roleguard/pkg/pluginstore/boltkv"
)

func TestGetMissingReturnsNilNil(t *testing.T) {
	db, err := boltkv.Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	defer db.Close()

	v, err := db.Get("plugin_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != nil {
		t.Fatalf("expected nil for a missing key, got %v", v)
	}
}

func TestSetGetDelRoundTrip(t *testing.T) {
	db, err := boltkv.Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	defer db.Close()

	if err := db.Set("secret_7", []byte("topsecret")); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	v, err := db.Get("secret_7")
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if string(v) != "topsecret" {
		t.Fatalf("got %q, want %q", v, "topsecret")
	}

	if err := db.Del("secret_7"); err != nil {
		t.Fatalf("unexpected del error: %v", err)
	}
	v, err = db.Get("secret_7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != nil {
		t.Fatalf("expected nil after delete, got %v", v)
	}
}

func TestReopenPersistsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	db, err := boltkv.Open(path)
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	if err := db.Set("plugin_2", []byte("cfg")); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := boltkv.Open(path)
	if err != nil {
		t.Fatalf("unexpected reopen error: %v", err)
	}
	defer reopened.Close()

	v, err := reopened.Get("plugin_2")
	if err != nil {
		t.Fatal(err)
	}
	if string(v) != "cfg" {
		t.Fatalf("got %q, want %q", v, "cfg")
	}
}
