package pluginhost_test

import (
	"testing"

	"github.com/jihwankim/roleguard/pkg/pluginabi"
	"github.com/jihwankim/roleguard/pkg/pluginhost"
)

func TestRegisterRejectsMissingPath(t *testing.T) {
	r := pluginhost.NewRegistry()
	err := r.Register(0, "nonexistent/path.so")
	if err == nil {
		t.Fatal("expected an error for a nonexistent plugin path")
	}
	var phErr *pluginhost.Error
	if !asRegistryError(err, &phErr) {
		t.Fatalf("expected *pluginhost.Error, got %T", err)
	}
	if phErr.Kind != pluginhost.PathMissing {
		t.Fatalf("expected PathMissing, got %v", phErr.Kind)
	}
}

func TestCallOneOnUnregisteredPrefixFails(t *testing.T) {
	r := pluginhost.NewRegistry()
	_, err := r.CallOne(42, pluginabi.CallOneInput{})
	if err == nil {
		t.Fatal("expected an error for an unregistered prefix")
	}
	var phErr *pluginhost.Error
	if !asRegistryError(err, &phErr) {
		t.Fatalf("expected *pluginhost.Error, got %T", err)
	}
	if phErr.Kind != pluginhost.SymbolMissing {
		t.Fatalf("expected SymbolMissing, got %v", phErr.Kind)
	}
}

func TestPrefixesReflectsRegistrations(t *testing.T) {
	r := pluginhost.NewRegistry()
	if got := r.Prefixes(); len(got) != 0 {
		t.Fatalf("expected empty registry, got %v", got)
	}
	// Register against this test file itself: os.Stat succeeds, so
	// registration is accepted even though it is not a loadable plugin;
	// loading is only attempted (and fails) on first CallOne.
	if err := r.Register(7, "registry_test.go"); err != nil {
		t.Fatalf("unexpected registration error: %v", err)
	}
	prefixes := r.Prefixes()
	if len(prefixes) != 1 || prefixes[0] != 7 {
		t.Fatalf("expected [7], got %v", prefixes)
	}

	r.Remove(7)
	if got := r.Prefixes(); len(got) != 0 {
		t.Fatalf("expected empty registry after Remove, got %v", got)
	}
}

func TestCallOneOnNonPluginPathFailsToLoad(t *testing.T) {
	r := pluginhost.NewRegistry()
	if err := r.Register(1, "registry_test.go"); err != nil {
		t.Fatalf("unexpected registration error: %v", err)
	}
	_, err := r.CallOne(1, pluginabi.CallOneInput{})
	if err == nil {
		t.Fatal("expected an error loading a non-plugin file")
	}
	var phErr *pluginhost.Error
	if !asRegistryError(err, &phErr) {
		t.Fatalf("expected *pluginhost.Error, got %T", err)
	}
	if phErr.Kind != pluginhost.LoadFailed {
		t.Fatalf("expected LoadFailed, got %v", phErr.Kind)
	}
}

func asRegistryError(err error, target **pluginhost.Error) bool {
	e, ok := err.(*pluginhost.Error)
	if ok {
		*target = e
	}
	return ok
}
