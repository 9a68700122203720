// Package pluginhost loads CallOne implementations from on-disk Go plugins
// (buildmode=plugin .so files) and dispatches requirement checks to them by
// numeric prefix. It is the Go-idiomatic analogue of the original
// libloading-based plugin manager: Go's stdlib plugin package plays the
// role libloading played there.
package pluginhost

import (
	"fmt"
	"os"
	"plugin"
	"sync"

	"github.com/jihwankim/roleguard/pkg/pluginabi"
)

// Prefix identifies which plugin a requirement's TokenType routes to.
type Prefix uint64

// Kind classifies why a Registry operation failed.
type Kind int

const (
	// PathMissing means Register was given a path that does not exist on
	// disk at registration time.
	PathMissing Kind = iota
	// LoadFailed means plugin.Open (or symbol resolution's underlying
	// library load) returned an error.
	LoadFailed
	// SymbolMissing means the .so opened but does not export CallOne with
	// the expected signature, or no plugin is registered under the
	// requested prefix at all.
	SymbolMissing
	// CallFailed means a loaded CallOne was invoked and returned an error.
	CallFailed
)

func (k Kind) String() string {
	switch k {
	case PathMissing:
		return "path_missing"
	case LoadFailed:
		return "load_failed"
	case SymbolMissing:
		return "symbol_missing"
	case CallFailed:
		return "call_failed"
	default:
		return "unknown"
	}
}

// Error reports a registry failure against a specific prefix.
type Error struct {
	Kind   Kind
	Prefix Prefix
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pluginhost: prefix %d: %s: %v", e.Prefix, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type loadedPlugin struct {
	callOne pluginabi.CallOneFunc
}

// Registry maps prefixes to plugin paths and lazily loads each .so on its
// first call, caching the resolved CallOne symbol thereafter.
type Registry struct {
	mu     sync.RWMutex
	paths  map[Prefix]string
	loaded map[Prefix]*loadedPlugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		paths:  make(map[Prefix]string),
		loaded: make(map[Prefix]*loadedPlugin),
	}
}

// Register associates a prefix with a plugin's .so path. The file must
// exist, but it is not opened until the prefix's first CallOne.
func (r *Registry) Register(prefix Prefix, path string) error {
	if _, err := os.Stat(path); err != nil {
		return &Error{Kind: PathMissing, Prefix: prefix, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[prefix] = path
	delete(r.loaded, prefix)
	return nil
}

// Remove forgets a prefix's registration and any cached load.
func (r *Registry) Remove(prefix Prefix) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, prefix)
	delete(r.loaded, prefix)
}

// Prefixes returns every currently registered prefix.
func (r *Registry) Prefixes() []Prefix {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Prefix, 0, len(r.paths))
	for p := range r.paths {
		out = append(out, p)
	}
	return out
}

func (r *Registry) load(prefix Prefix) (*loadedPlugin, error) {
	r.mu.RLock()
	if lp, ok := r.loaded[prefix]; ok {
		r.mu.RUnlock()
		return lp, nil
	}
	path, ok := r.paths[prefix]
	r.mu.RUnlock()
	if !ok {
		return nil, &Error{Kind: SymbolMissing, Prefix: prefix, Err: fmt.Errorf("no plugin registered under this prefix")}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if lp, ok := r.loaded[prefix]; ok {
		return lp, nil
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, &Error{Kind: LoadFailed, Prefix: prefix, Err: err}
	}

	sym, err := p.Lookup(pluginabi.CallOneSymbol)
	if err != nil {
		return nil, &Error{Kind: SymbolMissing, Prefix: prefix, Err: err}
	}

	callOne, ok := sym.(pluginabi.CallOneFunc)
	if !ok {
		return nil, &Error{Kind: SymbolMissing, Prefix: prefix, Err: fmt.Errorf("CallOne has the wrong signature")}
	}

	lp := &loadedPlugin{callOne: callOne}
	r.loaded[prefix] = lp
	return lp, nil
}

// CallOne resolves prefix's plugin (loading it on first use) and invokes
// its CallOne with input.
func (r *Registry) CallOne(prefix Prefix, input pluginabi.CallOneInput) ([]float64, error) {
	lp, err := r.load(prefix)
	if err != nil {
		return nil, err
	}
	result, err := lp.callOne(input)
	if err != nil {
		return nil, &Error{Kind: CallFailed, Prefix: prefix, Err: err}
	}
	return result, nil
}
