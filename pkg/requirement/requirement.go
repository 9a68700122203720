// Package requirement is the dispatch layer between a Role's declared
// requirements and the plugins that actually evaluate them: it resolves a
// requirement's secret, invokes its plugin through the stable CallOne ABI,
// and folds the returned scalars through a Relation into booleans.
package requirement

import (
	"fmt"
	"net/http"

	"github.com/jihwankim/roleguard/pkg/pluginabi"
	"github.com/jihwankim/roleguard/pkg/pluginhost"
	"github.com/jihwankim/roleguard/pkg/pluginstore"
	"github.com/jihwankim/roleguard/pkg/relation"
)

// Requirement is one named condition within a Role. Prefix selects both
// the plugin that evaluates it and its secret configuration; Metadata is
// opaque to everything except that plugin.
type Requirement struct {
	Prefix      uint64                     `json:"prefix" yaml:"prefix"`
	Metadata    []byte                     `json:"metadata" yaml:"metadata"`
	Relation    relation.Relation[float64] `json:"relation" yaml:"relation"`
	IdentityTag string                     `json:"identity_tag" yaml:"identity_tag"`
}

// Error wraps a requirement check failure with the prefix that failed,
// which the role evaluator wraps in a *role.Error that fails the whole batch.
type Error struct {
	Prefix uint64
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("requirement: prefix %d: %v", e.Prefix, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// PluginCaller is the subset of *pluginhost.Registry a Runtime needs.
type PluginCaller interface {
	CallOne(prefix pluginhost.Prefix, input pluginabi.CallOneInput) ([]float64, error)
}

// SecretGetter is the subset of *pluginstore.Store a Runtime needs.
type SecretGetter interface {
	GetSecret(prefix uint64) ([]byte, error)
}

// Runtime dispatches requirement checks to plugins, reading each
// requirement's secret from a Store and routing its call through a
// Registry.
type Runtime struct {
	plugins PluginCaller
	secrets SecretGetter
}

// NewRuntime builds a Runtime over the given plugin registry and secret
// store. Both are accepted as their narrow interfaces so tests can supply
// fakes without a live Registry or Store.
func NewRuntime(plugins PluginCaller, secrets SecretGetter) *Runtime {
	return &Runtime{plugins: plugins, secrets: secrets}
}

var (
	_ PluginCaller = (*pluginhost.Registry)(nil)
	_ SecretGetter = (*pluginstore.Store)(nil)
)

// Check evaluates req against identities, returning one boolean per
// identity in the same order. The whole batch fails together if the
// plugin call fails or misbehaves — per-identity failures are not
// distinguishable across the plugin boundary.
func (rt *Runtime) Check(req Requirement, client *http.Client, identities []string) ([]bool, error) {
	secret, err := rt.secrets.GetSecret(req.Prefix)
	if err != nil {
		return nil, &Error{Prefix: req.Prefix, Err: err}
	}

	scalars, err := rt.plugins.CallOne(pluginhost.Prefix(req.Prefix), pluginabi.CallOneInput{
		Client:   client,
		Users:    identities,
		Secrets:  secret,
		Metadata: req.Metadata,
	})
	if err != nil {
		return nil, &Error{Prefix: req.Prefix, Err: err}
	}

	if len(scalars) != len(identities) {
		return nil, &Error{
			Prefix: req.Prefix,
			Err:    fmt.Errorf("plugin returned %d scalars for %d identities", len(scalars), len(identities)),
		}
	}

	out := make([]bool, len(scalars))
	for i, s := range scalars {
		out[i] = req.Relation.Assert(s)
	}
	return out, nil
}
