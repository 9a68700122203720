package main

import (
	"fmt"

	"github.com/jihwankim/roleguard/pkg/config"
	"github.com/jihwankim/roleguard/pkg/pluginhost"
	"github.com/jihwankim/roleguard/pkg/pluginstore"
	"github.com/jihwankim/roleguard/pkg/pluginstore/boltkv"
	"github.com/jihwankim/roleguard/pkg/reporting"
	"github.com/jihwankim/roleguard/pkg/requirement"
	"github.com/jihwankim/roleguard/pkg/role"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *reporting.Logger {
	level := reporting.LogLevel(cfg.Log.Level)
	if verbose {
		level = reporting.LogLevelDebug
	}
	return reporting.NewLogger(reporting.LoggerConfig{
		Level:  level,
		Format: reporting.LogFormat(cfg.Log.Format),
	})
}

// runtime bundles the plugin store, registry, and evaluator every
// role-evaluating command needs, plus the store's close func.
type runtime struct {
	kv        *boltkv.KV
	store     *pluginstore.Store
	registry  *pluginhost.Registry
	evaluator *role.Evaluator
}

func (r *runtime) Close() error {
	if r.kv != nil {
		return r.kv.Close()
	}
	return nil
}

func buildRuntime(cfg *config.Config) (*runtime, error) {
	kv, err := boltkv.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plugin store: %w", err)
	}

	store := pluginstore.New(kv, cfg.Store.SecretCacheTTL)

	manifest, err := pluginhost.LoadManifest(cfg.Plugins.Dir)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("failed to load plugin manifest: %w", err)
	}

	registry := pluginhost.NewRegistry()
	if err := manifest.Populate(registry, cfg.Plugins.Dir); err != nil {
		kv.Close()
		return nil, err
	}

	rt := requirement.NewRuntime(registry, store)
	evaluator := role.NewEvaluator(rt)

	return &runtime{kv: kv, store: store, registry: registry, evaluator: evaluator}, nil
}
