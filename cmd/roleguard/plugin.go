package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jihwankim/roleguard/pkg/pluginhost"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Manage installed requirement plugins",
}

var pluginInstallCmd = &cobra.Command{
	Use:   "install <prefix> <name> <path-to-so>",
	Args:  cobra.ExactArgs(3),
	Short: "Register a plugin .so under a requirement prefix",
	RunE:  runPluginInstall,
}

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Args:  cobra.NoArgs,
	Short: "List installed plugins",
	RunE:  runPluginList,
}

var pluginRemoveCmd = &cobra.Command{
	Use:   "remove <prefix>",
	Args:  cobra.ExactArgs(1),
	Short: "Remove a plugin's registration",
	RunE:  runPluginRemove,
}

func init() {
	pluginCmd.AddCommand(pluginInstallCmd)
	pluginCmd.AddCommand(pluginListCmd)
	pluginCmd.AddCommand(pluginRemoveCmd)
}

func runPluginInstall(cmd *cobra.Command, args []string) error {
	prefix, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid prefix %q: %w", args[0], err)
	}
	name := args[1]
	path := args[2]

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	manifest, err := pluginhost.LoadManifest(cfg.Plugins.Dir)
	if err != nil {
		return fmt.Errorf("failed to load plugin manifest: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve plugin path: %w", err)
	}

	// Validate the path loads before recording it, so a bad install fails
	// fast instead of surfacing on the next check.
	reg := pluginhost.NewRegistry()
	if err := reg.Register(pluginhost.Prefix(prefix), absPath); err != nil {
		return fmt.Errorf("failed to register plugin: %w", err)
	}

	manifest.Put(pluginhost.ManifestEntry{Prefix: prefix, Name: name, Path: absPath})
	if err := manifest.Save(cfg.Plugins.Dir); err != nil {
		return fmt.Errorf("failed to save plugin manifest: %w", err)
	}

	fmt.Printf("installed plugin %q under prefix %d\n", name, prefix)
	return nil
}

func runPluginList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	manifest, err := pluginhost.LoadManifest(cfg.Plugins.Dir)
	if err != nil {
		return fmt.Errorf("failed to load plugin manifest: %w", err)
	}

	if len(manifest.Entries) == 0 {
		fmt.Println("no plugins installed")
		return nil
	}

	for _, e := range manifest.Entries {
		fmt.Printf("prefix=%d name=%s path=%s\n", e.Prefix, e.Name, e.Path)
	}
	return nil
}

func runPluginRemove(cmd *cobra.Command, args []string) error {
	prefix, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid prefix %q: %w", args[0], err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	manifest, err := pluginhost.LoadManifest(cfg.Plugins.Dir)
	if err != nil {
		return fmt.Errorf("failed to load plugin manifest: %w", err)
	}

	manifest.Remove(prefix)
	if err := manifest.Save(cfg.Plugins.Dir); err != nil {
		return fmt.Errorf("failed to save plugin manifest: %w", err)
	}

	fmt.Printf("removed plugin registration for prefix %d\n", prefix)
	return nil
}
