package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jihwankim/roleguard/pkg/config"
	"github.com/jihwankim/roleguard/pkg/discovery/enclave"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "EVM RPC endpoint discovery",
}

var rpcDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Args:  cobra.NoArgs,
	Short: "Discover an EVM RPC endpoint from the configured Kurtosis enclave",
	Long: `Tries the Kurtosis engine API first (richer service matching), then
falls back to shelling out to the kurtosis CLI's "port print" for a small
set of well-known service names.`,
	RunE: runRPCDiscover,
}

func init() {
	rpcCmd.AddCommand(rpcDiscoverCmd)
	rootCmd.AddCommand(rpcCmd)
	rpcDiscoverCmd.Flags().String("port-name", "rpc", "Kurtosis port name to resolve")
}

func runRPCDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Kurtosis.EnclaveName == "" {
		return fmt.Errorf("kurtosis.enclave_name is not configured")
	}
	portName, _ := cmd.Flags().GetString("port-name")

	if d, err := enclave.New(); err == nil {
		endpoint, derr := d.FindEVMRPCEndpoint(context.Background(), cfg.Kurtosis.EnclaveName, portName)
		if derr == nil {
			fmt.Println(endpoint)
			return nil
		}
		fmt.Printf("engine-api discovery failed: %v; falling back to kurtosis CLI\n", derr)
	}

	endpoint, err := config.DiscoverEVMRPCEndpoint(cfg.Kurtosis.EnclaveName)
	if err != nil {
		return fmt.Errorf("failed to discover EVM RPC endpoint: %w", err)
	}
	fmt.Println(endpoint)
	return nil
}
