package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jihwankim/roleguard/pkg/fuzz/precompile"
)

var evmCmd = &cobra.Command{
	Use:   "evm",
	Short: "EVM RPC diagnostics",
}

var evmDiagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Args:  cobra.NoArgs,
	Short: "Check that an EVM RPC endpoint's precompiles behave as expected",
	Long: `Calls every core EVM and Bor precompile address plus a set of unassigned
addresses, and reports whether each returned what it should. With --rounds,
runs that many lighter-weight random spot-checks instead of the full sweep.
Useful for sanity-checking an rpc_url before putting it in a requirement's
secret — a plugin silently getting wrong balances from a misconfigured RPC
endpoint is a much worse failure mode than this command erroring up front.`,
	RunE: runEVMDiagnose,
}

func init() {
	evmDiagnoseCmd.Flags().String("rpc-url", "", "EVM JSON-RPC endpoint to test (overrides evm_rpc.url from config)")
	evmDiagnoseCmd.Flags().Int64("seed", 1, "random seed for --rounds spot-check sampling")
	evmDiagnoseCmd.Flags().Int("rounds", 0, "run N random spot-check rounds instead of a full audit (0 = full audit)")
	evmCmd.AddCommand(evmDiagnoseCmd)
	rootCmd.AddCommand(evmCmd)
}

func runEVMDiagnose(cmd *cobra.Command, args []string) error {
	rpcURL, _ := cmd.Flags().GetString("rpc-url")
	seed, _ := cmd.Flags().GetInt64("seed")
	rounds, _ := cmd.Flags().GetInt("rounds")

	if rpcURL == "" {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		rpcURL = cfg.EVMRPC.URL
	}
	if rpcURL == "" {
		return fmt.Errorf("no RPC endpoint: pass --rpc-url or set evm_rpc.url in config")
	}

	checker := precompile.New(rpcURL, seed)

	var results []precompile.Result
	if rounds > 0 {
		for i := 0; i < rounds; i++ {
			results = append(results, checker.Sample(context.Background())...)
		}
	} else {
		results = checker.RunAll(context.Background())
	}

	failed := 0
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %-24s %-18s %s\n", status, r.Address, r.Name, r.Message)
	}

	fmt.Printf("\n%d/%d checks passed\n", len(results)-failed, len(results))
	if failed > 0 {
		return fmt.Errorf("%d precompile check(s) failed", failed)
	}
	return nil
}
