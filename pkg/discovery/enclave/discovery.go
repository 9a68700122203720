// Package enclave discovers EVM RPC endpoints inside a running Kurtosis
// enclave, the richer counterpart to config.DiscoverEVMRPCEndpoint's plain
// `kurtosis port print` shell-out. It talks to the local Kurtosis engine
// over its Go client rather than parsing CLI output.
package enclave

import (
	"context"
	"fmt"
	"regexp"

	"github.com/kurtosis-tech/kurtosis/api/golang/engine/lib/kurtosis_context"
)

// Service describes a single service discovered inside an enclave.
type Service struct {
	Name string
	IP   string
	Port uint16
}

// Discovery holds a connection to the local Kurtosis engine.
type Discovery struct {
	kurtosisCtx *kurtosis_context.KurtosisContext
}

// New connects to the Kurtosis engine running on the local machine.
func New() (*Discovery, error) {
	ctx, err := kurtosis_context.NewKurtosisContextFromLocalEngine()
	if err != nil {
		return nil, fmt.Errorf("enclave: failed to connect to Kurtosis engine: %w", err)
	}
	return &Discovery{kurtosisCtx: ctx}, nil
}

var rpcServicePattern = regexp.MustCompile(`rpc|geth|bor|el-\d+`)

// FindEVMRPCEndpoint scans the named enclave for a service whose name looks
// like an EVM execution client and returns its HTTP endpoint for portName.
func (d *Discovery) FindEVMRPCEndpoint(ctx context.Context, enclaveName, portName string) (string, error) {
	enclaveCtx, err := d.kurtosisCtx.GetEnclaveContext(ctx, enclaveName)
	if err != nil {
		return "", fmt.Errorf("enclave: failed to get enclave context for %q: %w", enclaveName, err)
	}
	services, err := enclaveCtx.GetServices()
	if err != nil {
		return "", fmt.Errorf("enclave: failed to list services in %q: %w", enclaveName, err)
	}
	for serviceName, serviceCtx := range services {
		if !rpcServicePattern.MatchString(string(serviceName)) {
			continue
		}
		ports := serviceCtx.GetPrivatePorts()
		portSpec, ok := ports[portName]
		if !ok {
			continue
		}
		return fmt.Sprintf("http://%s:%d", serviceCtx.GetPrivateIPAddress().String(), portSpec.GetNumber()), nil
	}
	return "", fmt.Errorf("enclave: no RPC-like service with port %q found in %q", portName, enclaveName)
}

// ListEnclaves returns the names of all enclaves known to the local engine.
func (d *Discovery) ListEnclaves(ctx context.Context) ([]string, error) {
	enclaves, err := d.kurtosisCtx.GetEnclaves(ctx)
	if err != nil {
		return nil, fmt.Errorf("enclave: failed to list enclaves: %w", err)
	}
	names := make([]string, 0, len(enclaves))
	for name := range enclaves {
		names = append(names, string(name))
	}
	return names, nil
}
