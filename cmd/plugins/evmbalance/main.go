// Command evmbalance builds a dynamically loadable plugin (buildmode=plugin)
// exporting CallOne, the EVM balance requirement evaluator. main() exists
// only because the plugin build mode requires a package main; the host
// process never calls it.
package main

import (
	"github.com/jihwankim/roleguard/pkg/pluginabi"
	"github.com/jihwankim/roleguard/pkg/plugins/evmbalance"
)

// CallOne is the symbol pluginhost.Registry looks up.
var CallOne pluginabi.CallOneFunc = evmbalance.CallOne

func main() {}
