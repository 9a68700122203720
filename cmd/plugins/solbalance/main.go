// Command solbalance builds a dynamically loadable plugin (buildmode=plugin)
// exporting CallOne, the Solana lamport-balance requirement evaluator.
package main

import (
	"github.com/jihwankim/roleguard/pkg/pluginabi"
	"github.com/jihwankim/roleguard/pkg/plugins/solbalance"
)

// CallOne is the symbol pluginhost.Registry looks up.
var CallOne pluginabi.CallOneFunc = solbalance.CallOne

func main() {}
