// Package evmabi is a hand-rolled ABI codec for the handful of call shapes
// the EVM balance plugin needs: Multicall aggregation, ERC-20/721
// balanceOf, ERC-721 ownerOf, ERC-1155 balanceOfBatch, and ERC-20
// decimals. It intentionally does not use go-ethereum's full ABI package —
// the wire format is pinned byte-for-byte against fixed test vectors, so
// the encoding is written out explicitly rather than derived from a
// generic ABI definition.
package evmabi

import (
	"fmt"
	"math/big"
	"strings"
)

// Function selectors (first 4 bytes of keccak256(signature), hex, no 0x).
const (
	funcAggregate    = "252dba42" // Multicall.aggregate((address,bytes)[])
	funcEthBalance   = "4d2301cc" // Multicall.getEthBalance(address)
	funcBalanceOf    = "70a08231" // ERC20/721 balanceOf(address)
	funcOwnerOf      = "6352211e" // ERC721 ownerOf(uint256)
	funcDecimals     = "313ce567" // ERC20 decimals()
	funcErc1155Batch = "4e1273f4" // ERC1155 balanceOfBatch(address[],uint256[])
)

// wordLen is the ABI word size in bytes; dataPartLen is the fixed
// call-data slot size the Multicall aggregation packs each call's data
// into, regardless of its actual length (every call shape this codec
// builds fits in two words).
const (
	wordLen     = 32
	dataPartLen = 64
)

// Call is one target+calldata pair prior to Multicall aggregation.
type Call struct {
	Target   string // 0x-prefixed or bare hex address
	CallData string // 0x-prefixed or bare hex calldata
}

func stripHex(s string) string {
	return strings.TrimPrefix(strings.ToLower(s), "0x")
}

func padLeftHex(s string, width int) string {
	s = stripHex(s)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func padUintWord(n uint64) string {
	return fmt.Sprintf("%064x", n)
}

// EthBalanceCallData builds the calldata for Multicall.getEthBalance(user).
func EthBalanceCallData(userAddress string) string {
	return funcEthBalance + padLeftHex(userAddress, wordLen*2)
}

// BalanceOfCallData builds the calldata for ERC20/721 balanceOf(user).
func BalanceOfCallData(userAddress string) string {
	return funcBalanceOf + padLeftHex(userAddress, wordLen*2)
}

// OwnerOfCallData builds the calldata for ERC721 ownerOf(id), id given as
// hex (no 0x prefix, as produced by DecToHex).
func OwnerOfCallData(idHex string) string {
	return funcOwnerOf + padLeftHex(idHex, wordLen*2)
}

// DecimalsCallData builds the (argument-free) calldata for ERC20 decimals().
func DecimalsCallData() string {
	return funcDecimals
}

// Erc1155BatchCallData builds the calldata for
// ERC1155.balanceOfBatch(addresses, ids) where every id is the same
// token ID (idHex, no 0x prefix), one per address, in address order.
func Erc1155BatchCallData(addresses []string, idHex string) string {
	count := len(addresses)

	var paddedAddrs strings.Builder
	for _, a := range addresses {
		paddedAddrs.WriteString(padLeftHex(a, wordLen*2))
	}

	idsOffset := (count + 3) * wordLen
	paddedID := padLeftHex(idHex, wordLen*2)
	var ids strings.Builder
	for i := 0; i < count; i++ {
		ids.WriteString(paddedID)
	}

	return funcErc1155Batch +
		padUintWord(dataPartLen) +
		padUintWord(uint64(idsOffset)) +
		padUintWord(uint64(count)) +
		paddedAddrs.String() +
		padUintWord(uint64(count)) +
		ids.String()
}

// Aggregate packs calls into a Multicall.aggregate((address,bytes)[])
// invocation. Grounded byte-for-byte on the reference erc20 multicall
// test vector: offsets walk the heads section in fixed 5-word (160-byte)
// strides, one per call, since every call's data part is padded to the
// fixed dataPartLen regardless of its real length.
func Aggregate(calls []Call) string {
	n := len(calls)

	var offsets strings.Builder
	for i := 0; i < n; i++ {
		offsets.WriteString(padUintWord(uint64((i*5+n)*wordLen)))
	}

	var blocks strings.Builder
	for _, call := range calls {
		data := stripHex(call.CallData)
		dataLenBytes := len(data) / 2
		padding := strings.Repeat("0", (dataPartLen-dataLenBytes)*2)

		blocks.WriteString(padLeftHex(call.Target, wordLen*2))
		blocks.WriteString(padUintWord(dataPartLen))
		blocks.WriteString(padUintWord(uint64(dataLenBytes)))
		blocks.WriteString(data)
		blocks.WriteString(padding)
	}

	return funcAggregate + padUintWord(wordLen) + padUintWord(uint64(n)) + offsets.String() + blocks.String()
}

func chunkWords(hexResult string) []string {
	s := stripHex(hexResult)
	var words []string
	for i := 0; i+64 <= len(s); i += 64 {
		words = append(words, s[i:i+64])
	}
	return words
}

func wordToFloat(word string) (float64, error) {
	n, ok := new(big.Int).SetString(word, 16)
	if !ok {
		return 0, fmt.Errorf("evmabi: invalid hex word %q", word)
	}
	f := new(big.Float).SetInt(n)
	v, _ := f.Float64()
	return v, nil
}

func wordToInt(word string) (int64, error) {
	n, ok := new(big.Int).SetString(word, 16)
	if !ok {
		return 0, fmt.Errorf("evmabi: invalid hex word %q", word)
	}
	return n.Int64(), nil
}

// ParseMulticallResult decodes the return data of an aggregate() call into
// one balance per original call, in the original call order. The stride
// (skip count+4, then step 2) assumes a Multicall2/3-style
// (success,returnData) per-entry layout; other Multicall return layouts
// are not supported.
func ParseMulticallResult(hexResult string) ([]float64, error) {
	words := chunkWords(hexResult)
	if len(words) < 3 {
		return nil, fmt.Errorf("evmabi: multicall result too short (%d words)", len(words))
	}

	count, err := wordToInt(words[2])
	if err != nil {
		return nil, err
	}

	start := int(count) + 4
	var balances []float64
	for i := start; i < len(words); i += 2 {
		v, err := wordToFloat(words[i])
		if err != nil {
			return nil, err
		}
		balances = append(balances, v)
	}
	return balances, nil
}

// ParseErc1155BatchResult decodes a balanceOfBatch response: skip the first
// two words (offset, array length), then every remaining word is one
// balance, in address order.
func ParseErc1155BatchResult(hexResult string) ([]float64, error) {
	words := chunkWords(hexResult)
	if len(words) < 2 {
		return nil, fmt.Errorf("evmabi: erc1155 batch result too short (%d words)", len(words))
	}

	balances := make([]float64, 0, len(words)-2)
	for _, w := range words[2:] {
		v, err := wordToFloat(w)
		if err != nil {
			return nil, err
		}
		balances = append(balances, v)
	}
	return balances, nil
}

// ParseDecimals decodes a decimals() response word into its integer value.
func ParseDecimals(hexResult string) (uint32, error) {
	word := stripHex(hexResult)
	word = padLeftHex(word, wordLen*2)
	n, ok := new(big.Int).SetString(word, 16)
	if !ok {
		return 0, fmt.Errorf("evmabi: invalid decimals word %q", word)
	}
	return uint32(n.Uint64()), nil
}

// OwnerMatches reports whether a 32-byte-padded ownerOf() return word
// encodes the given user address (case-insensitively).
func OwnerMatches(hexResult, userAddress string) bool {
	word := padLeftHex(hexResult, wordLen*2)
	return word[len(word)-40:] == padLeftHex(userAddress, 40)
}

// DecToHex converts a base-10 string to lowercase hex with no leading
// zeros (other than the single digit "0" itself) and no 0x prefix.
func DecToHex(decimal string) (string, error) {
	n, ok := new(big.Int).SetString(decimal, 10)
	if !ok {
		return "", fmt.Errorf("evmabi: invalid decimal string %q", decimal)
	}
	return n.Text(16), nil
}

// NormalizeByDecimals divides every balance by 10^decimals.
func NormalizeByDecimals(balances []float64, decimals uint32) []float64 {
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	divisorF, _ := divisor.Float64()
	out := make([]float64, len(balances))
	for i, b := range balances {
		out[i] = b / divisorF
	}
	return out
}

// EthBalanceDivisor is 10^18, the fixed normalizer for native ETH balances.
const EthBalanceDivisor = 1e18

// NormalizeEth divides every balance by 10^18.
func NormalizeEth(balances []float64) []float64 {
	out := make([]float64, len(balances))
	for i, b := range balances {
		out[i] = b / EthBalanceDivisor
	}
	return out
}
