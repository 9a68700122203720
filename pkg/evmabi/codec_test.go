package evmabi_test

import (
	"strings"
	"testing"

	"github.com/jihwankim/roleguard/pkg/evmabi"
)

func TestAggregateMatchesReferenceVector(t *testing.T) {
	erc20 := "0x458691c1692cd82facfb2c5127e36d63213448a8"
	user1 := "0xe43878ce78934fe8007748ff481f03b8ee3b97de"
	user2 := "0x14ddfe8ea7ffc338015627d160ccaf99e8f16dd3"

	call1 := evmabi.Call{Target: erc20, CallData: evmabi.BalanceOfCallData(user1)}
	call2 := evmabi.Call{Target: erc20, CallData: evmabi.BalanceOfCallData(user2)}

	want := strings.Join([]string{
		"252dba42",
		"0000000000000000000000000000000000000000000000000000000000000020",
		"0000000000000000000000000000000000000000000000000000000000000002",
		"0000000000000000000000000000000000000000000000000000000000000040",
		"00000000000000000000000000000000000000000000000000000000000000e0",
		"000000000000000000000000458691c1692cd82facfb2c5127e36d63213448a8",
		"0000000000000000000000000000000000000000000000000000000000000040",
		"0000000000000000000000000000000000000000000000000000000000000024",
		"70a08231000000000000000000000000e43878ce78934fe8007748ff481f03b8",
		"ee3b97de00000000000000000000000000000000000000000000000000000000",
		"000000000000000000000000458691c1692cd82facfb2c5127e36d63213448a8",
		"0000000000000000000000000000000000000000000000000000000000000040",
		"0000000000000000000000000000000000000000000000000000000000000024",
		"70a0823100000000000000000000000014ddfe8ea7ffc338015627d160ccaf99",
		"e8f16dd300000000000000000000000000000000000000000000000000000000",
	}, "")

	got := evmabi.Aggregate([]evmabi.Call{call1, call2})
	if got != want {
		t.Fatalf("aggregate mismatch:\n got=%s\nwant=%s", got, want)
	}
}

func TestDecToHex(t *testing.T) {
	cases := map[string]string{
		"0":    "0",
		"10":   "a",
		"15":   "f",
		"16":   "10",
		"1024": "400",
	}
	for dec, want := range cases {
		got, err := evmabi.DecToHex(dec)
		if err != nil {
			t.Fatalf("DecToHex(%q) unexpected error: %v", dec, err)
		}
		if got != want {
			t.Fatalf("DecToHex(%q) = %q, want %q", dec, got, want)
		}
	}
}

func TestDecToHexRejectsNonNumeric(t *testing.T) {
	if _, err := evmabi.DecToHex("abc"); err == nil {
		t.Fatal("expected an error for a non-numeric decimal string")
	}
}

func padWord(hex string) string {
	return strings.Repeat("0", 64-len(hex)) + hex
}

func TestParseMulticallResultRoundTrips(t *testing.T) {
	// Word layout: [0],[1] head filler, [2] count=2, [3],[4],[5] filler up
	// to the count+4=6 skip point, then value words at indices 6 and 8.
	words := []string{"0", "0", "2", "0", "0", "0", "64", "0", "c8"}
	var result strings.Builder
	result.WriteString("0x")
	for _, w := range words {
		result.WriteString(padWord(w))
	}

	balances, err := evmabi.ParseMulticallResult(result.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(balances) != 2 || balances[0] != 100 || balances[1] != 200 {
		t.Fatalf("unexpected balances: %v", balances)
	}
}

func TestErc1155BatchCallDataAndParse(t *testing.T) {
	addrs := []string{
		"0xe43878ce78934fe8007748ff481f03b8ee3b97de",
		"0x14ddfe8ea7ffc338015627d160ccaf99e8f16dd3",
	}
	idHex, err := evmabi.DecToHex("1")
	if err != nil {
		t.Fatal(err)
	}
	data := evmabi.Erc1155BatchCallData(addrs, idHex)
	if !strings.HasPrefix(data, "4e1273f4") {
		t.Fatalf("expected erc1155 selector prefix, got %s", data[:8])
	}

	result := "0x" + padWord("40") + padWord("2") + padWord("a") + padWord("14")
	balances, err := evmabi.ParseErc1155BatchResult(result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(balances) != 2 || balances[0] != 10 || balances[1] != 20 {
		t.Fatalf("unexpected balances: %v", balances)
	}
}

func TestNormalizeByDecimals(t *testing.T) {
	got := evmabi.NormalizeByDecimals([]float64{0, 1, 2, 100, 1000}, 2)
	want := []float64{0, 0.01, 0.02, 1.0, 10.0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestNormalizeEth(t *testing.T) {
	got := evmabi.NormalizeEth([]float64{1e18, 5e17})
	if got[0] != 1.0 || got[1] != 0.5 {
		t.Fatalf("unexpected normalized eth balances: %v", got)
	}
}

func TestOwnerMatches(t *testing.T) {
	user := "0xe43878ce78934fe8007748ff481f03b8ee3b97de"
	word := padWord(strings.TrimPrefix(user, "0x"))
	if !evmabi.OwnerMatches(word, user) {
		t.Fatal("expected matching owner")
	}
	if evmabi.OwnerMatches(word, "0x14ddfe8ea7ffc338015627d160ccaf99e8f16dd3") {
		t.Fatal("expected non-matching owner to fail")
	}
}
