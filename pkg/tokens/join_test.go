package tokens

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	usdcAddress = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	daiAddress  = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
)

func TestBuildCatalog_MatchesLogoCaseInsensitively(t *testing.T) {
	t.Parallel()

	cat := BuildCatalog(
		[]ListedToken{{Symbol: "USDC", Address: usdcAddress, Decimals: 6}},
		[]LogoEntry{{Address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", LogoURI: "https://img/usdc.png"}},
	)

	require.Equal(t, 1, cat.Len())
	tok, ok := cat.Lookup("USDC")
	require.True(t, ok)
	assert.Equal(t, Token{
		Symbol:   "USDC",
		Address:  usdcAddress,
		Decimals: 6,
		LogoURL:  "https://img/usdc.png",
	}, tok)
}

func TestBuildCatalog_PlaceholderWhenNoLogo(t *testing.T) {
	t.Parallel()

	cat := BuildCatalog(
		[]ListedToken{{Symbol: "DAI", Address: daiAddress, Decimals: 18}},
		[]LogoEntry{{Address: usdcAddress, LogoURI: "https://img/usdc.png"}},
	)

	tok, ok := cat.Lookup("DAI")
	require.True(t, ok)
	assert.Equal(t, PlaceholderLogoURL, tok.LogoURL)
	assert.Equal(t, 1, cat.CountPlaceholders())
}

func TestBuildCatalog_DuplicateSymbolLastWriteWins(t *testing.T) {
	t.Parallel()

	cat := BuildCatalog(
		[]ListedToken{
			{Symbol: "USDC", Address: daiAddress, Decimals: 18},
			{Symbol: "USDC", Address: usdcAddress, Decimals: 6},
		},
		nil,
	)

	require.Equal(t, 1, cat.Len())
	tok, _ := cat.Lookup("USDC")
	assert.Equal(t, usdcAddress, tok.Address)
	assert.Equal(t, uint8(6), tok.Decimals)
}

func TestBuildCatalog_FirstRegistryEntryWins(t *testing.T) {
	t.Parallel()

	cat := BuildCatalog(
		[]ListedToken{{Symbol: "USDC", Address: usdcAddress, Decimals: 6}},
		[]LogoEntry{
			{Address: usdcAddress, LogoURI: ""},
			{Address: usdcAddress, LogoURI: "https://img/first.png"},
			{Address: usdcAddress, LogoURI: "https://img/second.png"},
		},
	)

	tok, _ := cat.Lookup("USDC")
	assert.Equal(t, "https://img/first.png", tok.LogoURL)
}

func TestBuildCatalog_SymbolsAreCaseSensitive(t *testing.T) {
	t.Parallel()

	cat := BuildCatalog(
		[]ListedToken{
			{Symbol: "usdc", Address: usdcAddress, Decimals: 6},
			{Symbol: "USDC", Address: usdcAddress, Decimals: 6},
		},
		nil,
	)

	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, []string{"USDC", "usdc"}, cat.Symbols())
}

func TestBuildCatalog_Empty(t *testing.T) {
	t.Parallel()

	cat := BuildCatalog(nil, nil)
	assert.Equal(t, 0, cat.Len())
	assert.Empty(t, cat.Tokens())

	_, ok := cat.Lookup("USDC")
	assert.False(t, ok)
}

func TestCatalog_MarshalJSON(t *testing.T) {
	t.Parallel()

	cat := BuildCatalog(
		[]ListedToken{{Symbol: "USDC", Address: usdcAddress, Decimals: 6}},
		[]LogoEntry{{Address: usdcAddress, LogoURI: "https://img/usdc.png"}},
	)

	b, err := json.Marshal(cat)
	require.NoError(t, err)
	assert.JSONEq(t, `{"USDC":{"symbol":"USDC","address":"`+usdcAddress+`","decimals":6,"logoURL":"https://img/usdc.png"}}`, string(b))

	var nilCat *Catalog
	b, err = json.Marshal(nilCat)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestCatalog_TokensReturnsCopy(t *testing.T) {
	t.Parallel()

	cat := BuildCatalog([]ListedToken{{Symbol: "DAI", Address: daiAddress, Decimals: 18}}, nil)
	toks := cat.Tokens()
	toks[0].Symbol = "MUTATED"

	tok, ok := cat.Lookup("DAI")
	require.True(t, ok)
	assert.Equal(t, "DAI", tok.Symbol)
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		decimals uint8
		expected string
	}{
		{name: "nil amount", amount: nil, decimals: 6, expected: "0"},
		{name: "six decimals", amount: big.NewInt(1500000), decimals: 6, expected: "1.5"},
		{name: "zero decimals", amount: big.NewInt(42), decimals: 0, expected: "42"},
		{name: "sub unit", amount: big.NewInt(1), decimals: 18, expected: "0.000000000000000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatUnits(tt.amount, tt.decimals))
		})
	}
}

func TestParseUnits(t *testing.T) {
	got, err := ParseUnits("1.5", 6)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(1500000).Cmp(got))

	got, err = ParseUnits("0.1234567", 6)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(123456).Cmp(got))

	_, err = ParseUnits("abc", 6)
	require.Error(t, err)
}
