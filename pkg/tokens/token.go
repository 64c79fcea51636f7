package tokens

import (
	"encoding/json"
	"sort"
)

// PlaceholderLogoURL is used for tokens that have no entry in the logo registry.
const PlaceholderLogoURL = "https://systemuicons.com/images/icons/question_circle.svg"

// Token is the metadata kept for a single tradable token.
type Token struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`  // 0x-prefixed, copied verbatim from the exchange list
	Decimals uint8  `json:"decimals"`
	LogoURL  string `json:"logoURL"`
}

// Catalog is an immutable symbol-keyed set of tokens.
// The zero value is an empty catalog.
type Catalog struct {
	bySymbol map[string]Token
}

// Lookup returns the token registered under symbol. Symbols are case-sensitive.
func (c *Catalog) Lookup(symbol string) (Token, bool) {
	if c == nil {
		return Token{}, false
	}
	t, ok := c.bySymbol[symbol]
	return t, ok
}

// Len returns the number of tokens in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.bySymbol)
}

// Symbols returns all symbols in lexical order.
func (c *Catalog) Symbols() []string {
	if c == nil {
		return []string{}
	}
	out := make([]string, 0, len(c.bySymbol))
	for s := range c.bySymbol {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Tokens returns a copy of all tokens ordered by symbol.
func (c *Catalog) Tokens() []Token {
	symbols := c.Symbols()
	out := make([]Token, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, c.bySymbol[s])
	}
	return out
}

// CountPlaceholders returns how many tokens fell back to PlaceholderLogoURL.
func (c *Catalog) CountPlaceholders() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, t := range c.bySymbol {
		if t.LogoURL == PlaceholderLogoURL {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the catalog as an object keyed by symbol.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	if c == nil || c.bySymbol == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.bySymbol)
}
