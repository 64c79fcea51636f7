package tokens

import "strings"

// ListedToken is a record from the exchange token list.
type ListedToken struct {
	Symbol   string
	Address  string
	Decimals uint8
}

// LogoEntry maps a contract address to an icon URL in the logo registry.
type LogoEntry struct {
	Address string
	LogoURI string
}

// BuildCatalog joins the exchange list with the logo registry.
//
// Listed tokens are inserted in order, so a symbol that appears more than once keeps
// the last record. Logos are matched by case-insensitive address; when the registry
// holds several entries for one address the first one wins. Entries without a logo
// URI are ignored, and tokens without a match get PlaceholderLogoURL.
// Unlike a plain first-match lookup, a logo-less first entry does not hide a later
// entry for the same address that carries a logo.
func BuildCatalog(listed []ListedToken, logos []LogoEntry) *Catalog {
	index := make(map[string]string, len(logos))
	for _, l := range logos {
		if l.LogoURI == "" {
			continue
		}
		key := strings.ToLower(l.Address)
		if _, ok := index[key]; ok {
			continue
		}
		index[key] = l.LogoURI
	}

	bySymbol := make(map[string]Token, len(listed))
	for _, lt := range listed {
		logo, ok := index[strings.ToLower(lt.Address)]
		if !ok {
			logo = PlaceholderLogoURL
		}
		bySymbol[lt.Symbol] = Token{
			Symbol:   lt.Symbol,
			Address:  lt.Address,
			Decimals: lt.Decimals,
			LogoURL:  logo,
		}
	}

	return &Catalog{bySymbol: bySymbol}
}
