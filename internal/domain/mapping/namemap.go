package mapping

// defaultWarehouseAliases maps the warehouse names Shopify reports to
// the names used in the mapping sheet and the fulfillment system.
var defaultWarehouseAliases = map[string]string{
	"Jeddah": "Jeddah Club",
	"Riyadh": "Riyadh Club",
	"Dammam": "Dammam Club",
}

// NameNormalizer translates warehouse names between systems. Unknown
// names pass through unchanged.
type NameNormalizer struct {
	aliases map[string]string
}

// NewNameNormalizer builds a normalizer from the default aliases plus
// any configured overrides. Overrides win over defaults.
func NewNameNormalizer(overrides map[string]string) *NameNormalizer {
	aliases := make(map[string]string, len(defaultWarehouseAliases)+len(overrides))
	for from, to := range defaultWarehouseAliases {
		aliases[from] = to
	}
	for from, to := range overrides {
		aliases[from] = to
	}
	return &NameNormalizer{aliases: aliases}
}

// Normalize returns the alias for name, or name itself when no alias
// is configured. The match is case-sensitive.
func (n *NameNormalizer) Normalize(name string) string {
	if alias, ok := n.aliases[name]; ok {
		return alias
	}
	return name
}
