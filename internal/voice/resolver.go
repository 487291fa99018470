// Package voice maps logical voice identifiers to provider voice identifiers.
package voice

// Default alias table. Identity entries document the voices the frontend
// offers; the two dialect aliases are the only real rewrites.
const (
	aliasCantonese = "zh-CN-Cantonese"
	aliasTaiwan    = "zh-CN-Taiwan"

	providerCantonese = "zh-HK-HiuMaanNeural"
	providerTaiwan    = "zh-TW-HsiaoChenNeural"
)

// Resolver translates logical voice identifiers into provider voice
// identifiers. The table is an override map, not an allow-list: any
// identifier without an entry is passed through unchanged, so
// provider-native voice identifiers always work directly.
type Resolver struct {
	aliases map[string]string
}

// NewResolver creates a resolver with the default alias table.
func NewResolver() *Resolver {
	return NewResolverWithAliases(map[string]string{
		"zh-CN-YunyangNeural":  "zh-CN-YunyangNeural",
		"zh-CN-XiaoxiaoNeural": "zh-CN-XiaoxiaoNeural",
		"zh-CN-XiaoyiNeural":   "zh-CN-XiaoyiNeural",
		"zh-CN-YunjianNeural":  "zh-CN-YunjianNeural",
		"zh-CN-YunxiNeural":    "zh-CN-YunxiNeural",
		"zh-CN-YunxiaNeural":   "zh-CN-YunxiaNeural",
		aliasCantonese:         providerCantonese,
		aliasTaiwan:            providerTaiwan,
	})
}

// NewResolverWithAliases creates a resolver with a custom alias table. The
// table is copied so the resolver stays immutable after construction.
func NewResolverWithAliases(aliases map[string]string) *Resolver {
	copied := make(map[string]string, len(aliases))
	for alias, providerVoice := range aliases {
		copied[alias] = providerVoice
	}

	return &Resolver{aliases: copied}
}

// Resolve returns the provider voice identifier for a logical voice
// identifier. Unknown identifiers are returned unchanged, never rejected.
func (r *Resolver) Resolve(voiceID string) string {
	if providerVoice, ok := r.aliases[voiceID]; ok {
		return providerVoice
	}

	return voiceID
}
