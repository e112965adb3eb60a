package settings

import (
	"strings"
)

// DefaultMaskPattern replaces masked values
const DefaultMaskPattern = "******"

// MaskStrategy determines how sensitive values are hidden from snapshots
type MaskStrategy interface {
	// MaskValue returns the value to expose for key, which is either value
	// itself or a replacement
	MaskValue(key string, value any) any
}

// DefaultMaskStrategy masks keys containing any of SensitiveKeys
type DefaultMaskStrategy struct {
	// SensitiveKeys are substrings such as "password", "secret", "key"
	SensitiveKeys []string
	// MaskPattern replaces masked values, DefaultMaskPattern when empty
	MaskPattern string
}

// MaskValue implements MaskStrategy
func (s *DefaultMaskStrategy) MaskValue(key string, value any) any {
	for _, pattern := range s.SensitiveKeys {
		if containsInsensitive(key, pattern) {
			return maskPattern(s.MaskPattern)
		}
	}
	return value
}

// EncryptedFieldsStrategy masks exactly the properties flagged for
// encryption by a provider.
type EncryptedFieldsStrategy struct {
	Options     ProviderOptions
	MaskPattern string
}

// MaskValue implements MaskStrategy
func (s *EncryptedFieldsStrategy) MaskValue(key string, value any) any {
	if s.Options.ShouldEncrypt(key) {
		return maskPattern(s.MaskPattern)
	}
	return value
}

// ChainStrategy applies each strategy in order
type ChainStrategy []MaskStrategy

// MaskValue implements MaskStrategy
func (c ChainStrategy) MaskValue(key string, value any) any {
	for _, s := range c {
		if s != nil {
			value = s.MaskValue(key, value)
		}
	}
	return value
}

// NewDefaultMaskStrategy masks the provider's encrypted fields and any key
// that looks like a credential.
func NewDefaultMaskStrategy(opts ProviderOptions) MaskStrategy {
	return ChainStrategy{
		&EncryptedFieldsStrategy{Options: opts},
		&DefaultMaskStrategy{
			SensitiveKeys: []string{"password", "secret", "token", "credential", "apikey", "api_key"},
		},
	}
}

func maskPattern(p string) string {
	if p == "" {
		return DefaultMaskPattern
	}
	return p
}

// containsInsensitive checks if str contains substr case-insensitively
func containsInsensitive(str, substr string) bool {
	str, substr = strings.ToLower(str), strings.ToLower(substr)
	return strings.Contains(str, substr)
}
