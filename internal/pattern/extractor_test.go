package pattern

import (
	"strings"
	"testing"

	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPatterns(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        []string
	}{
		{
			name:        "merchant with stopword",
			description: "Amazon Marketplace Payment",
			want: []string{
				`\bamazon\b`,
				`\bmarketplace\b`,
				`amazon\s+marketplace`,
				`amazon\s+marketplace\s+payment`,
			},
		},
		{
			name:        "three survivors produce a phrase",
			description: "SAINSBURYS SUPERMARKET CAMDEN LONDON",
			want: []string{
				`\bsainsburys\b`,
				`\bsupermarket\b`,
				`\bcamden\b`,
				`\blondon\b`,
				`sainsburys\s+supermarket`,
				`supermarket\s+camden`,
				`camden\s+london`,
				`sainsburys\s+supermarket\s+camden`,
			},
		},
		{
			name:        "short and stop words only",
			description: "card payment to bank",
			want:        nil,
		},
		{
			name:        "capitalized name without survivors",
			description: "Pay Ltd ref",
			want:        []string{`pay\s+ltd`},
		},
		{
			name:        "single capitalized word duplicates the token pattern",
			description: "Netflix 4021",
			want:        []string{`\bnetflix\b`},
		},
		{
			name:        "capitals inside a word are not word starts",
			description: "McDonalds Restaurant",
			want: []string{
				`\bmcdonalds\b`,
				`\brestaurant\b`,
				`mcdonalds\s+restaurant`,
			},
		},
		{
			name:        "apostrophe is dropped before reading capitals",
			description: "Trader Joe's",
			want:        []string{`\btrader\b`, `trader\s+joes`},
		},
		{
			name:        "empty description",
			description: "",
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPatterns(tt.description))
		})
	}
}

func TestExtractPatterns_MatchOwnDescription(t *testing.T) {
	descriptions := []string{
		"McDonalds Restaurant",
		"PayPal Spotify",
		"eBay Marketplace",
		"Whole-Foods Market",
		"Trader Joe's",
		"Amazon Marketplace Payment",
		"SAINSBURYS SUPERMARKET CAMDEN LONDON",
		"Café Nero Victoria",
	}

	for _, desc := range descriptions {
		t.Run(desc, func(t *testing.T) {
			for _, candidate := range ExtractPatterns(desc) {
				matches := MatchPatterns(desc, []model.Pattern{
					{ID: "p1", Pattern: candidate, CategoryID: "c1", ConfidenceScore: 60},
				})
				assert.NotEmpty(t, matches, "candidate %q should match %q", candidate, desc)
			}
		})
	}
}

func TestExtractPatterns_SingleWordsAreAnchored(t *testing.T) {
	descriptions := []string{
		"Direct debit to BRITISH GAS SERVICES",
		"uber   trip help.uber.com",
		"Transfer to savings account 00412",
	}

	for _, desc := range descriptions {
		patterns := ExtractPatterns(desc)
		require.NotEmpty(t, patterns, "expected candidates for %q", desc)

		for _, p := range patterns {
			if strings.Contains(p, `\s+`) {
				continue
			}
			assert.True(t, strings.HasPrefix(p, `\b`) && strings.HasSuffix(p, `\b`),
				"single-word pattern %q should be anchored", p)
		}
	}
}

func TestExtractor_CustomStopwords(t *testing.T) {
	e := NewExtractor(WithStopwords(NewStopwords("test", "amazon")))

	got := e.Extract("amazon marketplace")
	assert.Equal(t, []string{`\bmarketplace\b`}, got)
}

func TestExtractor_MinTokenLength(t *testing.T) {
	e := NewExtractor(WithMinTokenLength(3))

	got := e.Extract("bp fuel station")
	assert.Equal(t, []string{`\bfuel\b`, `\bstation\b`, `fuel\s+station`}, got)
}

func TestStopwords(t *testing.T) {
	s := DefaultStopwords()
	assert.True(t, s.Contains("payment"))
	assert.True(t, s.Contains("verified"))
	assert.False(t, s.Contains("amazon"))
	assert.Equal(t, DefaultStopwordsVersion, s.Version())

	custom, err := ReadStopwords("file", strings.NewReader("# banking\nLimited\n\n  Services \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"limited", "services"}, custom.Words())
	assert.Equal(t, 2, custom.Len())

	var nilSet *Stopwords
	assert.False(t, nilSet.Contains("anything"))
}
