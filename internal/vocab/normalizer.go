package vocab

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultEntries maps regional/colloquial grocery terms to the canonical
// catalog search term. Applied before any product lookup.
var DefaultEntries = map[string]string{
	"leite de moça": "leite condensado",
	"leite moça":    "leite condensado",
	"bergamota":     "tangerina",
	"mexerica":      "tangerina",
	"mimosa":        "tangerina",
	"macaxeira":     "mandioca",
	"aipim":         "mandioca",
	"jerimum":       "abóbora",
	"danone":        "iogurte",
	"maizena":       "amido de milho",
	"bombril":       "esponja de aço",
	"gilete":        "lâmina de barbear",
	"sucrilhos":     "cereal matinal",
	"nescau":        "achocolatado em pó",
	"toddy":         "achocolatado em pó",
	"cotonete":      "haste flexível",
	"xerox":         "papel sulfite",
	"durex":         "fita adesiva",
	"cheiro verde":  "coentro e cebolinha",
	"cheiro-verde":  "coentro e cebolinha",
	"salsichão":     "linguiça calabresa",
	"misto":         "presunto e queijo",
}

type rule struct {
	regional  string
	canonical string
	re        *regexp.Regexp
}

// Normalizer rewrites regional terms into canonical product-search terms.
// Exact phrase substitution only, case-insensitive, longest phrase first.
type Normalizer struct {
	rules []rule
}

// NewNormalizer builds a normalizer from the default table
func NewNormalizer() *Normalizer {
	return NewNormalizerWith(nil)
}

// NewNormalizerWith builds a normalizer from the default table plus extra
// entries (e.g. loaded from the vocabulary admin table). Extra entries
// override defaults for the same regional term.
func NewNormalizerWith(extra map[string]string) *Normalizer {
	merged := make(map[string]string, len(DefaultEntries)+len(extra))
	for k, v := range DefaultEntries {
		merged[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for k, v := range extra {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" || strings.TrimSpace(v) == "" {
			continue
		}
		merged[key] = v
	}

	// A canonical term must not itself be a regional key, otherwise
	// applying twice would rewrite again and break idempotence.
	for reg, canon := range merged {
		if _, clash := merged[strings.ToLower(canon)]; clash {
			log.Warn().Str("regional", reg).Str("canonical", canon).
				Msg("vocabulary entry dropped: canonical term is also a regional key")
			delete(merged, reg)
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	// Longest phrase first so "leite de moça" wins over "leite moça"
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	n := &Normalizer{}
	for _, k := range keys {
		// Word boundaries that also hold for accented letters, which the
		// ASCII \b of regexp does not cover.
		re := regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(k) + `($|[^\p{L}\p{N}])`)
		if re.MatchString(" " + merged[k] + " ") {
			log.Warn().Str("regional", k).Str("canonical", merged[k]).
				Msg("vocabulary entry dropped: canonical term contains the regional term")
			continue
		}
		n.rules = append(n.rules, rule{regional: k, canonical: merged[k], re: re})
	}
	return n
}

// Normalize rewrites every regional term found in text to its canonical
// counterpart. Applying it twice yields the same result as applying it once.
func (n *Normalizer) Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	out := text
	for _, r := range n.rules {
		// A single pass misses adjacent occurrences because the trailing
		// boundary is consumed; a second pass catches them.
		out = r.re.ReplaceAllString(out, "${1}"+r.canonical+"${2}")
		out = r.re.ReplaceAllString(out, "${1}"+r.canonical+"${2}")
	}
	return out
}

// Entries returns the active regional terms and their canonical mapping
func (n *Normalizer) Entries() map[string]string {
	out := make(map[string]string, len(n.rules))
	for _, r := range n.rules {
		out[r.regional] = r.canonical
	}
	return out
}
