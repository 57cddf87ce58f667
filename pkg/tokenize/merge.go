package tokenize

// Short part-of-speech tags that open a conjugation chain.
const (
	posVerb      = "動詞"
	posAdjective = "形容詞"
	posAuxiliary = "助動詞"
	posParticle  = "助詞"
)

// teForms are the connective particles absorbed into a conjugation chain.
var teForms = map[string]bool{"て": true, "で": true}

// MergeConjugations folds verb/adjective stems together with their
// conjugation suffixes so the learner sees あります instead of あり + ます.
// A verb, adjective or auxiliary token anchors a chain; following auxiliary
// verbs are absorbed, as are て/で connective particles. When enabled is
// false the input is returned unchanged.
func MergeConjugations(tokens []Token, enabled bool) []Token {
	if !enabled || len(tokens) == 0 {
		return tokens
	}

	out := make([]Token, 0, len(tokens))
	i := 0
	for i < len(tokens) {
		anchor := tokens[i]
		if anchor.POSShort != posVerb && anchor.POSShort != posAdjective && anchor.POSShort != posAuxiliary {
			out = append(out, anchor)
			i++
			continue
		}

		merged := anchor
		j := i + 1
		for j < len(tokens) {
			next := tokens[j]
			absorb := next.POSShort == posAuxiliary ||
				(next.POSShort == posParticle && teForms[next.Surface])
			if !absorb {
				break
			}
			merged.Surface += next.Surface
			merged.Reading += next.Reading
			merged.End = next.End
			j++
		}
		out = append(out, merged)
		i = j
	}
	return out
}
