// Package tokenize wraps the kagome morphological analyzer and post-processes
// its raw token stream into learner-facing tokens.
package tokenize

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome-dict/uni"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Granularity selects the morphological unit size.
type Granularity int

const (
	// GranularityShort yields raw UniDic short-unit morphemes.
	GranularityShort Granularity = iota
	// GranularityMedium yields IPA dictionary words, the default.
	GranularityMedium
	// GranularityLong additionally joins adjacent noun runs into compounds.
	GranularityLong
)

func (g Granularity) String() string {
	switch g {
	case GranularityShort:
		return "short"
	case GranularityMedium:
		return "medium"
	case GranularityLong:
		return "long"
	}
	return "unknown"
}

// ParseGranularity validates a mode string at the boundary.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short":
		return GranularityShort, nil
	case "medium", "":
		return GranularityMedium, nil
	case "long":
		return GranularityLong, nil
	}
	return 0, fmt.Errorf("invalid granularity %q (want short, medium or long)", s)
}

// Analyzer tokenizes Japanese text. Underlying kagome tokenizers are created
// lazily on first use, once per dictionary, and are safe for concurrent use
// afterwards.
type Analyzer struct {
	mu  sync.Mutex
	ipa *tokenizer.Tokenizer
	uni *tokenizer.Tokenizer
}

// NewAnalyzer returns an Analyzer. Dictionary loading is deferred until the
// first Tokenize call so construction is cheap.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) tokenizerFor(g Granularity) (*tokenizer.Tokenizer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if g == GranularityShort {
		if a.uni == nil {
			t, err := tokenizer.New(uni.Dict(), tokenizer.OmitBosEos())
			if err != nil {
				return nil, fmt.Errorf("tokenizer unavailable: %w", err)
			}
			a.uni = t
		}
		return a.uni, nil
	}
	if a.ipa == nil {
		t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
		if err != nil {
			return nil, fmt.Errorf("tokenizer unavailable: %w", err)
		}
		a.ipa = t
	}
	return a.ipa, nil
}

// Tokenize analyzes text into raw morphological tokens with rune spans.
// Whitespace-only morphemes are dropped; spans of the remaining tokens stay
// anchored to the original text.
func (a *Analyzer) Tokenize(text string, g Granularity) ([]Token, error) {
	if text == "" {
		return nil, nil
	}
	tk, err := a.tokenizerFor(g)
	if err != nil {
		return nil, err
	}

	raw := tk.Tokenize(text)
	tokens := make([]Token, 0, len(raw))
	pos := 0
	for _, kt := range raw {
		if kt.Class == tokenizer.DUMMY {
			continue
		}
		start := pos
		pos += utf8.RuneCountInString(kt.Surface)
		if strings.TrimSpace(kt.Surface) == "" {
			continue
		}

		lemma, ok := kt.BaseForm()
		if !ok || lemma == "" || lemma == "*" {
			lemma = kt.Surface
		}
		reading, ok := kt.Reading()
		if !ok || reading == "*" {
			reading = ""
		}
		posTags := kt.POS()
		short := ""
		if len(posTags) > 0 {
			short = posTags[0]
		}

		tokens = append(tokens, Token{
			Surface:        kt.Surface,
			DictionaryForm: lemma,
			Reading:        reading,
			POS:            posTags,
			POSShort:       short,
			Start:          start,
			End:            pos,
		})
	}

	if g == GranularityLong {
		tokens = joinNounCompounds(tokens)
	}
	return tokens, nil
}

// joinNounCompounds folds runs of adjacent noun tokens into single compound
// tokens for long-unit output. The compound's dictionary form is its surface,
// since the parts' lemmas do not compose.
func joinNounCompounds(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	i := 0
	for i < len(tokens) {
		cur := tokens[i]
		if cur.POSShort != "名詞" {
			out = append(out, cur)
			i++
			continue
		}
		j := i + 1
		for j < len(tokens) && tokens[j].POSShort == "名詞" && tokens[j].Start == tokens[j-1].End {
			cur.Surface += tokens[j].Surface
			cur.Reading += tokens[j].Reading
			cur.End = tokens[j].End
			j++
		}
		if j > i+1 {
			cur.DictionaryForm = cur.Surface
		}
		out = append(out, cur)
		i = j
	}
	return out
}
