package tokenize

import "encoding/json"

// Token is a single learner-facing unit of analyzed text. Start and End are a
// half-open rune span into the analyzed text.
type Token struct {
	Surface        string
	DictionaryForm string
	Reading        string
	POS            []string
	POSShort       string
	Start          int
	End            int
	Known          bool
}

// storedToken is the persisted representation of a token, written alongside
// content chunks. Key names are part of the storage contract.
type storedToken struct {
	Surface        string   `json:"surface"`
	DictionaryForm string   `json:"dictionary_form"`
	Reading        string   `json:"reading"`
	POS            []string `json:"pos"`
	POSShort       string   `json:"pos_short"`
	Start          int      `json:"start"`
	End            int      `json:"end"`
}

// EncodeTokens serializes tokens to the order-preserving JSON form stored
// alongside a content chunk. The Known flag is session state and is not
// persisted.
func EncodeTokens(tokens []Token) (string, error) {
	stored := make([]storedToken, len(tokens))
	for i, t := range tokens {
		stored[i] = storedToken{
			Surface:        t.Surface,
			DictionaryForm: t.DictionaryForm,
			Reading:        t.Reading,
			POS:            t.POS,
			POSShort:       t.POSShort,
			Start:          t.Start,
			End:            t.End,
		}
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeTokens parses a token stream previously produced by EncodeTokens.
func DecodeTokens(data string) ([]Token, error) {
	var stored []storedToken
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, err
	}
	tokens := make([]Token, len(stored))
	for i, s := range stored {
		tokens[i] = Token{
			Surface:        s.Surface,
			DictionaryForm: s.DictionaryForm,
			Reading:        s.Reading,
			POS:            s.POS,
			POSShort:       s.POSShort,
			Start:          s.Start,
			End:            s.End,
		}
	}
	return tokens, nil
}

// MarkKnown sets the Known flag on each token whose dictionary form appears in
// the learner's vocabulary set. Pure annotation; tokens are modified in place.
func MarkKnown(tokens []Token, known map[string]bool) {
	for i := range tokens {
		tokens[i].Known = known[tokens[i].DictionaryForm]
	}
}

// IsContentWord reports whether the token carries lexical content worth
// tracking as vocabulary (noun, verb, adjective, adverb).
func IsContentWord(t Token) bool {
	switch t.POSShort {
	case "名詞", "動詞", "形容詞", "副詞":
		return true
	}
	return false
}
