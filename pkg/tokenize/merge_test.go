package tokenize

import (
	"reflect"
	"testing"
)

func tok(surface, lemma, reading, short string, start, end int) Token {
	return Token{
		Surface:        surface,
		DictionaryForm: lemma,
		Reading:        reading,
		POS:            []string{short},
		POSShort:       short,
		Start:          start,
		End:            end,
	}
}

func TestMergeDisabledIsIdentity(t *testing.T) {
	tokens := []Token{
		tok("食べ", "食べる", "タベ", posVerb, 0, 2),
		tok("まし", "ます", "マシ", posAuxiliary, 2, 4),
		tok("た", "た", "タ", posAuxiliary, 4, 5),
	}
	got := MergeConjugations(tokens, false)
	if !reflect.DeepEqual(got, tokens) {
		t.Fatalf("disabled merge modified tokens: %+v", got)
	}
}

func TestMergeVerbConjugation(t *testing.T) {
	tokens := []Token{
		tok("食べ", "食べる", "タベ", posVerb, 0, 2),
		tok("まし", "ます", "マシ", posAuxiliary, 2, 4),
		tok("た", "た", "タ", posAuxiliary, 4, 5),
	}
	got := MergeConjugations(tokens, true)
	if len(got) != 1 {
		t.Fatalf("expected 1 merged token, got %d: %+v", len(got), got)
	}
	m := got[0]
	if m.Surface != "食べました" {
		t.Errorf("surface = %q, want 食べました", m.Surface)
	}
	if m.DictionaryForm != "食べる" {
		t.Errorf("dictionary form = %q, want 食べる", m.DictionaryForm)
	}
	if m.Reading != "タベマシタ" {
		t.Errorf("reading = %q, want タベマシタ", m.Reading)
	}
	if m.Start != 0 || m.End != 5 {
		t.Errorf("span = [%d,%d), want [0,5)", m.Start, m.End)
	}
	if m.POSShort != posVerb {
		t.Errorf("pos short = %q, want %q", m.POSShort, posVerb)
	}
}

func TestMergeTeFormChain(t *testing.T) {
	// 食べている: verb + te particle + auxiliary chain.
	tokens := []Token{
		tok("食べ", "食べる", "タベ", posVerb, 0, 2),
		tok("て", "て", "テ", posParticle, 2, 3),
		tok("いる", "いる", "イル", posVerb, 3, 5),
	}
	got := MergeConjugations(tokens, true)
	if len(got) != 2 {
		t.Fatalf("expected 2 tokens (て absorbed, いる anchors its own chain), got %d: %+v", len(got), got)
	}
	if got[0].Surface != "食べて" {
		t.Errorf("first surface = %q, want 食べて", got[0].Surface)
	}
	if got[0].End != 3 || got[1].Start != 3 {
		t.Errorf("spans not contiguous: %+v", got)
	}
}

func TestMergeStopsAtNonMergeable(t *testing.T) {
	tokens := []Token{
		tok("本", "本", "ホン", "名詞", 0, 1),
		tok("を", "を", "ヲ", posParticle, 1, 2),
		tok("読み", "読む", "ヨミ", posVerb, 2, 4),
		tok("ます", "ます", "マス", posAuxiliary, 4, 6),
		tok("か", "か", "カ", posParticle, 6, 7),
	}
	got := MergeConjugations(tokens, true)
	if len(got) != 4 {
		t.Fatalf("expected 4 tokens, got %d: %+v", len(got), got)
	}
	if got[2].Surface != "読みます" {
		t.Errorf("merged surface = %q, want 読みます", got[2].Surface)
	}
	// か is not a te-form particle and must survive on its own.
	if got[3].Surface != "か" {
		t.Errorf("trailing token = %q, want か", got[3].Surface)
	}
}

func TestMergeInvariants(t *testing.T) {
	tokens := []Token{
		tok("走っ", "走る", "ハシッ", posVerb, 0, 2),
		tok("て", "て", "テ", posParticle, 2, 3),
		tok("しまっ", "しまう", "シマッ", posVerb, 3, 6),
		tok("た", "た", "タ", posAuxiliary, 6, 7),
		tok("犬", "犬", "イヌ", "名詞", 7, 8),
	}
	got := MergeConjugations(tokens, true)
	if len(got) > len(tokens) {
		t.Fatalf("merge increased token count: %d > %d", len(got), len(tokens))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start < got[i-1].End {
			t.Errorf("spans overlap: %+v then %+v", got[i-1], got[i])
		}
	}
}
