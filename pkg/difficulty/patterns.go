package difficulty

import "regexp"

// grammarPattern pairs a grammar-pattern regexp with its intrinsic weight.
// Weights are heuristic constants, ordered roughly from textbook forms to
// literary ones; tune here rather than in the scoring code.
type grammarPattern struct {
	re     *regexp.Regexp
	weight float64
}

var grammarPatterns = []grammarPattern{
	{regexp.MustCompile(`ている|ていた|ていない`), 0.2},     // progressive / resultative
	{regexp.MustCompile(`てしまう|ちゃう|てしまった`), 0.3},    // completion
	{regexp.MustCompile(`ようにする|ことにする`), 0.4},       // decision patterns
	{regexp.MustCompile(`かもしれない|に違いない`), 0.4},      // probability
	{regexp.MustCompile(`ばかり|ところ|ばかりだ`), 0.5},       // time expressions
	{regexp.MustCompile(`させる|させられる`), 0.6},          // causative / passive
	{regexp.MustCompile(`べき|はず|わけ`), 0.5},           // expectation
	{regexp.MustCompile(`によって|において|に対して`), 0.6},     // formal expressions
	{regexp.MustCompile(`にもかかわらず|ものの`), 0.7},        // concession
	{regexp.MustCompile(`つつある|ざるを得ない`), 0.8},        // literary forms
}
