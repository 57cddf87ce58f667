// Command dokusho is the reading tutor's command line front end: import
// content, tokenize and score text, track vocabulary and proficiency, and get
// the next thing to read.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mkobayashi/dokusho/pkg/config"
	"github.com/mkobayashi/dokusho/pkg/content"
	"github.com/mkobayashi/dokusho/pkg/db"
	"github.com/mkobayashi/dokusho/pkg/dictionary"
	"github.com/mkobayashi/dokusho/pkg/difficulty"
	"github.com/mkobayashi/dokusho/pkg/proficiency"
	"github.com/mkobayashi/dokusho/pkg/tokenize"
	"github.com/mkobayashi/dokusho/pkg/vocab"
)

const usage = `usage: dokusho [-config path] <command> [flags]

commands:
  import      import a text file or URL as reading content
  tokenize    analyze text from stdin or a file into tokens
  difficulty  score text difficulty from stdin or a file
  session     record a finished reading session
  lookup      record a word lookup and show its definitions
  rate        rate how difficult a content item felt
  stats       show proficiency and vocabulary statistics
  recommend   pick the next content item to read
`

func main() {
	configPath := flag.String("config", "dokusho.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dokusho: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dokusho: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := &app{cfg: cfg, logger: logger}
	if err := app.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "dokusho: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

type app struct {
	cfg    config.Config
	logger *zap.Logger
	conn   *sql.DB
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	conn, err := db.Open(a.cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", a.cfg.DatabasePath, err)
	}
	defer conn.Close()
	a.conn = conn

	switch command {
	case "import":
		return a.cmdImport(ctx, args)
	case "tokenize":
		return a.cmdTokenize(args)
	case "difficulty":
		return a.cmdDifficulty(ctx, args)
	case "session":
		return a.cmdSession(args)
	case "lookup":
		return a.cmdLookup(ctx, args)
	case "rate":
		return a.cmdRate(args)
	case "stats":
		return a.cmdStats(args)
	case "recommend":
		return a.cmdRecommend(args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) importer(store *content.Store, granularity tokenize.Granularity) *content.Importer {
	im := content.NewImporter(store, a.logger)
	im.ChunkSize = a.cfg.ChunkSize
	im.MergeConjugations = a.cfg.MergeConjugations
	im.Granularity = granularity
	return im
}

func (a *app) cmdImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "text file to import")
	urlFlag := fs.String("url", "", "article URL to import")
	title := fs.String("title", "", "content title (defaults to file name or page title)")
	granularity := fs.String("granularity", a.cfg.Granularity, "token granularity: short, medium or long")
	fs.Parse(args)

	g, err := tokenize.ParseGranularity(*granularity)
	if err != nil {
		return err
	}
	store := content.NewStore(a.conn, a.logger)
	im := a.importer(store, g)

	var c content.Content
	switch {
	case *urlFlag != "":
		client := &http.Client{Timeout: 3 * a.cfg.HTTPTimeout()}
		c, err = im.ImportURL(ctx, client, *urlFlag)
	case *file != "":
		data, readErr := os.ReadFile(*file)
		if readErr != nil {
			return readErr
		}
		name := *title
		if name == "" {
			name = strings.TrimSuffix(*file, ".txt")
		}
		c, err = im.ImportText(ctx, name, content.SourceText, "", string(data))
	default:
		return fmt.Errorf("import needs -file or -url")
	}
	if err != nil {
		return err
	}

	fmt.Printf("imported %q (id %d)\n", c.Title, c.ID)
	fmt.Printf("  tokens: %d, unique vocabulary: %d\n", c.TotalTokens, c.UniqueVocabulary)
	if c.DifficultyEstimate != nil {
		fmt.Printf("  difficulty estimate: %.3f\n", *c.DifficultyEstimate)
	}
	return nil
}

func (a *app) cmdTokenize(args []string) error {
	fs := flag.NewFlagSet("tokenize", flag.ExitOnError)
	file := fs.String("file", "", "read text from file instead of stdin")
	granularity := fs.String("granularity", a.cfg.Granularity, "token granularity: short, medium or long")
	merge := fs.Bool("merge", a.cfg.MergeConjugations, "merge conjugated phrases into single tokens")
	fs.Parse(args)

	g, err := tokenize.ParseGranularity(*granularity)
	if err != nil {
		return err
	}
	text, err := readInput(*file)
	if err != nil {
		return err
	}

	tokens, err := tokenize.NewAnalyzer().Tokenize(text, g)
	if err != nil {
		return err
	}
	tokens = tokenize.MergeConjugations(tokens, *merge)

	known, err := vocab.NewTracker(a.conn, a.logger).KnownForms(0.8)
	if err != nil {
		return err
	}
	tokenize.MarkKnown(tokens, known)

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for _, t := range tokens {
		mark := " "
		if t.Known {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %-12s %-12s %-10s %s\n", mark, t.Surface, t.DictionaryForm, t.Reading, t.POSShort)
	}
	return nil
}

func (a *app) cmdDifficulty(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("difficulty", flag.ExitOnError)
	file := fs.String("file", "", "read text from file instead of stdin")
	fs.Parse(args)

	text, err := readInput(*file)
	if err != nil {
		return err
	}

	var scorer difficulty.ReadabilityScorer
	if a.cfg.ReadabilityURL != "" {
		scorer = difficulty.NewHTTPReadabilityScorer(a.cfg.ReadabilityURL)
	}
	var freq difficulty.FrequencySource
	if a.cfg.FrequencyTablePath != "" {
		table, err := difficulty.LoadFrequencyTable(a.cfg.FrequencyTablePath)
		if err != nil {
			return err
		}
		freq = table
	}
	var grades difficulty.GradeSource
	if a.cfg.KanjiAPIBaseURL != "" {
		grades = difficulty.NewKanjiAPIGradeSource(a.cfg.KanjiAPIBaseURL)
	}

	m := difficulty.NewAnalyzer(scorer, freq, grades, a.logger).Analyze(ctx, text)
	fmt.Printf("overall:  %.3f\n", m.Overall)
	fmt.Printf("kanji:    %.3f  (%d distinct of %d)\n", m.Kanji, m.UniqueKanji, m.KanjiCount)
	fmt.Printf("lexical:  %.3f\n", m.Lexical)
	fmt.Printf("grammar:  %.3f\n", m.Grammar)
	fmt.Printf("sentence: %.3f  (avg length %.1f)\n", m.Sentence, m.AvgSentenceLength)
	fmt.Printf("combined: %.3f  → %s\n", m.Combined(), m.Level)
	return nil
}

func (a *app) cmdSession(args []string) error {
	fs := flag.NewFlagSet("session", flag.ExitOnError)
	chars := fs.Int("chars", 0, "characters read")
	tokens := fs.Int("tokens", 0, "tokens read")
	lookups := fs.Int("lookups", 0, "words looked up")
	seconds := fs.Int("seconds", 0, "reading time in seconds")
	fs.Parse(args)

	p, err := proficiency.NewEstimator(a.conn, a.logger).RecordSession(*chars, *tokens, *lookups, *seconds)
	if err != nil {
		return err
	}
	fmt.Printf("session recorded: level %s, lookup rate %.2f/100 tokens, speed %.0f chars/min\n",
		p.Level, p.AvgLookupRate, p.AvgReadingSpeed)
	return nil
}

func (a *app) cmdLookup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	word := fs.String("word", "", "word to look up (dictionary form)")
	reading := fs.String("reading", "", "reading to disambiguate homographs")
	fs.Parse(args)
	if *word == "" {
		return fmt.Errorf("lookup needs -word")
	}

	update, err := vocab.NewTracker(a.conn, a.logger).RecordLookup(*word)
	if err != nil {
		return err
	}
	fmt.Printf("%s: score %.3f → %.3f (seen %d, looked up %d)\n",
		update.DictionaryForm, update.OldScore, update.NewScore, update.TimesSeen, update.TimesLookedUp)

	if err := dictionary.EnsureDictionary(ctx, a.cfg.DictionaryPath); err != nil {
		a.logger.Warn("dictionary unavailable", zap.Error(err))
		return nil
	}
	entries, err := dictionary.LoadJMdictSimplified(a.cfg.DictionaryPath)
	if err != nil {
		return err
	}
	var pitch *dictionary.PitchTable
	if a.cfg.PitchTablePath != "" {
		if pitch, err = dictionary.LoadPitchTable(a.cfg.PitchTablePath); err != nil {
			return err
		}
	}
	dict := dictionary.New(entries, pitch)

	matches, err := dict.Lookup(*word, *word, *reading)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Println("no dictionary entries found")
		return nil
	}
	for _, e := range matches {
		r := dictionary.PrimaryReading(e)
		line := fmt.Sprintf("  %s", r)
		if accent, ok := dict.PitchAccent(*word, r); ok {
			line += fmt.Sprintf(" [%d]", accent)
		}
		fmt.Println(line)
		for _, s := range e.Sense {
			var glosses []string
			for _, g := range s.Gloss {
				glosses = append(glosses, g.Text)
			}
			fmt.Printf("    %s\n", strings.Join(glosses, "; "))
		}
	}
	return nil
}

func (a *app) cmdRate(args []string) error {
	fs := flag.NewFlagSet("rate", flag.ExitOnError)
	contentID := fs.Int64("content", 0, "content id")
	rating := fs.String("rating", "", "easy, just_right or hard")
	feedback := fs.String("feedback", "", "free-form feedback")
	chunk := fs.Int("chunk", -1, "chunk index the rating applies to")
	fs.Parse(args)
	if *contentID == 0 {
		return fmt.Errorf("rate needs -content")
	}

	r, err := proficiency.ParseRating(*rating)
	if err != nil {
		return err
	}
	if err := proficiency.NewEstimator(a.conn, a.logger).RecordRating(*contentID, r, *feedback, *chunk); err != nil {
		return err
	}
	fmt.Printf("rated content %d: %s\n", *contentID, r)
	return nil
}

func (a *app) cmdStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	weakest := fs.Int("weakest", 10, "how many weakest words to list")
	fs.Parse(args)

	est := proficiency.NewEstimator(a.conn, a.logger)
	p, err := est.Get()
	if err != nil {
		return err
	}
	fmt.Printf("level: %s\n", p.Level)
	fmt.Printf("read: %d tokens, %d chars, %d lookups, %ds\n",
		p.TotalTokensRead, p.TotalCharactersRead, p.TotalLookups, p.TotalReadingTimeSeconds)
	fmt.Printf("lookup rate: %.2f/100 tokens, speed: %.0f chars/min\n", p.AvgLookupRate, p.AvgReadingSpeed)

	rec, err := est.Recommendations()
	if err != nil {
		return err
	}
	fmt.Printf("furigana: %s (threshold %.2f), meanings: %v, highlight unknown: %v\n",
		rec.ShowFurigana, rec.FuriganaThreshold, rec.ShowMeanings, rec.HighlightUnknown)

	tracker := vocab.NewTracker(a.conn, a.logger)
	summary, err := tracker.Summarize()
	if err != nil {
		return err
	}
	fmt.Printf("vocabulary: %d tracked, %d known, %d learning (%.1f%% mastered)\n",
		summary.TotalTracked, summary.KnownWords, summary.LearningWords, summary.MasteryPercent)

	weak, err := tracker.Weakest(*weakest)
	if err != nil {
		return err
	}
	if len(weak) > 0 {
		fmt.Println("weakest words:")
		for _, w := range weak {
			fmt.Printf("  %-12s %.3f (seen %d, looked up %d)\n",
				w.Vocabulary.DictionaryForm, w.Score.Score, w.Score.TimesSeen, w.Score.TimesLookedUp)
		}
	}
	return nil
}

func (a *app) cmdRecommend(args []string) error {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	challenge := fs.Float64("challenge", a.cfg.ChallengeLevel, "difficulty step above current proficiency")
	exclude := fs.Int64("exclude", 0, "content id to skip")
	fs.Parse(args)

	targets, err := proficiency.NewEstimator(a.conn, a.logger).GenerationTargets(*challenge)
	if err != nil {
		return err
	}
	target := targets.Average()

	c, chunk, err := content.NewStore(a.conn, a.logger).Recommend(target, *exclude)
	if err != nil {
		return err
	}
	fmt.Printf("target difficulty %.3f → %q (id %d", target, c.Title, c.ID)
	if c.DifficultyEstimate != nil {
		fmt.Printf(", difficulty %.3f", *c.DifficultyEstimate)
	}
	fmt.Println(")")
	if chunk.RawText != "" {
		preview := []rune(chunk.RawText)
		if len(preview) > 120 {
			preview = preview[:120]
		}
		fmt.Printf("---\n%s…\n", string(preview))
	}
	return nil
}

func readInput(file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		return string(data), err
	}
	data, err := io.ReadAll(os.Stdin)
	return string(data), err
}
