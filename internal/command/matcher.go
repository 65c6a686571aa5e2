// Package command maps noisy speech transcripts onto a fixed vocabulary of
// browser commands.
//
// The matcher is deliberately not a natural-language system: it only needs to
// discriminate among a small set of known phrase templates while tolerating
// typical speech-recognition noise (homophones, single-character
// mis-transcriptions). Scoring is normalized Levenshtein similarity; a
// two-tier threshold separates confident matches from near-misses that are
// worth a "did you mean ...?" clarification.
package command

import "strings"

// Default decision thresholds. The values carry over from field tuning
// against live recognizer output; they are exposed as options (and in the
// config schema) so deployments can adjust them per noise profile.
const (
	// DefaultAcceptThreshold is the minimum score for a match to be executed.
	DefaultAcceptThreshold = 0.6

	// DefaultDictationExitThreshold is the minimum score for an utterance in
	// dictation mode to be treated as "stop typing"/"command mode".
	DefaultDictationExitThreshold = 0.8
)

// Decision classifies a Match outcome.
type Decision int

const (
	// NotRecognized means no vocabulary entry scored above zero.
	NotRecognized Decision = iota

	// Clarify means the best candidate scored too low to execute but high
	// enough to offer back to the user ("did you mean X?").
	Clarify

	// Matched means the best candidate cleared the accept threshold.
	Matched
)

// String returns the decision name for logging.
func (d Decision) String() string {
	switch d {
	case Matched:
		return "matched"
	case Clarify:
		return "clarify"
	default:
		return "not-recognized"
	}
}

// Result is the outcome of matching one transcript against the vocabulary.
type Result struct {
	// Decision classifies the outcome. Action and Param are only meaningful
	// when Decision == Matched; Keyword and Score are set whenever any
	// candidate scored above zero.
	Decision Decision

	// Action is the matched symbolic action id.
	Action Action

	// Param is the extracted raw parameter, empty for no-parameter templates
	// or when the transcript had no words beyond the keyword phrase.
	Param string

	// Keyword is the best-scoring keyword synonym, offered back to the user
	// on Clarify.
	Keyword string

	// Score is the best similarity score across the vocabulary.
	Score float64
}

// Option is a functional option for configuring a Matcher.
type Option func(*Matcher)

// WithAcceptThreshold sets the minimum score for executing a match.
// Default: 0.6.
func WithAcceptThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.acceptThreshold = threshold
	}
}

// WithVocabulary replaces the built-in command table.
func WithVocabulary(vocabulary []Template) Option {
	return func(m *Matcher) {
		m.vocabulary = vocabulary
	}
}

// Matcher scores transcripts against the command vocabulary. It is read-only
// after construction and therefore safe for concurrent use.
type Matcher struct {
	vocabulary      []Template
	acceptThreshold float64
}

// New returns a Matcher over DefaultVocabulary with the default accept
// threshold, adjusted by the supplied options.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		vocabulary:      DefaultVocabulary(),
		acceptThreshold: DefaultAcceptThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match scores transcript against every keyword synonym of every template
// and returns the decision for the single best candidate. Ties keep the
// first candidate in table order.
//
// For a no-parameter template the whole transcript is compared against the
// keyword. For a parameterized template the transcript's first k words
// (k = keyword word count) are compared against the keyword and the
// remainder becomes the raw parameter; transcripts shorter than k words are
// compared whole, with an empty parameter.
func (m *Matcher) Match(transcript string) Result {
	transcript = Normalize(transcript)
	if transcript == "" {
		return Result{Decision: NotRecognized}
	}
	words := strings.Fields(transcript)

	best := Result{Decision: NotRecognized}
	for _, tpl := range m.vocabulary {
		for _, keyword := range tpl.Keywords {
			score, param := scoreKeyword(transcript, words, keyword, tpl.HasParam)
			if score > best.Score {
				best = Result{
					Action:  tpl.Action,
					Param:   param,
					Keyword: keyword,
					Score:   score,
				}
			}
		}
	}

	switch {
	case best.Score > m.acceptThreshold:
		best.Decision = Matched
	case best.Score > 0:
		best.Decision = Clarify
		best.Action = ""
		best.Param = ""
	}
	return best
}

// scoreKeyword computes the similarity of transcript (pre-split into words)
// against one keyword synonym, extracting the parameter for parameterized
// templates.
func scoreKeyword(transcript string, words []string, keyword string, hasParam bool) (score float64, param string) {
	if !hasParam {
		return Similarity(transcript, keyword), ""
	}

	k := len(strings.Fields(keyword))
	if len(words) < k {
		return Similarity(transcript, keyword), ""
	}
	head := strings.Join(words[:k], " ")
	return Similarity(head, keyword), strings.Join(words[k:], " ")
}

// Normalize canonicalizes a transcript for matching: trim, lowercase, strip
// one trailing punctuation mark (recognizers with punctuation enabled close
// utterances with a period), collapse internal whitespace. Dots inside words
// are preserved — spoken URLs like "example.org" must survive.
func Normalize(transcript string) string {
	transcript = strings.TrimSpace(transcript)
	transcript = strings.TrimRight(transcript, ".,!?")
	transcript = strings.ToLower(transcript)
	return strings.Join(strings.Fields(transcript), " ")
}
