package document

import (
	"strings"
	"unicode/utf8"
)

// defaultSeparators order the cut preference: paragraph breaks first,
// then lines, sentence punctuation, spaces, and finally single runes.
var defaultSeparators = []string{"\n\n", "\n", ".", "!", "?", ";", " ", ""}

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

// Splitter cuts document text into chunks of at most chunkSize runes
// along natural boundaries, carrying chunkOverlap runes of trailing
// context into the next chunk. Lengths are counted in runes so Korean
// text is not penalized for its UTF-8 width.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewSplitter creates a splitter. Non-positive sizes select the defaults;
// an overlap at or above the chunk size is clamped below it.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = defaultChunkOverlap
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split returns the chunk texts for one document. Whitespace-only input
// yields no chunks.
func (sp *Splitter) Split(text string) []string {
	return sp.split(text, sp.separators)
}

func (sp *Splitter) split(text string, separators []string) []string {
	// Pick the first separator that occurs in the text; the empty
	// separator always matches and means "split into runes".
	separator := separators[len(separators)-1]
	var next []string
	for i, s := range separators {
		if s == "" {
			separator = ""
			break
		}
		if strings.Contains(text, s) {
			separator = s
			next = separators[i+1:]
			break
		}
	}

	var final []string
	var good []string
	for _, s := range splitKeepSeparator(text, separator) {
		if utf8.RuneCountInString(s) < sp.chunkSize {
			good = append(good, s)
			continue
		}
		if len(good) > 0 {
			final = append(final, sp.merge(good)...)
			good = nil
		}
		if len(next) == 0 {
			final = append(final, s)
		} else {
			final = append(final, sp.split(s, next)...)
		}
	}
	if len(good) > 0 {
		final = append(final, sp.merge(good)...)
	}
	return final
}

// splitKeepSeparator splits text on sep, attaching each separator to the
// start of the piece that follows it so no characters are lost. An empty
// sep splits into individual runes.
func splitKeepSeparator(text, sep string) []string {
	var pieces []string
	if sep == "" {
		pieces = make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		raw := strings.Split(text, sep)
		pieces = make([]string, 0, len(raw))
		pieces = append(pieces, raw[0])
		for _, p := range raw[1:] {
			pieces = append(pieces, sep+p)
		}
	}

	out := pieces[:0]
	for _, p := range pieces {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// merge packs pieces into chunks. When a chunk fills up it is emitted,
// and leading pieces are dropped until at most chunkOverlap runes remain
// to seed the next chunk.
func (sp *Splitter) merge(splits []string) []string {
	var docs []string
	var current []string
	total := 0

	for _, d := range splits {
		l := utf8.RuneCountInString(d)
		if total+l > sp.chunkSize && len(current) > 0 {
			if doc := joinTrim(current); doc != "" {
				docs = append(docs, doc)
			}
			for total > sp.chunkOverlap || (total+l > sp.chunkSize && total > 0) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, d)
		total += l
	}

	if doc := joinTrim(current); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func joinTrim(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}
