// Package segment splits raw policy text into analyzable clauses.
//
// Paragraphs are the primary unit. Paragraphs too long to serve as a legible
// matched clause fall back to sentence boundaries. Offsets always point back
// into the original document; no characters are dropped or reordered.
package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxParagraphRunes is the length above which a paragraph is re-split on
// sentence boundaries so the clause shown in the UI stays readable.
const MaxParagraphRunes = 500

// Segment is a contiguous span of the source document. Start and End are byte
// offsets into the original text; Index is the scan-order position.
type Segment struct {
	Text  string
	Start int
	End   int
	Index int
}

var paragraphSepRe = regexp.MustCompile(`\n[ \t]*\n+`)

// Split segments text into clauses. The returned slice is finite, restartable
// and stable: identical input always produces identical segments.
//
// Keywords broken across a segment boundary are not matched downstream; that
// is a known accuracy trade-off of clause-level matching.
func Split(text string) []Segment {
	var segs []Segment

	pos := 0
	for _, para := range splitSpans(text, paragraphSepRe) {
		if utf8.RuneCountInString(para.text) > MaxParagraphRunes {
			for _, sent := range splitSentences(para.text, para.start) {
				if seg, ok := trimSpan(text, sent.start, sent.end, pos); ok {
					segs = append(segs, seg)
					pos++
				}
			}
			continue
		}
		if seg, ok := trimSpan(text, para.start, para.end, pos); ok {
			segs = append(segs, seg)
			pos++
		}
	}
	return segs
}

type span struct {
	text  string
	start int
	end   int
}

// splitSpans cuts text at every separator match, keeping byte offsets.
func splitSpans(text string, sep *regexp.Regexp) []span {
	var spans []span
	start := 0
	for _, loc := range sep.FindAllStringIndex(text, -1) {
		spans = append(spans, span{text: text[start:loc[0]], start: start, end: loc[0]})
		start = loc[1]
	}
	spans = append(spans, span{text: text[start:], start: start, end: len(text)})
	return spans
}

// splitSentences cuts a paragraph after '.', '!' or '?' followed by
// whitespace. Base is the paragraph's offset in the original document.
func splitSentences(para string, base int) []span {
	var spans []span
	start := 0
	for i := 0; i < len(para); i++ {
		c := para[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		// Consume a run of terminators ("..." or "?!").
		j := i + 1
		for j < len(para) && (para[j] == '.' || para[j] == '!' || para[j] == '?') {
			j++
		}
		if j < len(para) && !isSpace(para[j]) {
			i = j - 1
			continue
		}
		spans = append(spans, span{text: para[start:j], start: base + start, end: base + j})
		start = j
		i = j - 1
	}
	if start < len(para) {
		spans = append(spans, span{text: para[start:], start: base + start, end: base + len(para)})
	}
	return spans
}

func isSpace(b byte) bool {
	return unicode.IsSpace(rune(b))
}

// trimSpan strips surrounding whitespace while keeping offsets anchored to
// the original document. Whitespace-only spans yield no segment.
func trimSpan(text string, start, end, index int) (Segment, bool) {
	raw := text[start:end]
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Segment{}, false
	}
	lead := strings.Index(raw, trimmed)
	return Segment{
		Text:  trimmed,
		Start: start + lead,
		End:   start + lead + len(trimmed),
		Index: index,
	}, true
}
