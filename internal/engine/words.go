package engine

import "regexp"

// wordPattern matches a double-quoted word, a single-quoted word or a run
// of non-space characters. The closing quote is optional so that a word
// being typed still parses.
var wordPattern = regexp.MustCompile(`("((?:\\"|[^"])*)"?|'((?:\\'|[^'])*)'?|[^\s]+)`)

// Word is one word of a command line. Start and End are byte offsets of
// Text in the line; for a quoted word they exclude the quotes.
type Word struct {
	Text   string
	Start  int
	End    int
	Quoted bool
}

// ParseWords splits a command line into words.
func ParseWords(line string) []Word {
	matches := wordPattern.FindAllStringSubmatchIndex(line, -1)
	words := make([]Word, 0, len(matches))
	for _, m := range matches {
		// m[2k], m[2k+1] delimit group k; single quotes win over double.
		switch {
		case m[6] >= 0:
			words = append(words, Word{Text: line[m[6]:m[7]], Start: m[6], End: m[7], Quoted: true})
		case m[4] >= 0:
			words = append(words, Word{Text: line[m[4]:m[5]], Start: m[4], End: m[5], Quoted: true})
		default:
			words = append(words, Word{Text: line[m[0]:m[1]], Start: m[0], End: m[1]})
		}
	}
	return words
}

// Texts returns the text of each word.
func Texts(words []Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text
	}
	return out
}

// WordAt returns the index of the word containing or ending at byte offset
// pos, and whether pos is strictly inside it. It returns -1 when pos is
// between words.
func WordAt(words []Word, pos int) (idx int, inside bool) {
	for i, w := range words {
		if pos >= w.Start && pos <= w.End {
			return i, pos < w.End
		}
	}
	return -1, false
}

// Pos returns the offset where the word begins in the line, including an
// opening quote.
func (w Word) Pos() int {
	if w.Quoted {
		return w.Start - 1
	}
	return w.Start
}
