package rag

import (
	"strings"
	"unicode/utf8"
)

// SplitPassages breaks the instruction document into passages of roughly size
// bytes. Paragraphs are kept whole where possible; each new passage starts with
// up to overlap bytes of the previous one, cut at a word boundary.
func SplitPassages(content string, size, overlap int) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if size <= 0 {
		size = 800
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var passages []string
	var current strings.Builder
	fresh := false // current holds more than the carried-over overlap

	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		for _, piece := range splitLong(para, size) {
			if current.Len() > 0 && current.Len()+len(piece)+2 > size {
				if fresh {
					text := current.String()
					passages = append(passages, text)
					current.Reset()
					current.WriteString(overlapTail(text, overlap))
					fresh = false
				}
				if current.Len()+len(piece)+2 > size {
					current.Reset()
				}
			}
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(piece)
			fresh = true
		}
	}

	if fresh {
		passages = append(passages, current.String())
	}

	return passages
}

// splitLong cuts a paragraph longer than size at word boundaries
func splitLong(para string, size int) []string {
	if len(para) <= size {
		return []string{para}
	}

	var pieces []string
	var b strings.Builder
	for _, word := range strings.Fields(para) {
		if b.Len() > 0 && b.Len()+1+len(word) > size {
			pieces = append(pieces, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}
	if b.Len() > 0 {
		pieces = append(pieces, b.String())
	}
	return pieces
}

// overlapTail returns the last n bytes of text, moved forward to the next word
// start so no word is split
func overlapTail(text string, n int) string {
	if n <= 0 || len(text) <= n {
		return ""
	}

	start := len(text) - n
	for start < len(text) && !utf8.RuneStart(text[start]) {
		start++
	}
	if i := strings.IndexAny(text[start:], " \n"); i >= 0 {
		start += i + 1
	} else {
		return ""
	}

	return strings.TrimSpace(text[start:])
}
