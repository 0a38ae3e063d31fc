package rag

import (
	"fmt"
	"strings"
)

// queryTemplate is the fixed question wrapped around the pasted dispute text
const queryTemplate = "Given this dispute text, what should I do? %s"

// BuildQuery wraps the dispute text in the fixed question
func BuildQuery(input string) string {
	return fmt.Sprintf(queryTemplate, strings.TrimSpace(input))
}

// buildContext numbers the retrieved passages for the prompt
func buildContext(passages []string) string {
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, p)
	}
	return b.String()
}

// buildPrompt grounds the query in the retrieved instruction passages
func buildPrompt(query, context string) string {
	if context == "" {
		context = "(no matching instructions found)"
	}

	return fmt.Sprintf(`You are assisting a utility billing dispute analyst. Use only the dispute processing instructions below to decide the next actions.

INSTRUCTIONS:
%s

QUESTION:
%s

Answer with the concrete next actions as a short list. If the instructions do not cover the case, say so.`, context, query)
}
