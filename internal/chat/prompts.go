package chat

import (
	"strings"

	"github.com/skatehive/docschat/internal/knowledge"
	"github.com/skatehive/docschat/internal/memory"
)

// systemPrompt frames the assistant and carries the retrieved documentation
// and the user's recent conversation. %s placeholders: (1) documentation,
// (2) history.
const systemPrompt = `You are a helpful assistant for the Skatehive documentation.

TASK: provide concise, clear, and accurate information based on the documentation provided
and the history of conversations.

<documentation>
%s
</documentation>

<history>
%s
</history>
`

// graderPrompt asks the model for a binary relevance judgement on a single
// retrieved document. %s placeholders: (1) question, (2) document.
const graderPrompt = `You are a grader. You are given a document and you need to evaluate the relevance of the document to the user's message.

Here is the user question:
<question>
%s
</question>

Here is the retrieved document:
<document>
%s
</document>

If the document contains keyword or semantic meaning related to the user question, then the document is relevant.
Return a json response with key "relevant" and value true, if relevant, otherwise return false.
So the response json key should be a boolean value.`

// formatDocumentation renders retrieved matches for prompt substitution.
// Each document's content is re-chunked and joined so a single oversized
// section cannot dominate the context window with raw whitespace.
func formatDocumentation(matches []knowledge.Match) string {
	if len(matches) == 0 {
		return "No relevant documentation found."
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, "Source: "+m.URL+"\n"+knowledge.NormalizeChunks(m.Content))
	}
	return strings.Join(parts, "\n\n")
}

// formatHistory renders turns oldest-first as User:/Assistant: lines.
// The store returns them newest-first.
func formatHistory(turns []memory.Turn) string {
	if len(turns) == 0 {
		return "No previous conversation."
	}
	var b strings.Builder
	for i := len(turns) - 1; i >= 0; i-- {
		b.WriteString("User: ")
		b.WriteString(turns[i].Message)
		b.WriteString("\nAssistant: ")
		b.WriteString(turns[i].Response)
		if i > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
