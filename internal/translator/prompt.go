package translator

import (
	"strings"

	"github.com/54b3r/ragcypher-go/internal/budget"
)

// documentsPlaceholder is replaced by the retrieved context blob.
const documentsPlaceholder = "{documents}"

// systemPromptTemplate restricts the model to the retrieved documents.
const systemPromptTemplate = `You are an assistant that gives out Cypher code snippets.
Use the information from the DOCUMENTS section only to provide accurate answers.
Return just the code snippet without formatting. No descriptive text.
Don't use any learned knowledge that is not within the DOCUMENTS section.

DOCUMENTS:
` + documentsPlaceholder

// Prompt is the two-turn conversation sent to the chat service.
type Prompt struct {
	// System carries the instructions and the retrieved documents.
	System Message
	// User carries the normalised query.
	User Message
}

// Messages returns the turns in submission order.
func (p Prompt) Messages() []Message {
	return []Message{p.System, p.User}
}

// turns converts the prompt for token estimation.
func (p Prompt) turns() []budget.Turn {
	msgs := p.Messages()
	out := make([]budget.Turn, len(msgs))
	for i, m := range msgs {
		out[i] = budget.Turn{Role: string(m.Role), Content: m.Content}
	}
	return out
}

// BuildPrompt inserts contextBlob verbatim into the system template and pairs
// it with query as the user turn. Large blobs are passed through as-is.
func BuildPrompt(contextBlob, query string) Prompt {
	return Prompt{
		System: Message{
			Role:    RoleSystem,
			Content: strings.Replace(systemPromptTemplate, documentsPlaceholder, contextBlob, 1),
		},
		User: Message{Role: RoleUser, Content: query},
	}
}

// joinDocuments concatenates the retrieved contents one per line, keeping
// the order in which they were returned.
func joinDocuments(contents []string) string {
	var sb strings.Builder
	for _, c := range contents {
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	return sb.String()
}
