package retrieval

import (
	"fmt"
	"strings"

	"github.com/poiesic/commandcore/core"
)

// systemPrompt instructs the model to answer only from the supplied context
// and to cite sources.
const systemPrompt = `You are CommandCore, an AI assistant that specializes in providing accurate information about AI, cloud computing, and virtualization/OS technology.
Your responses should be based on the provided context information, and you should cite your sources.

Instructions:
1. Only answer questions based on the provided context.
2. If the context doesn't contain enough information to answer the question, say "I don't have enough information to answer this question."
3. Be concise and clear in your responses.
4. Do not make up information that is not in the context.
5. Format any code or technical terms appropriately using markdown.`

// buildUserPrompt assembles the question, retrieved context, and numbered
// source list into the user message.
func buildUserPrompt(query string, results []*core.SearchResult) string {
	contexts := make([]string, len(results))
	citations := make([]string, len(results))
	for i, res := range results {
		contexts[i] = res.Record.ChunkText
		citations[i] = formatCitation(i+1, res.Record.SourceInfo)
	}

	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n\nContext:\n")
	b.WriteString(strings.Join(contexts, "\n\n"))
	b.WriteString("\n\nAvailable Sources:\n")
	b.WriteString(strings.Join(citations, "\n"))
	b.WriteString("\n\nPlease provide a comprehensive answer to the question based on the context provided.\n")
	b.WriteString("Cite sources using the format [1], [2], etc. corresponding to the source numbers above.")
	return b.String()
}

// formatCitation renders one numbered source line.
// Format: [n] title by author, date
func formatCitation(n int, info core.SourceInfo) string {
	title := orUnknown(info.Title)
	author := orUnknown(info.Author)
	date := orUnknown(info.PublicationDate)
	return fmt.Sprintf("[%d] %s by %s, %s", n, title, author, date)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
