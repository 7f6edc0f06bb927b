package answer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-salesbot-be/pkg/llm"
)

const (
	noInformationMessage = "I couldn't find relevant information to answer your question."
	emptyResultMessage   = "I found some information but couldn't generate a proper response."
	degradedMessage      = "I found relevant information but encountered an error while generating the response."

	contextDocLimit = 12
)

// Synthesizer turns retrieved passages into a grounded answer.
type Synthesizer struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewSynthesizer(llmProvider llm.LLMProvider, logger *log.Logger) *Synthesizer {
	return &Synthesizer{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Synthesize generates an answer from the reranked documents. It never
// returns an error: generation failures degrade to a fixed message so a
// chat turn always produces a reply.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, docs []string) string {
	if len(docs) == 0 {
		return noInformationMessage
	}

	if len(docs) > contextDocLimit {
		docs = docs[:contextDocLimit]
	}
	prompt := buildPrompt(question, strings.Join(docs, "\n"))

	answer, err := s.llmProvider.Generate(ctx, prompt,
		llm.WithTemperature(0.3),
		llm.WithTopP(0.8),
		llm.WithTopK(50),
	)
	if err != nil {
		s.logger.Printf("[ERROR] Answer synthesis failed: %v", err)
		return degradedMessage
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return emptyResultMessage
	}

	s.logger.Printf("[DEBUG] Generated answer (%d characters)", len(answer))
	return answer
}

func buildPrompt(question, context string) string {
	return fmt.Sprintf(`You are a helpful assistant that answers questions accurately using the provided context.

CONTEXT:
%s

INSTRUCTIONS:
1. Read ALL context passages carefully, even if formatting appears unclear
2. Extract relevant information from the context to answer the question
3. Combine information from multiple passages when needed to form complete answers
4. Handle text that may lack proper punctuation or spacing by identifying key information patterns
5. Provide clear, factual answers in 2-3 sentences
6. If the context contains relevant information but it's poorly formatted, interpret it logically
7. Only respond with "I don't have that information in my knowledge base" if NO relevant information exists in the context

QUESTION: %s

ANSWER (be concise and factual):`, context, question)
}
