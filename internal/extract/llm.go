package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/probelab/inquest/internal/model"
	openai "github.com/sashabaranov/go-openai"
)

const extractSystemPrompt = `You extract named entities from legal discovery text.
Return ONLY a JSON array, no prose. Each element:
{"name": "...", "type": "person|organization|location|account|other", "snippet": "..."}
Rules:
- Only entities actually present in the text.
- Skip document metadata (exhibit numbers, bates stamps, dates, page numbers).
- snippet is the shortest quote containing the mention.`

// completionAPI is the slice of the OpenAI client we use; an interface
// so tests can stub the wire call.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLMExtractor asks a chat-completion model for entity candidates.
type LLMExtractor struct {
	client completionAPI
	cfg    model.LLMConfig
}

// NewLLMExtractor creates the LLM extraction path, or nil when no
// provider is configured (the chain then skips straight to local).
func NewLLMExtractor(cfg model.LLMConfig) *LLMExtractor {
	if cfg.Provider == "" || cfg.APIKey == "" {
		return nil
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &LLMExtractor{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}
}

// llmEntity is the shape we ask the model to emit.
type llmEntity struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Snippet string `json:"snippet"`
}

// Extract sends the chunk to the model and parses its answer. Any
// malformed response is an error; the caller's chain falls back to the
// local extractor.
func (e *LLMExtractor) Extract(ctx context.Context, chunk model.DocumentChunk, sctx model.ScoringContext) ([]model.EntityCandidate, Usage, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	userPrompt := buildUserPrompt(chunk, sctx)
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     e.cfg.Model,
		MaxTokens: e.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, Usage{}, fmt.Errorf("llm extraction: %w", err)
	}

	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	if len(resp.Choices) == 0 {
		return nil, usage, fmt.Errorf("llm extraction: empty response")
	}

	entities, err := parseEntities(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, usage, err
	}

	candidates := make([]model.EntityCandidate, 0, len(entities))
	for _, ent := range entities {
		name := strings.TrimSpace(ent.Name)
		if name == "" {
			continue
		}
		candidates = append(candidates, model.EntityCandidate{
			Name:           name,
			NormalizedName: model.NormalizeName(name),
			SuggestedType:  ent.Type,
			Mentions: []model.Mention{{
				DocumentID:   chunk.DocumentID,
				DocumentName: chunk.DocumentName,
				Snippet:      ent.Snippet,
			}},
		})
	}
	return candidates, usage, nil
}

func buildUserPrompt(chunk model.DocumentChunk, sctx model.ScoringContext) string {
	var sb strings.Builder
	if sctx.ActorName != "" {
		fmt.Fprintf(&sb, "Case actor of interest: %s\n", sctx.ActorName)
	}
	if len(sctx.CaseActors) > 0 {
		fmt.Fprintf(&sb, "Known case actors: %s\n", strings.Join(sctx.CaseActors, ", "))
	}
	sb.WriteString("Text:\n")
	sb.WriteString(chunk.Content)
	return sb.String()
}

// parseEntities tolerates models that wrap the JSON array in prose or
// code fences: it extracts the outermost array before unmarshalling.
func parseEntities(content string) ([]llmEntity, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("llm extraction: no JSON array in response")
	}
	var entities []llmEntity
	if err := json.Unmarshal([]byte(content[start:end+1]), &entities); err != nil {
		return nil, fmt.Errorf("llm extraction: parse response: %w", err)
	}
	return entities, nil
}
