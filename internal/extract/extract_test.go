package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/probelab/inquest/internal/model"
	openai "github.com/sashabaranov/go-openai"
)

func TestLocalExtractor_Names(t *testing.T) {
	e := NewLocalExtractor()

	chunk := model.DocumentChunk{
		DocumentID: "d1",
		Content: "Gary Cox met with Maria Alvarez at First National Bank. " +
			"Later Gary Cox called the office.",
	}
	candidates, usage, err := e.Extract(context.Background(), chunk, model.ScoringContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.TotalTokens != 0 {
		t.Error("local extractor must report zero token usage")
	}

	byName := map[string]model.EntityCandidate{}
	for _, c := range candidates {
		byName[c.NormalizedName] = c
	}
	gc, ok := byName["gary cox"]
	if !ok {
		t.Fatalf("expected Gary Cox candidate, got %v", byName)
	}
	if len(gc.Mentions) != 2 {
		t.Errorf("expected 2 mentions for repeated name, got %d", len(gc.Mentions))
	}
	if _, ok := byName["maria alvarez"]; !ok {
		t.Error("expected Maria Alvarez candidate")
	}
}

func TestLocalExtractor_HTMLStripped(t *testing.T) {
	e := NewLocalExtractor()

	chunk := model.DocumentChunk{
		Content: "<p>Gary Cox signed the lease.</p><script>var x = 'Evil Name';</script>",
	}
	candidates, _, err := e.Extract(context.Background(), chunk, model.ScoringContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range candidates {
		if c.NormalizedName == "evil name" {
			t.Error("script content must not produce candidates")
		}
	}
	found := false
	for _, c := range candidates {
		if c.NormalizedName == "gary cox" {
			found = true
		}
	}
	if !found {
		t.Error("expected Gary Cox from stripped HTML")
	}
}

type stubCompletion struct {
	content string
	err     error
}

func (s *stubCompletion) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func llmWithStub(stub *stubCompletion) *LLMExtractor {
	return &LLMExtractor{client: stub, cfg: model.LLMConfig{Model: "test"}}
}

func TestLLMExtractor_ParsesResponse(t *testing.T) {
	e := llmWithStub(&stubCompletion{
		content: "Here are the entities:\n" +
			`[{"name": "Gary Cox", "type": "person", "snippet": "Gary Cox testified"}]`,
	})
	chunk := model.DocumentChunk{DocumentID: "d1", Content: "irrelevant"}

	candidates, usage, err := e.Extract(context.Background(), chunk, model.ScoringContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].NormalizedName != "gary cox" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
	if candidates[0].SuggestedType != "person" {
		t.Errorf("expected person type, got %s", candidates[0].SuggestedType)
	}
	if usage.TotalTokens != 15 {
		t.Errorf("expected token usage recorded, got %d", usage.TotalTokens)
	}
}

func TestLLMExtractor_MalformedResponse(t *testing.T) {
	for _, content := range []string{
		"I could not find any entities.",
		`[{"name": broken json`,
		"",
	} {
		e := llmWithStub(&stubCompletion{content: content})
		_, _, err := e.Extract(context.Background(), model.DocumentChunk{Content: "x"}, model.ScoringContext{})
		if err == nil {
			t.Errorf("content %q: expected parse error", content)
		}
	}
}

func TestChain_FallsBackToLocal(t *testing.T) {
	failing := llmWithStub(&stubCompletion{err: errors.New("service down")})
	chain := NewChain(failing, NewLocalExtractor())

	chunk := model.DocumentChunk{Content: "Gary Cox testified in court."}
	candidates, _, err := chain.Extract(context.Background(), chunk, model.ScoringContext{})
	if err != nil {
		t.Fatalf("chain must fall back, got error: %v", err)
	}
	if len(candidates) == 0 {
		t.Error("expected candidates from local fallback")
	}
}

func TestChain_SkipsNil(t *testing.T) {
	var disabled *LLMExtractor // NewLLMExtractor returns nil when unconfigured
	_ = disabled
	chain := NewChain(nil, NewLocalExtractor())

	_, _, err := chain.Extract(context.Background(), model.DocumentChunk{Content: "Gary Cox ran."}, model.ScoringContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
