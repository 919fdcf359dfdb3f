package ai

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type scriptedCompleter struct {
	replies []func(req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	reqs    []openai.ChatCompletionRequest
}

func (s *scriptedCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.reqs = append(s.reqs, req)
	i := len(s.reqs) - 1
	if i >= len(s.replies) {
		return reply("", openai.FinishReasonStop), nil
	}
	return s.replies[i](req)
}

func reply(text string, reason openai.FinishReason) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{
		Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text},
		FinishReason: reason,
	}}}
}

func says(text string) func(openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return func(openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
		return reply(text, openai.FinishReasonStop), nil
	}
}

func fails(err error) func(openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return func(openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
		return openai.ChatCompletionResponse{}, err
	}
}

func newTestGPT(completers ...chatCompleter) (*GPT, *History) {
	var clients []*OpenAIClient
	for _, c := range completers {
		clients = append(clients, &OpenAIClient{api: c, model: "test"})
	}
	h := newTestHistory()
	return NewGPT(newPoolOf(clients...), h, zap.NewNop()), h
}

func TestGPTAppendsExchangeToHistory(t *testing.T) {
	api := &scriptedCompleter{replies: []func(openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error){
		says("Привет!"), says("4"),
	}}
	g, h := newTestGPT(api)
	ctx := context.Background()

	if got, err := g.Ask(ctx, 1, "привет"); err != nil || got != "Привет!" {
		t.Fatalf("Ask() = %q, %v", got, err)
	}
	if got, _ := g.Ask(ctx, 1, "2+2?"); got != "4" {
		t.Fatalf("Ask() = %q", got)
	}

	second := api.reqs[1].Messages
	if second[0].Role != openai.ChatMessageRoleSystem || second[0].Content != gptSystemPrompt {
		t.Fatalf("first message is not the system prompt: %+v", second[0])
	}
	if len(second) != 4 || second[3].Content != "2+2?" {
		t.Fatalf("second request messages = %+v", second)
	}
	if n := len(h.Get(1)); n != 4 {
		t.Fatalf("history len = %d, want 4", n)
	}
}

func TestGPTEmptyReplyDropsQuestion(t *testing.T) {
	api := &scriptedCompleter{replies: []func(openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error){
		says("раз"), says(""),
	}}
	g, h := newTestGPT(api)
	ctx := context.Background()

	_, _ = g.Ask(ctx, 2, "первый")
	got, err := g.Ask(ctx, 2, "второй")
	if err != nil || got != "" {
		t.Fatalf("Ask() = %q, %v", got, err)
	}
	hist := h.Get(2)
	if len(hist) != 2 || hist[len(hist)-1].Content != "раз" {
		t.Fatalf("history = %+v", hist)
	}
}

func TestGPTShrinksHistoryOnContextOverflow(t *testing.T) {
	overflow := &openai.APIError{
		HTTPStatusCode: 400,
		Code:           "context_length_exceeded",
		Message:        "This model's maximum context length is 4097 tokens.",
	}
	api := &scriptedCompleter{replies: []func(openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error){
		fails(overflow), says("короткий ответ"),
	}}
	g, h := newTestGPT(api)
	ctx := context.Background()

	_ = h.Save(ctx, 3, []Message{
		{Role: "user", Content: "q1"}, {Role: "assistant", Content: "a1"},
		{Role: "user", Content: "q2"}, {Role: "assistant", Content: "a2"},
	})

	got, err := g.Ask(ctx, 3, "q3")
	if err != nil || got != "короткий ответ" {
		t.Fatalf("Ask() = %q, %v", got, err)
	}

	retry := api.reqs[1].Messages
	// system + q1 + a1 + q3
	if len(retry) != 4 || retry[3].Content != "q3" || retry[2].Content != "a1" {
		t.Fatalf("retry messages = %+v", retry)
	}
}

func TestGPTRefusal(t *testing.T) {
	api := &scriptedCompleter{replies: []func(openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error){
		says("a1"),
		func(openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
			return reply("", openai.FinishReasonContentFilter), nil
		},
	}}
	g, h := newTestGPT(api)
	ctx := context.Background()

	_, _ = g.Ask(ctx, 4, "q1")
	got, err := g.Ask(ctx, 4, "плохой вопрос")
	if err != nil || got != refusalReply {
		t.Fatalf("Ask() = %q, %v", got, err)
	}
	if hist := h.Get(4); len(hist) != 1 || hist[0].Content != "q1" {
		t.Fatalf("history = %+v", hist)
	}
}

func TestGPTRetriesOnceThenGivesUp(t *testing.T) {
	boom := errors.New("502 bad gateway")
	api := &scriptedCompleter{replies: []func(openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error){
		fails(boom), fails(boom), says("не дойдёт"),
	}}
	g, h := newTestGPT(api)

	got, err := g.Ask(context.Background(), 5, "q")
	if got != "" || !errors.Is(err, boom) {
		t.Fatalf("Ask() = %q, %v", got, err)
	}
	if len(api.reqs) != 2 {
		t.Fatalf("requests = %d, want 2", len(api.reqs))
	}
	if len(h.Get(5)) != 0 {
		t.Fatal("failed question stored in history")
	}
}

func TestGPTResetClearsHistory(t *testing.T) {
	api := &scriptedCompleter{replies: []func(openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error){says("ok")}}
	g, h := newTestGPT(api)
	ctx := context.Background()

	_, _ = g.Ask(ctx, 6, "q")
	if err := g.Reset(ctx, 6); err != nil {
		t.Fatal(err)
	}
	if len(h.Get(6)) != 0 {
		t.Fatal("history survived Reset")
	}
}

func TestGPTWithoutKeys(t *testing.T) {
	g, _ := newTestGPT()
	if _, err := g.Ask(context.Background(), 1, "q"); !errors.Is(err, ErrNoKeys) {
		t.Fatalf("Ask() err = %v, want ErrNoKeys", err)
	}
}

func TestAnalyzeOpenAIError(t *testing.T) {
	if got := analyzeOpenAIError(&openai.APIError{HTTPStatusCode: 429}); got != "Превышен лимит OpenAI." {
		t.Fatalf("analyzeOpenAIError(429) = %q", got)
	}
	if got := analyzeOpenAIError(errors.New("dial tcp")); got != "Неизвестная ошибка OpenAI: dial tcp" {
		t.Fatalf("analyzeOpenAIError(net) = %q", got)
	}
}
