package quiz

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/prquiz/internal/llm"
	"github.com/pavelanni/prquiz/internal/pullrequest"
	"github.com/pavelanni/prquiz/internal/retry"
)

const validQuiz = `{"questions": [
	{"question": "What does the new guard in ` + "`fetch.go`" + ` prevent?", "choices": {"a": "Nil deref", "b": "Double close", "c": "Leak", "d": "Nothing"}, "answer": "a"},
	{"question": "Which path is retried?", "choices": {"a": "None", "b": "Rate limit", "c": "All", "d": "Auth"}, "answer": "b"},
	{"question": "Why was the cache removed?", "choices": {"a": "Stale", "b": "Size", "c": "Speed", "d": "License"}, "answer": "a"}
]}`

func instant(context.Context, time.Duration) error { return nil }

func testSnapshot(t *testing.T) *pullrequest.Snapshot {
	t.Helper()
	snap, err := pullrequest.New(
		pullrequest.Meta{Number: 7, Title: "Fix fetch", Author: "octocat", URL: "https://github.com/o/r/pull/7"},
		[]pullrequest.FileChange{{Filename: "fetch.go", Status: pullrequest.StatusModified, Additions: 10, Deletions: 2, Patch: "@@ -1 +1 @@"}},
		nil,
	)
	require.NoError(t, err)
	return snap
}

func TestParse_Valid(t *testing.T) {
	q, err := Parse(validQuiz)
	require.NoError(t, err)
	require.Len(t, q.Questions, 3)
	assert.Equal(t, LabelB, q.Questions[1].Answer)
	assert.Equal(t, "Rate limit", q.Questions[1].Choices.Get(LabelB))
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"not json", "Sure! Here is your quiz:"},
		{"missing choices c and d", `{"questions": [{"question": "x", "choices": {"a":"1","b":"2"}, "answer":"a"}]}`},
		{"too few questions", `{"questions": [{"question": "x", "choices": {"a":"1","b":"2","c":"3","d":"4"}, "answer":"a"}]}`},
		{"answer out of range", `{"questions": [
			{"question": "x", "choices": {"a":"1","b":"2","c":"3","d":"4"}, "answer":"e"},
			{"question": "y", "choices": {"a":"1","b":"2","c":"3","d":"4"}, "answer":"a"}]}`},
		{"empty choice", `{"questions": [
			{"question": "x", "choices": {"a":"","b":"2","c":"3","d":"4"}, "answer":"a"},
			{"question": "y", "choices": {"a":"1","b":"2","c":"3","d":"4"}, "answer":"a"}]}`},
		{"extra field", `{"questions": [
			{"question": "x", "choices": {"a":"1","b":"2","c":"3","d":"4"}, "answer":"a", "hint": "no"},
			{"question": "y", "choices": {"a":"1","b":"2","c":"3","d":"4"}, "answer":"a"}]}`},
		{"duplicate choices", `{"questions": [
			{"question": "x", "choices": {"a":"same","b":"2","c":"same","d":"4"}, "answer":"a"},
			{"question": "y", "choices": {"a":"1","b":"2","c":"3","d":"4"}, "answer":"a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.content)
			assert.Nil(t, q)
			var ge *GenerationError
			require.ErrorAs(t, err, &ge)
		})
	}
}

func TestParse_TooManyQuestions(t *testing.T) {
	item := `{"question": "x", "choices": {"a":"1","b":"2","c":"3","d":"4"}, "answer":"a"}`
	items := strings.Repeat(item+",", MaxQuestions) + item
	_, err := Parse(`{"questions": [` + items + `]}`)
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
}

func TestGenerateFor_Success(t *testing.T) {
	usage := llm.Usage{PromptTokens: 1200, CompletionTokens: 300, ReasoningTokens: 40, TotalTokens: 1540}
	mock := llm.NewMockProvider(llm.MockResponse{Content: validQuiz, Usage: usage})
	g := NewGenerator(mock, WithRetryPolicy(retry.Policy{MaxRetries: 3, Wait: instant}))

	q, got, err := g.GenerateFor(context.Background(), testSnapshot(t))
	require.NoError(t, err)
	assert.Len(t, q.Questions, 3)
	assert.Equal(t, usage, got)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, DefaultSystemPrompt, req.System)
	assert.Equal(t, MaxTokens, req.MaxTokens)
	assert.InDelta(t, Temperature, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 1)
	assert.True(t, strings.HasPrefix(req.Messages[0].Content, testSnapshot(t).Serialize()+"\n\n"))
	assert.Contains(t, req.Messages[0].Content, "Generate 3-5 multiple choice questions that test understanding of this pull request.")
	require.NotNil(t, req.Schema)
}

func TestGenerateFor_RetriesInvalidReplies(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: "not json"},
		llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("slow down")}},
		llm.MockResponse{Content: validQuiz},
	)
	g := NewGenerator(mock, WithRetryPolicy(retry.Policy{MaxRetries: 3, Wait: instant}))

	q, _, err := g.GenerateFor(context.Background(), testSnapshot(t))
	require.NoError(t, err)
	assert.Len(t, q.Questions, 3)
	assert.Equal(t, 3, mock.CallCount())
}

func TestGenerateFor_Exhausted(t *testing.T) {
	bad := llm.MockResponse{Content: `{"questions": [{"question": "x", "choices": {"a":"1","b":"2"}, "answer":"a"}]}`}
	mock := llm.NewMockProvider(bad, bad, bad, bad)
	g := NewGenerator(mock, WithRetryPolicy(retry.Policy{MaxRetries: 3, Wait: instant}))

	q, _, err := g.GenerateFor(context.Background(), testSnapshot(t))
	assert.Nil(t, q)

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	var re *retry.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 3, re.Retries)
	assert.Equal(t, 4, mock.CallCount())
	assert.Contains(t, err.Error(), "operation failed after 3 retries")
}

func TestWithSystemPrompt(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: validQuiz})
	g := NewGenerator(mock, WithSystemPrompt("Ask about tests only."))
	_, _, err := g.GenerateFor(context.Background(), testSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, "Ask about tests only.", mock.Calls[0].System)

	g = NewGenerator(mock, WithSystemPrompt("   "))
	assert.Equal(t, DefaultSystemPrompt, g.systemPrompt)
}

func TestUsageTable(t *testing.T) {
	out := UsageTable(llm.Usage{PromptTokens: 12345, CompletionTokens: 678, TotalTokens: 13023})
	for _, want := range []string{"Prompt", "Completion", "Reasoning", "Total", "12,345", "13,023", "678"} {
		assert.Contains(t, out, want)
	}
}
