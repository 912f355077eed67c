package prompts

import (
	"strings"
	"testing"
)

func TestDefaultSystem(t *testing.T) {
	got := DefaultSystem()
	if !strings.HasPrefix(got, "You are a code review education tool") {
		t.Errorf("unexpected system prompt start: %q", got[:40])
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("system prompt should be trimmed")
	}
}

func TestSystem(t *testing.T) {
	tests := []struct {
		name   string
		custom string
		want   string
	}{
		{"custom wins", "Be brief.", "Be brief."},
		{"empty falls back", "", DefaultSystem()},
		{"blank falls back", "  \n\t", DefaultSystem()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := System(tt.custom); got != tt.want {
				t.Errorf("System(%q) = %q, want %q", tt.custom, got, tt.want)
			}
		})
	}
}

func TestBuildUser(t *testing.T) {
	pr := "<pull_request><title>a &lt; b</title></pull_request>"
	got, err := BuildUser(UserData{PullRequest: pr, MinQuestions: 3, MaxQuestions: 5})
	if err != nil {
		t.Fatalf("BuildUser: %v", err)
	}
	if !strings.HasPrefix(got, pr+"\n\n") {
		t.Error("user prompt should start with the serialized pull request")
	}
	if !strings.Contains(got, "Generate 3-5 multiple choice questions that test understanding of this pull request.") {
		t.Error("user prompt should contain the generation instruction")
	}
	if strings.Contains(got, "&amp;lt;") {
		t.Error("text/template must not escape the pull request again")
	}
}
