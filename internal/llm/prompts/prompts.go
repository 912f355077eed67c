package prompts

import (
	"bytes"
	"embed"
	"errors"
	"strings"
	"sync"
	"text/template"
)

//go:embed files/*.txt
var promptFS embed.FS

var (
	loadOnce     sync.Once
	loadErr      error
	systemPrompt string
	userTemplate *template.Template
)

// UserData holds template data for the user message.
type UserData struct {
	PullRequest  string
	MinQuestions int
	MaxQuestions int
}

// load reads prompt files from the embedded filesystem once.
func load() error {
	loadOnce.Do(func() {
		sys, err := promptFS.ReadFile("files/system.txt")
		if err != nil {
			loadErr = errors.New("failed to read system prompt: " + err.Error())
			return
		}
		systemPrompt = strings.TrimSpace(string(sys))

		usr, err := promptFS.ReadFile("files/user.txt")
		if err != nil {
			loadErr = errors.New("failed to read user prompt: " + err.Error())
			return
		}
		userTemplate, err = template.New("user").Parse(string(usr))
		if err != nil {
			loadErr = errors.New("failed to parse user prompt template: " + err.Error())
		}
	})
	return loadErr
}

// DefaultSystem returns the built-in system prompt.
func DefaultSystem() string {
	if err := load(); err != nil {
		return ""
	}
	return systemPrompt
}

// System returns custom when it is non-blank, the built-in prompt otherwise.
func System(custom string) string {
	if strings.TrimSpace(custom) != "" {
		return custom
	}
	return DefaultSystem()
}

// BuildUser renders the user message around a serialized pull request.
func BuildUser(data UserData) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
