// Package quiz generates and validates multiple choice quizzes about a
// pull request.
package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Question count bounds accepted from the model.
const (
	MinQuestions = 2
	MaxQuestions = 5
)

// Label identifies one of the four choices.
type Label string

const (
	LabelA Label = "a"
	LabelB Label = "b"
	LabelC Label = "c"
	LabelD Label = "d"
)

// Labels lists the choice labels in display order.
var Labels = []Label{LabelA, LabelB, LabelC, LabelD}

// Choices holds the four answer options of a question.
type Choices struct {
	A string `json:"a"`
	B string `json:"b"`
	C string `json:"c"`
	D string `json:"d"`
}

// Get returns the text of the choice labeled l.
func (c Choices) Get(l Label) string {
	switch l {
	case LabelA:
		return c.A
	case LabelB:
		return c.B
	case LabelC:
		return c.C
	case LabelD:
		return c.D
	}
	return ""
}

// Question is a single multiple choice question.
type Question struct {
	Question string  `json:"question"`
	Choices  Choices `json:"choices"`
	Answer   Label   `json:"answer"`
}

// Quiz is a validated set of questions.
type Quiz struct {
	Questions []Question `json:"questions"`
}

// GenerationError reports that no valid quiz could be produced.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("quiz generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

var choiceSchema = map[string]any{"type": "string", "minLength": 1}

// Schema is the JSON Schema every model reply must satisfy.
var Schema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"questions": map[string]any{
			"type":     "array",
			"minItems": MinQuestions,
			"maxItems": MaxQuestions,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question": map[string]any{"type": "string", "minLength": 1},
					"choices": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"a": choiceSchema,
							"b": choiceSchema,
							"c": choiceSchema,
							"d": choiceSchema,
						},
						"required":             []any{"a", "b", "c", "d"},
						"additionalProperties": false,
					},
					"answer": map[string]any{"type": "string", "enum": []any{"a", "b", "c", "d"}},
				},
				"required":             []any{"question", "choices", "answer"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []any{"questions"},
	"additionalProperties": false,
}

const schemaURL = "schema://quiz.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants plain decoded JSON, not Go typed maps.
		raw, err := json.Marshal(Schema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Parse decodes and validates a model reply. Any failure is returned as
// a *GenerationError.
func Parse(content string) (*Quiz, error) {
	if content == "" {
		return nil, &GenerationError{Err: errors.New("empty response")}
	}

	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, &GenerationError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, &GenerationError{Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		return nil, &GenerationError{Err: fmt.Errorf("schema validation failed: %w", err)}
	}

	var q Quiz
	if err := json.Unmarshal([]byte(content), &q); err != nil {
		return nil, &GenerationError{Err: fmt.Errorf("decode quiz: %w", err)}
	}
	for i, question := range q.Questions {
		if err := distinctChoices(question.Choices); err != nil {
			return nil, &GenerationError{Err: fmt.Errorf("question %d: %w", i+1, err)}
		}
	}
	return &q, nil
}

func distinctChoices(c Choices) error {
	seen := make(map[string]Label, len(Labels))
	for _, l := range Labels {
		text := c.Get(l)
		if prev, ok := seen[text]; ok {
			return fmt.Errorf("choices %s and %s are identical", prev, l)
		}
		seen[text] = l
	}
	return nil
}
