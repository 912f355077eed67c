package quiz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/pavelanni/prquiz/internal/llm"
)

// UsageTable renders token usage as a bordered table for the job log.
func UsageTable(u llm.Usage) string {
	count := func(n int) string { return humanize.Comma(int64(n)) }
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Token usage", "Count").
		Row("Prompt", count(u.PromptTokens)).
		Row("Completion", count(u.CompletionTokens)).
		Row("Reasoning", count(u.ReasoningTokens)).
		Row("Total", count(u.TotalTokens)).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if col == 1 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})
	return t.String()
}
