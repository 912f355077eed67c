package run

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sethvargo/go-githubactions"

	appI18n "github.com/pavelanni/prquiz/internal/i18n"
	"github.com/pavelanni/prquiz/internal/model"
)

// ActionsReporter writes progress and the outcome as GitHub Actions
// workflow commands. Failures become ::error:: annotations.
type ActionsReporter struct {
	action    *githubactions.Action
	timeLimit time.Duration
	ctx       context.Context
}

func NewActionsReporter(a *githubactions.Action, timeLimit time.Duration) *ActionsReporter {
	ctx := appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer(appI18n.DefaultLanguage))
	return &ActionsReporter{action: a, timeLimit: timeLimit, ctx: ctx}
}

func (r *ActionsReporter) Ready(url string) {
	r.action.Infof("%s", appI18n.Td(r.ctx, "ReportReady", map[string]any{"URL": url}))
}

func (r *ActionsReporter) Outcome(o model.Outcome) {
	switch o.Kind {
	case model.OutcomePassed:
		r.action.Infof("%s", appI18n.Tp(r.ctx, "ReportPassed", o.Attempts))
	case model.OutcomeFailed:
		r.action.Errorf("%s", appI18n.Tp(r.ctx, "ReportFailed", o.Attempts))
	case model.OutcomeTimedOut:
		r.action.Errorf("%s", appI18n.Td(r.ctx, "ReportTimedOut", map[string]any{"Limit": humanDuration(r.timeLimit)}))
	}
}

// Skipped reports a pull request that is too small to quiz on.
func (r *ActionsReporter) Skipped(lines, threshold int) {
	r.action.Infof("%s", appI18n.Td(r.ctx, "ReportSkipped", map[string]any{
		"Lines":     humanize.Comma(int64(lines)),
		"Threshold": humanize.Comma(int64(threshold)),
	}))
}

// Info writes a plain log line to the job output.
func (r *ActionsReporter) Info(msg string) {
	r.action.Infof("%s", msg)
}

// Error writes an error annotation.
func (r *ActionsReporter) Error(err error) {
	r.action.Errorf("%v", err)
}

// Summary sets the step outputs and appends a step summary.
func (r *ActionsReporter) Summary(s model.RunSummary) {
	r.action.SetOutput("outcome", string(s.Outcome))
	r.action.SetOutput("attempts", strconv.Itoa(s.Attempts))
	if data, err := json.Marshal(s); err == nil {
		r.action.SetOutput("summary", string(data))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### Pull request quiz\n\n")
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Pull request | %s |\n", s.PullRequest)
	fmt.Fprintf(&b, "| Outcome | %s |\n", s.Outcome)
	fmt.Fprintf(&b, "| Attempts | %d |\n", s.Attempts)
	fmt.Fprintf(&b, "| Questions | %d |\n", s.Questions)
	fmt.Fprintf(&b, "| Submissions | %d |\n", s.Submissions)
	fmt.Fprintf(&b, "| Elapsed | %s |\n", s.Elapsed.Round(time.Second))
	if len(s.Sessions) > 0 {
		fmt.Fprintf(&b, "\n| Session | Attempts | Result |\n|---|---|---|\n")
		for _, sess := range s.Sessions {
			fmt.Fprintf(&b, "| `%s` | %d | %s |\n", sess.Session, sess.Attempts, sess.Result)
		}
	}
	r.action.AddStepSummary(b.String())
}

// humanDuration renders d as "15 minutes".
func humanDuration(d time.Duration) string {
	now := time.Now()
	return strings.TrimSpace(humanize.RelTime(now, now.Add(d), "", ""))
}
