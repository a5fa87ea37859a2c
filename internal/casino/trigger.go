package casino

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/luckyroll/casino/internal/setup/config"
)

// TriggerData is what trigger templates are rendered with.
type TriggerData struct {
	UserID  int64
	Name    string
	ChatID  int64
	Game    string
	Emoji   string
	Value   int
	Outcome string
	Streak  int64
	Best    int64
}

// Trigger is a compiled scripted reply.
type Trigger struct {
	rule config.Trigger
	tmpl *template.Template
}

// CompileTriggers parses the templates of all configured triggers.
func CompileTriggers(rules []config.Trigger) ([]*Trigger, error) {
	triggers := make([]*Trigger, 0, len(rules))

	for i, rule := range rules {
		if rule.Game != "" {
			if _, err := enum.GameString(rule.Game); err != nil {
				return nil, fmt.Errorf("trigger %d: %w", i, err)
			}
		}

		if rule.Outcome != "" {
			if _, err := enum.OutcomeString(rule.Outcome); err != nil {
				return nil, fmt.Errorf("trigger %d: %w", i, err)
			}
		}

		tmpl, err := template.New(fmt.Sprintf("trigger%d", i)).Option("missingkey=error").Parse(rule.Template)
		if err != nil {
			return nil, fmt.Errorf("trigger %d: %w", i, err)
		}

		triggers = append(triggers, &Trigger{rule: rule, tmpl: tmpl})
	}

	return triggers, nil
}

// Matches reports whether the trigger applies to a scored roll.
func (t *Trigger) Matches(data *TriggerData) bool {
	r := t.rule

	switch {
	case r.UserID != 0 && r.UserID != data.UserID:
		return false
	case r.ChatID != 0 && r.ChatID != data.ChatID:
		return false
	case r.Game != "" && r.Game != data.Game:
		return false
	case r.Outcome != "" && r.Outcome != data.Outcome:
		return false
	case int64(r.MinStreak) > data.Streak:
		return false
	}

	return true
}

// Render executes the template.
func (t *Trigger) Render(data *TriggerData) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", t.tmpl.Name(), err)
	}

	return buf.String(), nil
}
