package prompt

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/ashureev/misogi/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesLoaded(t *testing.T) {
	for _, name := range []string{"triage", "coach", "misogi", "journal", "receipt"} {
		assert.Contains(t, templates, name)
	}
}

func TestTriageEmbedsContextVerbatim(t *testing.T) {
	ctx := TriageContext{
		Today: "2026-10-19",
		Tasks: []domain.Task{{ID: "t1", Title: "Llamar al banco", Category: domain.TaskCategoryAction, Priority: domain.PriorityHigh, Status: domain.TaskStatusOpen}},
		Goals: []domain.Goal{},
	}
	text, err := Triage(ctx)
	require.NoError(t, err)

	want, err := json.MarshalIndent(ctx, "", "  ")
	require.NoError(t, err)
	assert.Contains(t, text, string(want))
	assert.Contains(t, text, `"action" | "mission" | "delegate"`)
	assert.Contains(t, text, `"low" | "medium" | "high" | "critical"`)
	assert.Contains(t, text, "ONLY this JSON object")
}

func TestCoachPromptListsOnlyCoachActions(t *testing.T) {
	text, err := Coach(CoachContext{Purchase: &PurchaseContext{Description: "laptop", Amount: 1200, Currency: "USD"}})
	require.NoError(t, err)

	assert.Contains(t, text, `"create_task" | "create_goal"`)
	assert.NotContains(t, text, "add_resource")
	assert.Contains(t, text, `"amount": 1200`)
	assert.Contains(t, text, `"shouldRefresh": boolean`)
}

func TestMisogiModes(t *testing.T) {
	challenge := domain.Misogi{ID: "m1", Title: "Run an ultramarathon"}

	coach, err := Misogi(MisogiContext{Challenge: challenge})
	require.NoError(t, err)
	assert.Contains(t, coach, "You are the coach")
	assert.Contains(t, coach, `"add_resource" | "add_roadmap" | "create_task" | "create_goal"`)

	assistant, err := Misogi(MisogiContext{Mode: MisogiModeAssistant, Challenge: challenge})
	require.NoError(t, err)
	assert.Contains(t, assistant, "You are the assistant")
	assert.Contains(t, assistant, "Run an ultramarathon")

	_, err = Misogi(MisogiContext{Mode: "oracle"})
	require.Error(t, err)
}

func TestJournalAndReceiptPrompts(t *testing.T) {
	journal, err := Journal(JournalContext{Date: "2026-10-19"})
	require.NoError(t, err)
	assert.Contains(t, journal, "journal entry for 2026-10-19")
	assert.Contains(t, journal, `"done": boolean`)

	receipt, err := Receipt(ReceiptContext{DefaultCurrency: "MXN"})
	require.NoError(t, err)
	assert.Contains(t, receipt, "attached receipt")
	assert.Contains(t, receipt, `"food" | "transport"`)
	assert.Contains(t, receipt, `"defaultCurrency": "MXN"`)
}

// Every quoted literal list in a rendered prompt must come from a Go taxonomy.
func TestPromptsDoNotInventLiterals(t *testing.T) {
	allowed := map[string]bool{}
	for _, c := range domain.TaskCategories {
		allowed[string(c)] = true
	}
	for _, p := range domain.Priorities {
		allowed[string(p)] = true
	}
	for _, c := range domain.ExpenseCategories {
		allowed[c] = true
	}
	for _, a := range []string{"create_task", "create_goal", "add_resource", "add_roadmap"} {
		allowed[a] = true
	}

	lists := regexp.MustCompile(`"[a-z_]+"(?: \| "[a-z_]+")+`)
	words := regexp.MustCompile(`"([a-z_]+)"`)

	builders := map[string]func() (string, error){
		"triage":  func() (string, error) { return Triage(TriageContext{}) },
		"coach":   func() (string, error) { return Coach(CoachContext{}) },
		"misogi":  func() (string, error) { return Misogi(MisogiContext{}) },
		"receipt": func() (string, error) { return Receipt(ReceiptContext{}) },
	}
	for name, build := range builders {
		text, err := build()
		require.NoError(t, err, name)
		for _, list := range lists.FindAllString(text, -1) {
			for _, m := range words.FindAllStringSubmatch(list, -1) {
				assert.True(t, allowed[m[1]], "%s prompt invents literal %q in %s", name, m[1], strings.TrimSpace(list))
			}
		}
	}
}
