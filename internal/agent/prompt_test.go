package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDatesFor(t *testing.T) {
	ref := time.Date(2025, time.March, 1, 9, 30, 0, 0, time.UTC)
	d := DatesFor(ref)

	assert.Equal(t, "2025-03-01", d.Today)
	assert.Equal(t, "2025-02-28", d.EndDate)
	assert.Equal(t, "2025-01-29", d.StartDate)
}

func TestDatesFor_UsesUTC(t *testing.T) {
	// 23:30 on Jan 10 in UTC-5 is already Jan 11 in UTC.
	loc := time.FixedZone("EST", -5*60*60)
	ref := time.Date(2025, time.January, 10, 23, 30, 0, 0, loc)

	d := DatesFor(ref)
	assert.Equal(t, "2025-01-11", d.Today)
	assert.Equal(t, "2025-01-10", d.EndDate)
	assert.Equal(t, "2024-12-11", d.StartDate)
}

func TestBuildSystemPrompt_EmbedsDates(t *testing.T) {
	ref := time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)
	prompt := BuildSystemPrompt(ref)

	assert.Contains(t, prompt, "2024-07-15")
	assert.Contains(t, prompt, `"end_date" must be "2024-07-14"`)
	assert.Contains(t, prompt, `"start_date" must be "2024-06-14"`)
}

func TestBuildSystemPrompt_WorkflowRules(t *testing.T) {
	prompt := BuildSystemPrompt(time.Now())

	for _, want := range []string{
		"MANDATORY EXECUTION ORDER",
		"Jungle Scout",
		"Semrush",
		"COMPOSIO_SEARCH_TOOLS",
		"COMPOSIO_MULTI_EXECUTE_TOOL",
		"NEVER use COMPOSIO_REMOTE_BASH_TOOL",
		"NEVER use COMPOSIO_REMOTE_WORKBENCH",
		"$10,000/month",
		`"Beauty & Personal Care"`,
		`"marketplace" must be the string "us"`,
		`"database" must be the string "us"`,
		"Organic (SEO)",
		"Paid (Ads)",
	} {
		assert.Contains(t, prompt, want)
	}
}

func TestBuildSystemPrompt_Deterministic(t *testing.T) {
	ref := time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, BuildSystemPrompt(ref), BuildSystemPrompt(ref))
}

func TestSystemPrompt_Today(t *testing.T) {
	today := time.Now().UTC().Format("2006-01-02")
	assert.Contains(t, SystemPrompt(), today)
}

func TestTaskInstruction(t *testing.T) {
	instr := TaskInstruction("Clay Mask")
	assert.Contains(t, instr, `"Clay Mask"`)
	assert.Contains(t, instr, "Jungle Scout")
	assert.Contains(t, instr, "Semrush")
}
