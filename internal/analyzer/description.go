package analyzer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"hirescope/internal/types"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var fieldTitleCaser = cases.Title(language.English)

var requirementTerms = []string{"experience", "years", "certification", "skill"}

// jobDescription resolves the description used for scoring: the per-run
// cache first, then a substantial free-text notes field, else a synthesized
// description from job metadata and custom fields plus requirement-like
// questions sampled from one application (best effort).
func (a *CandidateAnalyzer) jobDescription(ctx context.Context, job *types.Job) string {
	if description, ok := a.descCache[job.ID]; ok {
		return description
	}

	if len(job.Notes) > 100 {
		a.descCache[job.ID] = job.Notes
		return job.Notes
	}

	parts := []string{fmt.Sprintf("Position: %s\n", job.Name)}

	if job.Departments != nil && len(*job.Departments) > 0 {
		parts = append(parts, "Department: "+(*job.Departments)[0].Name)
	}
	if len(job.Offices) > 0 {
		parts = append(parts, "Location: "+job.Offices[0].Name)
	}

	if fields := renderCustomFields(job.KeyedCustomFields); len(fields) > 0 {
		parts = append(parts, "\nJob Details:")
		parts = append(parts, fields...)
	}

	if requirements := a.sampleRequirements(ctx, job.ID); len(requirements) > 0 {
		parts = append(parts, "\nRequirements (from application):")
		parts = append(parts, requirements...)
	}

	description := strings.Join(parts, "\n")
	a.descCache[job.ID] = description
	return description
}

// renderCustomFields renders non-empty custom fields in key order. Money
// fields carry a currency prefix and unit suffix.
func renderCustomFields(fields map[string]types.CustomField) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var lines []string
	for _, key := range keys {
		field := fields[key]
		if field.IsEmpty() {
			continue
		}

		name := fieldTitleCaser.String(strings.ReplaceAll(key, "_", " "))
		if field.Money != nil {
			lines = append(lines, fmt.Sprintf("- %s: $%s %s", name, field.Money.Value.String(), field.Money.Unit))
		} else {
			lines = append(lines, fmt.Sprintf("- %s: %s", name, field.Text))
		}
	}

	return lines
}

// sampleRequirements pulls requirement-like questions from a single sampled
// application. Failures are swallowed; the synthesized description simply
// goes without the section.
func (a *CandidateAnalyzer) sampleRequirements(ctx context.Context, jobID int64) []string {
	sample, err := a.source.Applications(ctx, jobID, 1)
	if err != nil || len(sample) == 0 {
		return nil
	}

	var requirements []string
	for _, answer := range sample[0].Answers {
		if isRequirementQuestion(answer.Question) {
			requirements = append(requirements, "- "+answer.Question)
		}
	}
	return requirements
}

func isRequirementQuestion(question string) bool {
	lowered := strings.ToLower(question)
	for _, term := range requirementTerms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
