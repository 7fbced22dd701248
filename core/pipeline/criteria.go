package pipeline

import "strings"

// CriteriaSections is free-text eligibility criteria split into the sections
// registries conventionally use. Text before the first recognized header ends
// up in General; criteria that never use the headers stay entirely in General.
type CriteriaSections struct {
	General   string
	Inclusion string
	Exclusion string
}

// IsEmpty reports whether no section contains any text.
func (c CriteriaSections) IsEmpty() bool {
	return c.General == "" && c.Inclusion == "" && c.Exclusion == ""
}

// SplitEligibilityCriteria splits registry eligibility text on the
// "Inclusion Criteria" / "Exclusion Criteria" headers. Header matching is
// case-insensitive and tolerates a trailing colon. The split is purely
// structural; no criterion is interpreted here.
func SplitEligibilityCriteria(text string) CriteriaSections {
	sections := CriteriaSections{}
	current := &sections.General

	var buffer []string
	flush := func() {
		content := strings.TrimSpace(strings.Join(buffer, "\n"))
		buffer = nil
		if content == "" {
			return
		}
		if *current != "" {
			content = *current + "\n" + content
		}
		*current = content
	}

	for _, line := range strings.Split(text, "\n") {
		switch normalizeCriteriaHeader(line) {
		case "inclusion criteria":
			flush()
			current = &sections.Inclusion
		case "exclusion criteria":
			flush()
			current = &sections.Exclusion
		default:
			buffer = append(buffer, line)
		}
	}
	flush()

	return sections
}

func normalizeCriteriaHeader(line string) string {
	header := strings.ToLower(strings.TrimSpace(line))
	header = strings.TrimSuffix(header, ":")
	return strings.TrimSpace(header)
}
