package merger

import (
	"strings"

	"tillerhq/tiller/pkg/rules"
)

// SectionHeader opens the rendered prompt section.
const SectionHeader = "# Steering Rules"

// BuildPromptSection renders the merged rules into a deterministic text
// block: a section header, then per rule a name heading, an italicized
// description line, the raw content, and a blank-line separator.
//
// The output is a pure function of its argument; an empty rule list
// renders to an empty string.
func BuildPromptSection(ruleList []*rules.Rule) string {
	if len(ruleList) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(SectionHeader)
	b.WriteString("\n\n")

	for _, rule := range ruleList {
		b.WriteString("## ")
		b.WriteString(rule.Name)
		b.WriteString("\n*")
		b.WriteString(rule.Description)
		b.WriteString("*\n\n")
		b.WriteString(rule.Content)
		if !strings.HasSuffix(rule.Content, "\n") {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	return b.String()
}
