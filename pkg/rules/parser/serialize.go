package parser

import (
	"fmt"
	"sort"
	"strings"

	"tillerhq/tiller/pkg/rules"
)

// Serialize renders a rule back into its on-disk document format.
// The output parses back to an identical rule (modulo timestamps and
// source location), which the store relies on for save round-trips.
func Serialize(rule *rules.Rule) string {
	var b strings.Builder

	b.WriteString(frontmatterDelimiter)
	b.WriteByte('\n')

	writeField(&b, fieldName, rule.Name)
	writeField(&b, fieldDescription, rule.Description)
	writeField(&b, fieldInclusion, string(rule.Inclusion))
	if rule.FileMatchPattern != "" {
		writeField(&b, fieldFileMatchPattern, rule.FileMatchPattern)
	}
	writeField(&b, fieldPriority, fmt.Sprintf("%d", rule.Priority))
	writeField(&b, fieldOverride, fmt.Sprintf("%t", rule.Override))
	writeField(&b, fieldEnabled, fmt.Sprintf("%t", rule.Enabled))

	// Metadata keys serialize in sorted order for determinism.
	if len(rule.Metadata) > 0 {
		keys := make([]string, 0, len(rule.Metadata))
		for k := range rule.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeField(&b, k, rule.Metadata[k])
		}
	}

	b.WriteString(frontmatterDelimiter)
	b.WriteByte('\n')
	b.WriteString(rule.Content)

	return b.String()
}

func writeField(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}
