package parser

import (
	"fmt"
	"strings"

	"tillerhq/tiller/pkg/rules"
)

// frontmatterDelimiter opens and closes the frontmatter block.
const frontmatterDelimiter = "---"

// frontmatter is the parsed key/value block plus the remaining body.
type frontmatter struct {
	fields map[string]string
	body   string
}

// extractFrontmatter splits a document into its frontmatter fields and its
// content body. The document must start with a delimiter line; everything up
// to the closing delimiter is parsed as single-level key: value pairs.
func extractFrontmatter(data string) (*frontmatter, error) {
	// Normalize line endings so CRLF documents parse identically.
	data = strings.ReplaceAll(data, "\r\n", "\n")

	lines := strings.Split(data, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterDelimiter {
		return nil, &rules.ValidationError{
			Message: "document must start with a --- frontmatter delimiter",
		}
	}

	fields := make(map[string]string)
	closed := false
	bodyStart := 0

	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		if line == frontmatterDelimiter {
			closed = true
			bodyStart = i + 1
			break
		}

		// Blank lines and comments are ignored inside the block.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, &rules.ValidationError{
				Message: fmt.Sprintf("malformed frontmatter line %q", truncateLine(line)),
			}
		}

		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if key == "" {
			return nil, &rules.ValidationError{
				Message: fmt.Sprintf("frontmatter line %q has an empty key", truncateLine(line)),
			}
		}

		fields[key] = value
	}

	if !closed {
		return nil, &rules.ValidationError{
			Message: "frontmatter block is not closed with a --- delimiter",
		}
	}

	body := ""
	if bodyStart < len(lines) {
		body = strings.Join(lines[bodyStart:], "\n")
	}

	return &frontmatter{fields: fields, body: body}, nil
}

// stripQuotes removes one matching pair of surrounding quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// truncateLine shortens a line for inclusion in error messages.
func truncateLine(line string) string {
	const maxLen = 60
	if len(line) > maxLen {
		return line[:maxLen] + "..."
	}
	return line
}
