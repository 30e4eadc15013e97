// Tiller is a hierarchically-scoped rules engine for assistant steering
// documents.
//
// It loads markdown rule documents with YAML-style frontmatter from
// global, user, and project directories, matches them against a request
// context, and merges the winners into a single prompt section with
// deterministic precedence, override, and truncation semantics.
//
// Usage:
//
//	# List all loaded rules
//	tiller list
//
//	# Show a single rule
//	tiller get code-style
//
//	# Validate rule documents before committing them
//	tiller lint .tiller/rules/*.md
//
//	# Render the prompt section for a request context
//	tiller render --file src/app.tsx --ref security-review
//
//	# Report conflicts across the loaded rule set
//	tiller conflicts
//
//	# Watch rule directories and reload on change
//	tiller watch
//
//	# Query stored evaluation traces
//	tiller audit list --session sess-42
package main

func main() {
	Execute()
}
