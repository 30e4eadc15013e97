package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLintFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLintRulesValidFile(t *testing.T) {
	path := writeLintFile(t, "valid.md", `---
name: code-style
description: Project code style conventions
priority: 10
---
Use tabs for indentation.
`)

	lintFlags.scope = "project"
	if err := lintRules(nil, []string{path}); err != nil {
		t.Errorf("lintRules() with valid file returned error: %v", err)
	}
}

func TestLintRulesInvalidFile(t *testing.T) {
	path := writeLintFile(t, "invalid.md", `---
name: missing-description
---
Body without a description field.
`)

	lintFlags.scope = "project"
	err := lintRules(nil, []string{path})
	if err == nil {
		t.Fatal("lintRules() with invalid file should return error")
	}
	if !strings.Contains(err.Error(), "1 of 1 file(s) failed validation") {
		t.Errorf("error = %q, want failure count message", err.Error())
	}
}

func TestLintRulesNonexistentFile(t *testing.T) {
	lintFlags.scope = "project"
	if err := lintRules(nil, []string{filepath.Join(t.TempDir(), "missing.md")}); err == nil {
		t.Error("lintRules() with nonexistent file should return error")
	}
}

func TestLintRulesInvalidScope(t *testing.T) {
	path := writeLintFile(t, "valid.md", `---
name: code-style
description: Project code style conventions
---
Content.
`)

	lintFlags.scope = "workspace"
	defer func() { lintFlags.scope = "project" }()

	if err := lintRules(nil, []string{path}); err == nil {
		t.Error("lintRules() with invalid scope should return error")
	}
}

func TestLintRulesMixedFiles(t *testing.T) {
	valid := writeLintFile(t, "valid.md", `---
name: good
description: A valid document
---
Content.
`)
	invalid := writeLintFile(t, "invalid.md", "no frontmatter at all\n")

	lintFlags.scope = "project"
	err := lintRules(nil, []string{valid, invalid})
	if err == nil {
		t.Fatal("lintRules() with one invalid file should return error")
	}
	if !strings.Contains(err.Error(), "1 of 2 file(s) failed validation") {
		t.Errorf("error = %q, want failure count message", err.Error())
	}
}
