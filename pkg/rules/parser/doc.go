// Package parser converts rule documents between their on-disk frontmatter
// format and the rules.Rule model.
//
// A rule document is a text file with a delimited frontmatter block followed
// by the rule content:
//
//	---
//	name: react-conventions
//	description: Conventions for React components
//	inclusion: fileMatch
//	fileMatchPattern: **/*.tsx
//	priority: 60
//	---
//	Prefer function components. ...
//
// The frontmatter holds single-level key: value scalar pairs. Surrounding
// quotes are stripped from values, and blank or #-prefixed lines are ignored.
// name and description are required; the remaining fields default per the
// rules package.
//
// Rule content may reference other files with the #[[file:relative/path]]
// syntax. References are resolved relative to the document's directory and
// substituted inline, subject to an allow-list and an expansion cap; failed
// resolutions are rendered as inline markers and never abort parsing.
//
// Parse and Serialize are pure with respect to the parser's configuration
// and safe for concurrent use.
package parser
