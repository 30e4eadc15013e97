package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"tillerhq/tiller/pkg/rules"
)

// Core frontmatter field names. Anything else lands in Rule.Metadata.
const (
	fieldName             = "name"
	fieldDescription      = "description"
	fieldInclusion        = "inclusion"
	fieldFileMatchPattern = "fileMatchPattern"
	fieldPriority         = "priority"
	fieldOverride         = "override"
	fieldEnabled          = "enabled"
)

// Parser converts rule documents into rules.Rule values.
// It enforces the document size cap, required-field and enum validation,
// and resolves in-content file references through its resolver.
type Parser struct {
	maxDocumentSize int64
	resolver        *ReferenceResolver
}

// NewParser creates a parser with the default 1 MiB document cap and no
// file-reference allow-list (every reference renders as blocked).
func NewParser() *Parser {
	return &Parser{
		maxDocumentSize: rules.MaxDocumentSize,
		resolver:        NewReferenceResolver(nil),
	}
}

// WithMaxDocumentSize sets the document size cap in bytes.
func (p *Parser) WithMaxDocumentSize(size int64) *Parser {
	if size > 0 {
		p.maxDocumentSize = size
	}
	return p
}

// WithResolver sets the file-reference resolver.
func (p *Parser) WithResolver(resolver *ReferenceResolver) *Parser {
	if resolver != nil {
		p.resolver = resolver
	}
	return p
}

// ParseFile reads and parses the rule document at path, assigning it the
// given scope. It returns a *rules.ValidationError for oversized or
// malformed documents.
func (p *Parser) ParseFile(path string, scope rules.Scope) (*rules.Rule, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access rule document %q: %w", path, err)
	}

	if info.Size() > p.maxDocumentSize {
		return nil, &rules.ValidationError{
			Message: fmt.Sprintf("document %q is %d bytes, exceeding the %d byte cap", path, info.Size(), p.maxDocumentSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule document %q: %w", path, err)
	}

	rule, err := p.Parse(string(data), scope, path)
	if err != nil {
		return nil, err
	}

	rule.CreatedAt = info.ModTime()
	rule.UpdatedAt = info.ModTime()
	return rule, nil
}

// Parse parses a rule document from memory, assigning it the given scope.
// sourcePath records provenance and anchors relative file references; it
// may be empty for documents with no backing file.
func (p *Parser) Parse(document string, scope rules.Scope, sourcePath string) (*rules.Rule, error) {
	if int64(len(document)) > p.maxDocumentSize {
		return nil, &rules.ValidationError{
			Message: fmt.Sprintf("document is %d bytes, exceeding the %d byte cap", len(document), p.maxDocumentSize),
		}
	}

	fm, err := extractFrontmatter(document)
	if err != nil {
		return nil, err
	}

	rule := &rules.Rule{
		Scope:      scope,
		Inclusion:  rules.InclusionAlways,
		Priority:   rules.PriorityDefault,
		Enabled:    true,
		SourcePath: sourcePath,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	for key, value := range fm.fields {
		switch key {
		case fieldName:
			rule.Name = value

		case fieldDescription:
			rule.Description = value

		case fieldInclusion:
			mode, err := rules.ParseInclusionMode(value)
			if err != nil {
				return nil, &rules.ValidationError{Rule: rule.Name, Field: fieldInclusion, Message: err.Error()}
			}
			rule.Inclusion = mode

		case fieldFileMatchPattern:
			rule.FileMatchPattern = value

		case fieldPriority:
			priority, err := strconv.Atoi(value)
			if err != nil {
				return nil, &rules.ValidationError{
					Rule:    rule.Name,
					Field:   fieldPriority,
					Message: fmt.Sprintf("priority %q is not an integer", value),
					Cause:   err,
				}
			}
			rule.Priority = priority

		case fieldOverride:
			b, err := parseBool(value)
			if err != nil {
				return nil, &rules.ValidationError{Rule: rule.Name, Field: fieldOverride, Message: err.Error()}
			}
			rule.Override = b

		case fieldEnabled:
			b, err := parseBool(value)
			if err != nil {
				return nil, &rules.ValidationError{Rule: rule.Name, Field: fieldEnabled, Message: err.Error()}
			}
			rule.Enabled = b

		default:
			if rule.Metadata == nil {
				rule.Metadata = make(map[string]string)
			}
			rule.Metadata[key] = value
		}
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}

	rule.Content = p.resolver.Resolve(fm.body, baseDir(sourcePath))
	return rule, nil
}

// baseDir returns the directory that anchors relative file references.
func baseDir(sourcePath string) string {
	if sourcePath == "" {
		return "."
	}
	return filepath.Dir(sourcePath)
}

// parseBool parses the frontmatter boolean format.
func parseBool(value string) (bool, error) {
	switch value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("value %q is not true or false", value)
	}
}
