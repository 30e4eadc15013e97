package merger

import (
	"reflect"
	"strings"
	"testing"

	"tillerhq/tiller/pkg/rules"
)

func scopedRule(name string, scope rules.Scope, priority int) *rules.Rule {
	return &rules.Rule{
		Name:        name,
		Description: "test rule " + name,
		Content:     "content of " + name + "\n",
		Scope:       scope,
		Inclusion:   rules.InclusionAlways,
		Priority:    priority,
		Enabled:     true,
	}
}

func asMatches(ruleList ...*rules.Rule) []rules.RuleMatch {
	matches := make([]rules.RuleMatch, 0, len(ruleList))
	for _, rule := range ruleList {
		matches = append(matches, rules.RuleMatch{Rule: rule, Reason: "always included"})
	}
	return matches
}

func finalNames(ruleList []*rules.Rule) []string {
	names := make([]string, 0, len(ruleList))
	for _, rule := range ruleList {
		names = append(names, rule.Name)
	}
	return names
}

func TestMerge_ScopePrecedence(t *testing.T) {
	matches := asMatches(
		scopedRule("g", rules.ScopeGlobal, 50),
		scopedRule("s", rules.ScopeSession, 50),
		scopedRule("u", rules.ScopeUser, 50),
		scopedRule("p", rules.ScopeProject, 50),
	)

	final, conflicts := Merge(matches, 0)

	want := []string{"s", "p", "u", "g"}
	if !reflect.DeepEqual(finalNames(final), want) {
		t.Errorf("order = %v, want %v", finalNames(final), want)
	}
	if len(conflicts) != 0 {
		t.Errorf("conflicts = %v, want none", conflicts)
	}
}

func TestMerge_PriorityWithinScope(t *testing.T) {
	matches := asMatches(
		scopedRule("low", rules.ScopeProject, 10),
		scopedRule("high", rules.ScopeProject, 90),
		scopedRule("mid", rules.ScopeProject, 50),
	)

	final, _ := Merge(matches, 0)

	want := []string{"high", "mid", "low"}
	if !reflect.DeepEqual(finalNames(final), want) {
		t.Errorf("order = %v, want %v", finalNames(final), want)
	}
}

func TestMerge_NameBreaksTies(t *testing.T) {
	matches := asMatches(
		scopedRule("zeta", rules.ScopeProject, 50),
		scopedRule("alpha", rules.ScopeProject, 50),
	)

	final, _ := Merge(matches, 0)

	want := []string{"alpha", "zeta"}
	if !reflect.DeepEqual(finalNames(final), want) {
		t.Errorf("order = %v, want %v", finalNames(final), want)
	}
}

func TestMerge_DuplicateNameHigherScopeWins(t *testing.T) {
	projectRule := scopedRule("code-style", rules.ScopeProject, 50)
	projectRule.Content = "project version\n"
	userRule := scopedRule("code-style", rules.ScopeUser, 90)
	userRule.Content = "user version\n"

	final, conflicts := Merge(asMatches(userRule, projectRule), 0)

	if len(final) != 1 {
		t.Fatalf("len(final) = %d, want 1", len(final))
	}
	if final[0].Scope != rules.ScopeProject {
		t.Errorf("kept scope = %q, want project (higher precedence beats higher priority)", final[0].Scope)
	}
	if len(conflicts) != 1 {
		t.Fatalf("len(conflicts) = %d, want 1", len(conflicts))
	}
	if !strings.Contains(conflicts[0].Reason, "keeping project scope") {
		t.Errorf("conflict reason = %q, want to name the kept scope", conflicts[0].Reason)
	}
}

func TestMerge_OverrideDisplacesAcceptedRule(t *testing.T) {
	projectRule := scopedRule("code-style", rules.ScopeProject, 50)
	userRule := scopedRule("code-style", rules.ScopeUser, 50)
	userRule.Override = true
	userRule.Content = "override wins\n"

	final, conflicts := Merge(asMatches(projectRule, userRule), 0)

	if len(final) != 1 {
		t.Fatalf("len(final) = %d, want 1", len(final))
	}
	if final[0].Scope != rules.ScopeUser {
		t.Errorf("kept scope = %q, want user (override displaces)", final[0].Scope)
	}
	if len(conflicts) != 1 || !strings.Contains(conflicts[0].Reason, "overridden by user scope") {
		t.Errorf("conflicts = %+v, want override reason", conflicts)
	}
}

func TestMerge_OverrideKeepsOrderingSlot(t *testing.T) {
	first := scopedRule("aaa", rules.ScopeProject, 90)
	duplicated := scopedRule("mmm", rules.ScopeProject, 80)
	last := scopedRule("zzz", rules.ScopeProject, 70)
	override := scopedRule("mmm", rules.ScopeUser, 50)
	override.Override = true

	final, _ := Merge(asMatches(first, duplicated, last, override), 0)

	want := []string{"aaa", "mmm", "zzz"}
	if !reflect.DeepEqual(finalNames(final), want) {
		t.Fatalf("order = %v, want %v", finalNames(final), want)
	}
	if final[1].Scope != rules.ScopeUser {
		t.Errorf("displaced rule scope = %q, want user", final[1].Scope)
	}
}

func TestMerge_Truncation(t *testing.T) {
	big := scopedRule("big", rules.ScopeProject, 90)
	big.Content = strings.Repeat("a", 80)
	small := scopedRule("small", rules.ScopeProject, 50)
	small.Content = strings.Repeat("b", 30)

	final, _ := Merge(asMatches(big, small), 100)

	// big fits (80 <= 100); small would push the total to 110.
	want := []string{"big"}
	if !reflect.DeepEqual(finalNames(final), want) {
		t.Errorf("final = %v, want %v", finalNames(final), want)
	}
}

func TestMerge_TruncationDropsEntireTail(t *testing.T) {
	a := scopedRule("a", rules.ScopeProject, 90)
	a.Content = strings.Repeat("x", 60)
	b := scopedRule("b", rules.ScopeProject, 80)
	b.Content = strings.Repeat("x", 60)
	c := scopedRule("c", rules.ScopeProject, 70)
	c.Content = strings.Repeat("x", 10)

	final, _ := Merge(asMatches(a, b, c), 100)

	// b exceeds the budget, so c is dropped too even though it would fit.
	want := []string{"a"}
	if !reflect.DeepEqual(finalNames(final), want) {
		t.Errorf("final = %v, want %v", finalNames(final), want)
	}
}

func TestMerge_ExactFit(t *testing.T) {
	rule := scopedRule("exact", rules.ScopeProject, 50)
	rule.Content = strings.Repeat("x", 100)

	final, _ := Merge(asMatches(rule), 100)

	if len(final) != 1 {
		t.Errorf("len(final) = %d, want 1 when content exactly fits the cap", len(final))
	}
}

func TestMerge_Deterministic(t *testing.T) {
	matches := asMatches(
		scopedRule("b", rules.ScopeUser, 50),
		scopedRule("a", rules.ScopeProject, 20),
		scopedRule("c", rules.ScopeGlobal, 90),
		scopedRule("a", rules.ScopeUser, 90),
	)

	first, firstConflicts := Merge(matches, 0)
	for i := 0; i < 10; i++ {
		again, againConflicts := Merge(matches, 0)
		if !reflect.DeepEqual(finalNames(first), finalNames(again)) {
			t.Fatalf("Merge() order differs between runs: %v vs %v", finalNames(first), finalNames(again))
		}
		if !reflect.DeepEqual(firstConflicts, againConflicts) {
			t.Fatal("Merge() conflicts differ between runs")
		}
	}
}

func TestMerge_Empty(t *testing.T) {
	final, conflicts := Merge(nil, 0)
	if len(final) != 0 || len(conflicts) != 0 {
		t.Errorf("Merge(nil) = %v, %v, want empty", final, conflicts)
	}
}

func TestTotalContentSize(t *testing.T) {
	a := scopedRule("a", rules.ScopeProject, 50)
	a.Content = "1234"
	b := scopedRule("b", rules.ScopeProject, 50)
	b.Content = "56"

	if got := TotalContentSize([]*rules.Rule{a, b}); got != 6 {
		t.Errorf("TotalContentSize() = %d, want 6", got)
	}
}

func TestBuildPromptSection(t *testing.T) {
	rule := scopedRule("code-style", rules.ScopeProject, 50)
	rule.Description = "style conventions"
	rule.Content = "Use tabs.\n"

	got := BuildPromptSection([]*rules.Rule{rule})

	if !strings.HasPrefix(got, SectionHeader+"\n\n") {
		t.Errorf("output missing section header: %q", got)
	}
	if !strings.Contains(got, "## code-style\n") {
		t.Errorf("output missing rule heading: %q", got)
	}
	if !strings.Contains(got, "*style conventions*\n") {
		t.Errorf("output missing description line: %q", got)
	}
	if !strings.Contains(got, "Use tabs.\n") {
		t.Errorf("output missing content: %q", got)
	}
}

func TestBuildPromptSection_Empty(t *testing.T) {
	if got := BuildPromptSection(nil); got != "" {
		t.Errorf("BuildPromptSection(nil) = %q, want empty string", got)
	}
}

func TestBuildPromptSection_TerminatesContent(t *testing.T) {
	rule := scopedRule("no-newline", rules.ScopeProject, 50)
	rule.Content = "content without trailing newline"

	got := BuildPromptSection([]*rules.Rule{rule})

	if !strings.HasSuffix(got, "content without trailing newline\n\n") {
		t.Errorf("content not newline-terminated: %q", got)
	}
}

func TestBuildPromptSection_Deterministic(t *testing.T) {
	ruleList := []*rules.Rule{
		scopedRule("a", rules.ScopeProject, 50),
		scopedRule("b", rules.ScopeUser, 50),
	}

	first := BuildPromptSection(ruleList)
	for i := 0; i < 5; i++ {
		if BuildPromptSection(ruleList) != first {
			t.Fatal("BuildPromptSection() output differs between runs")
		}
	}
}
