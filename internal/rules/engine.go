// Package rules contains the pure keyword-matching logic behind auto-tagging
// and auto-prioritization. Evaluation is separated from persistence so the
// classification behavior is testable without a database.
package rules

import (
	"sort"
	"strings"

	"github.com/deskhive/deskhive/internal/models"
)

// EvaluateTags returns the tag ids of every active rule whose keywords match
// the fields it is configured to check. All matching rules apply; this is
// deliberately not first-wins, unlike priority evaluation. Duplicate tag ids
// across rules are collapsed.
func EvaluateTags(ruleSet []models.AutoTagRule, subject, body string) []int64 {
	seen := make(map[int64]struct{})
	var tagIDs []int64
	for _, rule := range ruleSet {
		if !rule.Active {
			continue
		}
		if !rule.MatchSubject && !rule.MatchBody {
			continue
		}
		text := matchText(rule.MatchSubject, rule.MatchBody, subject, body)
		if !anyKeyword(rule.Keywords, text) {
			continue
		}
		if _, ok := seen[rule.TagID]; ok {
			continue
		}
		seen[rule.TagID] = struct{}{}
		tagIDs = append(tagIDs, rule.TagID)
	}
	return tagIDs
}

// EvaluatePriority scans active rules in descending order of target severity
// and returns the first matching rule's priority. Rules with mode "all"
// require every keyword; any other mode requires at least one. The boolean is
// false when no rule matches.
func EvaluatePriority(ruleSet []models.AutoPriorityRule, subject, body string) (models.TicketPriority, bool) {
	ordered := make([]models.AutoPriorityRule, 0, len(ruleSet))
	for _, rule := range ruleSet {
		if rule.Active {
			ordered = append(ordered, rule)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority.Rank() > ordered[j].Priority.Rank()
	})
	text := strings.ToLower(subject + " " + body)
	for _, rule := range ordered {
		if len(rule.Keywords) == 0 {
			continue
		}
		matched := false
		if rule.MatchMode == models.MatchAll {
			matched = allKeywords(rule.Keywords, text)
		} else {
			matched = anyKeyword(rule.Keywords, text)
		}
		if matched {
			return rule.Priority, true
		}
	}
	return "", false
}

func matchText(matchSubject, matchBody bool, subject, body string) string {
	var parts []string
	if matchSubject {
		parts = append(parts, subject)
	}
	if matchBody {
		parts = append(parts, body)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func anyKeyword(keywords []string, loweredText string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(loweredText, kw) {
			return true
		}
	}
	return false
}

func allKeywords(keywords []string, loweredText string) bool {
	matchedAny := false
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if !strings.Contains(loweredText, kw) {
			return false
		}
		matchedAny = true
	}
	return matchedAny
}
