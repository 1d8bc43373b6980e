package domain

import (
	"fmt"
	"strings"
	"unicode"

	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// Heuristic suggestion priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// HeuristicSuggester derives a rule-based fix hint for an issue. It is the
// fallback offered when no generated proposal is available.
type HeuristicSuggester interface {
	Suggest(issue m.Issue) m.HeuristicSuggestion
}

type elementRule struct {
	match       []string
	kind        string
	interactive bool
}

// Matched against the lowercased element type in order; the first rule with
// any substring hit wins, so specific classes come before generic ones.
var elementRules = []elementRule{
	{match: []string{"iconbutton", "imagebutton", "floatingactionbutton", "fab"}, kind: "Button", interactive: true},
	{match: []string{"checkbox"}, kind: "Checkbox", interactive: true},
	{match: []string{"radio"}, kind: "Radio button", interactive: true},
	{match: []string{"switch", "toggle"}, kind: "Toggle", interactive: true},
	{match: []string{"textfield", "edittext", "textinput", "input"}, kind: "Text field", interactive: true},
	{match: []string{"slider", "seekbar"}, kind: "Slider", interactive: true},
	{match: []string{"button", "inkwell", "gesturedetector", "touchable", "pressable"}, kind: "Button", interactive: true},
	{match: []string{"image", "icon", "avatar", "svg"}, kind: "Image"},
	{match: []string{"text", "label"}, kind: "Text"},
}

type keywordRule struct {
	keywords []string
	altText  string
}

var keywordRules = []keywordRule{
	{keywords: []string{"search", "magnifier"}, altText: "Search"},
	{keywords: []string{"close", "dismiss"}, altText: "Close"},
	{keywords: []string{"back", "arrow_back", "navigate up"}, altText: "Go back"},
	{keywords: []string{"menu", "hamburger", "drawer"}, altText: "Open menu"},
	{keywords: []string{"share"}, altText: "Share"},
	{keywords: []string{"play"}, altText: "Play"},
	{keywords: []string{"pause"}, altText: "Pause"},
	{keywords: []string{"like", "favorite", "heart"}, altText: "Like"},
	{keywords: []string{"settings", "gear"}, altText: "Settings"},
	{keywords: []string{"profile", "account"}, altText: "Profile"},
}

var labelPrefixes = []string{"ic_", "btn_", "img_", "iv_", "ib_"}

type heuristicSuggester struct{}

// NewHeuristicSuggester constructs the default rule-based suggester.
func NewHeuristicSuggester() HeuristicSuggester {
	return &heuristicSuggester{}
}

func (h *heuristicSuggester) Suggest(issue m.Issue) m.HeuristicSuggestion {
	rule, known := classifyElement(issue.ElementType)
	priority := suggestionPriority(issue.Severity, rule.interactive)

	if alt := humanizeLabel(issue.Label); alt != "" {
		return m.HeuristicSuggestion{
			AltText:  alt,
			Priority: priority,
			Reason:   fmt.Sprintf("derived from element label %q", issue.Label),
		}
	}

	if alt, ok := matchKeywords(issue.Description + " " + issue.ElementType); ok {
		return m.HeuristicSuggestion{
			AltText:  alt,
			Priority: priority,
			Reason:   "matched an action keyword in the issue description",
		}
	}

	if known {
		return m.HeuristicSuggestion{
			AltText:  rule.kind,
			Priority: priority,
			Reason:   fmt.Sprintf("default label for %s elements", strings.ToLower(rule.kind)),
		}
	}

	return m.HeuristicSuggestion{
		AltText:  "UI element",
		Priority: priority,
		Reason:   "no rule matched; generic label",
	}
}

func classifyElement(elementType string) (elementRule, bool) {
	lower := strings.ToLower(elementType)
	if lower == "" {
		return elementRule{}, false
	}

	if i := strings.LastIndex(lower, "."); i >= 0 {
		lower = lower[i+1:]
	}

	for _, rule := range elementRules {
		for _, needle := range rule.match {
			if strings.Contains(lower, needle) {
				return rule, true
			}
		}
	}

	return elementRule{}, false
}

func suggestionPriority(severity m.Severity, interactive bool) string {
	switch {
	case interactive && severity == m.SeverityError:
		return PriorityHigh
	case interactive || severity == m.SeverityError || severity == m.SeverityWarning:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func matchKeywords(text string) (string, bool) {
	lower := strings.ToLower(text)

	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if containsWord(lower, kw) {
				return rule.altText, true
			}
		}
	}

	return "", false
}

// containsWord reports whether kw occurs in s as a whole word.
func containsWord(s, kw string) bool {
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], kw)
		if i < 0 {
			return false
		}

		pos := offset + i
		end := pos + len(kw)

		if (pos == 0 || !isWordRune(rune(s[pos-1]))) && (end == len(s) || !isWordRune(rune(s[end]))) {
			return true
		}

		offset = pos + 1
	}

	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// humanizeLabel turns identifiers like "ic_arrow_back" into "Arrow back".
func humanizeLabel(label string) string {
	label = strings.TrimSpace(label)

	lower := strings.ToLower(label)
	for _, prefix := range labelPrefixes {
		if strings.HasPrefix(lower, prefix) {
			label = label[len(prefix):]
			break
		}
	}

	label = strings.Join(strings.FieldsFunc(label, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	}), " ")

	if label == "" {
		return ""
	}

	runes := []rune(label)
	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}
