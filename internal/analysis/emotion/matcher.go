package emotion

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Fallback sentiment classes returned when no trained rule matches.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelMixed    = "mixed"
	LabelNeutral  = "neutral"
)

// Fixed two-class keyword sets used when no trained table is loaded or the
// best trained label matches nothing. Substring match, no stemming.
var (
	positiveKeywords = []string{"행복", "좋아", "기쁨", "즐겁", "사랑", "감사"}
	negativeKeywords = []string{"슬퍼", "우울", "싫어", "화나", "짜증", "불안"}
)

// RuleTable maps emotion labels to keyword lists ordered most-frequent-first.
// Label order and keyword order are both significant: classification walks
// labels in insertion order and reports matched keywords in list order, so
// identical input always produces identical output. A loaded table is
// immutable during serving; replace it wholesale to pick up retrained rules.
type RuleTable struct {
	rules *orderedmap.OrderedMap[string, []string]
}

// NewRuleTable returns an empty table. Classify on an empty table uses only
// the fixed fallback keyword sets.
func NewRuleTable() *RuleTable {
	return &RuleTable{rules: orderedmap.New[string, []string]()}
}

// Add appends a label with its ranked keywords, replacing any previous entry
// for the same label without changing its position.
func (t *RuleTable) Add(label string, keywords []string) {
	t.rules.Set(label, append([]string(nil), keywords...))
}

// Len reports the number of labels in the table.
func (t *RuleTable) Len() int {
	if t == nil || t.rules == nil {
		return 0
	}
	return t.rules.Len()
}

// Keywords returns the ranked keyword list for a label.
func (t *RuleTable) Keywords(label string) ([]string, bool) {
	if t == nil || t.rules == nil {
		return nil, false
	}
	kws, ok := t.rules.Get(label)
	return kws, ok
}

// Labels returns the labels in table order.
func (t *RuleTable) Labels() []string {
	if t == nil || t.rules == nil {
		return nil
	}
	labels := make([]string, 0, t.rules.Len())
	for pair := t.rules.Oldest(); pair != nil; pair = pair.Next() {
		labels = append(labels, pair.Key)
	}
	return labels
}

// MarshalJSON renders the table as a JSON object whose key order is the
// label order.
func (t *RuleTable) MarshalJSON() ([]byte, error) {
	return t.rules.MarshalJSON()
}

// UnmarshalJSON loads a label -> keywords object, preserving key order.
func (t *RuleTable) UnmarshalJSON(data []byte) error {
	if t.rules == nil {
		t.rules = orderedmap.New[string, []string]()
	}
	return t.rules.UnmarshalJSON(data)
}

// Classify maps a message to an emotion label and the keywords that matched.
// With a loaded table, the label with the most keyword hits wins and ties go
// to the earlier label; when nothing in the table matches (or no table is
// loaded), the fixed positive/negative sets decide between positive,
// negative, mixed and neutral. There is no failure case: unmatched input is
// neutral with no keywords.
func (t *RuleTable) Classify(message string) (string, []string) {
	if t.Len() > 0 {
		bestLabel := ""
		var bestFound []string
		for pair := t.rules.Oldest(); pair != nil; pair = pair.Next() {
			found := matchKeywords(message, pair.Value)
			if len(found) > len(bestFound) {
				bestLabel = pair.Key
				bestFound = found
			}
		}
		if len(bestFound) > 0 {
			return bestLabel, bestFound
		}
	}

	pos := matchKeywords(message, positiveKeywords)
	neg := matchKeywords(message, negativeKeywords)
	switch {
	case len(pos) > 0 && len(neg) == 0:
		return LabelPositive, pos
	case len(neg) > 0 && len(pos) == 0:
		return LabelNegative, neg
	case len(pos) > 0 && len(neg) > 0:
		return LabelMixed, append(pos, neg...)
	default:
		return LabelNeutral, []string{}
	}
}

// matchKeywords returns the keywords contained in message, in keyword-list
// order.
func matchKeywords(message string, keywords []string) []string {
	var found []string
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(message, kw) {
			found = append(found, kw)
		}
	}
	return found
}
