package emotion

import (
	"encoding/csv"
	"errors"
	"io"
	"log"
	"os"
	"regexp"
	"sort"
)

var errTooFewColumns = errors.New("csv has fewer than two columns")

// DefaultTopN caps how many keywords are kept per label when training.
const DefaultTopN = 10

// tokenPattern keeps contiguous runs of Korean syllables or Latin letters;
// digits, punctuation and symbols are discarded.
var tokenPattern = regexp.MustCompile(`[가-힣A-Za-z]+`)

// columnPairs lists known (message, label) header name pairs in priority
// order. Files matching none of them fall back to their first two columns.
var columnPairs = [][2]string{
	{"message", "emotion"},
	{"text", "label"},
}

// Tokenize splits free text into matcher-friendly tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

// labelCounter accumulates token frequencies while remembering the order in
// which tokens were first seen, so ranking ties resolve deterministically.
type labelCounter struct {
	counts map[string]int
	order  []string
}

func newLabelCounter() *labelCounter {
	return &labelCounter{counts: make(map[string]int)}
}

func (c *labelCounter) add(token string) {
	if _, seen := c.counts[token]; !seen {
		c.order = append(c.order, token)
	}
	c.counts[token]++
}

// merge folds another counter into this one, keeping first-seen order for
// tokens this counter has not met yet.
func (c *labelCounter) merge(other *labelCounter) {
	for _, token := range other.order {
		if _, seen := c.counts[token]; !seen {
			c.order = append(c.order, token)
		}
		c.counts[token] += other.counts[token]
	}
}

// top returns the n most frequent tokens, descending by count, ties broken
// by first-encountered order.
func (c *labelCounter) top(n int) []string {
	ranked := append([]string(nil), c.order...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return c.counts[ranked[i]] > c.counts[ranked[j]]
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Train mines labeled CSV corpora into a rule table: per emotion label, the
// topN most frequent message tokens. Label order in the resulting table is
// first-encountered order across the corpus. A file that cannot be opened or
// parsed is logged and skipped wholesale; rows read before a mid-file error
// contribute nothing, and one bad corpus never aborts the run.
func Train(paths []string, topN int) *RuleTable {
	if topN <= 0 {
		topN = DefaultTopN
	}

	counters := make(map[string]*labelCounter)
	var labelOrder []string

	for _, path := range paths {
		fileCounters, fileOrder, err := countFile(path)
		if err != nil {
			log.Printf("[trainer] skipping %s: %v", path, err)
			continue
		}
		for _, label := range fileOrder {
			counter, ok := counters[label]
			if !ok {
				counter = newLabelCounter()
				counters[label] = counter
				labelOrder = append(labelOrder, label)
			}
			counter.merge(fileCounters[label])
		}
	}

	table := NewRuleTable()
	for _, label := range labelOrder {
		table.Add(label, counters[label].top(topN))
	}
	return table
}

// countFile counts one CSV file into its own set of per-label counters, so a
// file that errors mid-read is discarded in full.
func countFile(path string) (map[string]*labelCounter, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, err
	}

	msgIdx, emoIdx, err := resolveColumns(header)
	if err != nil {
		return nil, nil, err
	}

	counters := make(map[string]*labelCounter)
	var labelOrder []string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if len(row) <= msgIdx {
			continue
		}

		label := LabelNeutral
		if len(row) > emoIdx && row[emoIdx] != "" {
			label = row[emoIdx]
		}

		for _, token := range Tokenize(row[msgIdx]) {
			counter, ok := counters[label]
			if !ok {
				counter = newLabelCounter()
				counters[label] = counter
				labelOrder = append(labelOrder, label)
			}
			counter.add(token)
		}
	}
	return counters, labelOrder, nil
}

// resolveColumns picks the message and label column indices, preferring the
// known header name pairs and falling back to the first two columns.
func resolveColumns(header []string) (msgIdx, emoIdx int, err error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	for _, pair := range columnPairs {
		m, okM := index[pair[0]]
		e, okE := index[pair[1]]
		if okM && okE {
			return m, e, nil
		}
	}

	if len(header) < 2 {
		return 0, 0, errTooFewColumns
	}
	return 0, 1, nil
}
