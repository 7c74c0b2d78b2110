package emotion

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Annotation keyword sets, separate from the classifier fallback sets: the
// offline annotator distinguishes four named emotions and may report several
// of them per message.
var annotationRules = []struct {
	label    string
	keywords []string
}{
	{"불안", []string{"불안", "초조", "걱정", "긴장", "망했어", "어쩌지", "어떡", "무서"}},
	{"분노", []string{"화나", "짜증", "빡쳐", "싫어", "열받", "젠장", "싸가지", "미친"}},
	{"슬픔", []string{"슬퍼", "우울", "눈물", "힘들", "속상", "절망", "서럽"}},
	{"행복", []string{"행복", "좋아", "좋다", "기쁨", "신나", "고마워", "사랑"}},
}

const annotationDefaultLabel = "중립"

// Annotate detects every emotion whose keyword set matches the text. Labels
// are joined with "/" in table order; per label only the first matching
// keyword is reported. Text matching nothing is 중립 with no keywords.
func Annotate(text string) (string, []string) {
	var labels []string
	keywords := []string{}
	for _, rule := range annotationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				labels = append(labels, rule.label)
				keywords = append(keywords, kw)
				break
			}
		}
	}
	if len(labels) == 0 {
		return annotationDefaultLabel, keywords
	}
	return strings.Join(labels, "/"), keywords
}

// AnnotateCSV reads an exported chat CSV and writes it back out with emotion
// and keywords columns appended. Messages are read from the user_message
// column; rows whose user_id is 총평 are summary rows and are dropped.
func AnnotateCSV(inPath, outPath string) error {
	fin, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open input csv: %w", err)
	}
	defer fin.Close()

	reader := csv.NewReader(fin)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}

	idIdx, msgIdx := -1, -1
	for i, name := range header {
		switch name {
		case "user_id":
			idIdx = i
		case "user_message":
			msgIdx = i
		}
	}

	fout, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output csv: %w", err)
	}
	defer fout.Close()

	writer := csv.NewWriter(fout)
	if err := writer.Write(append(append([]string(nil), header...), "emotion", "keywords")); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read csv row: %w", err)
		}
		if idIdx >= 0 && len(row) > idIdx && row[idIdx] == "총평" {
			continue
		}

		message := ""
		if msgIdx >= 0 && len(row) > msgIdx {
			message = row[msgIdx]
		}
		label, keywords := Annotate(message)

		annotated := append(append([]string(nil), row...), label, strings.Join(keywords, " "))
		if err := writer.Write(annotated); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush output csv: %w", err)
	}
	return nil
}
