package main

import (
	"flag"
	"log"
	"strings"

	emotion "github.com/maumchat/backend/internal/analysis/emotion"
)

// Offline trainer: reads labeled CSV datasets and rewrites the rule table
// consumed by the emotion matcher at startup.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	out := flag.String("out", "emotion_rules.json", "output path for the trained rule table")
	topN := flag.Int("top", emotion.DefaultTopN, "keywords kept per emotion label")

	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		log.Fatal("pass at least one labeled CSV dataset, e.g. ruletrainer -out rules.json data/train.csv")
	}
	if *topN < 1 {
		log.Fatal("-top must be at least 1")
	}

	table := emotion.Train(paths, *topN)
	if table.Len() == 0 {
		log.Fatalf("no usable rows found in %s", strings.Join(paths, ", "))
	}

	if err := emotion.SaveRules(*out, table); err != nil {
		log.Fatalf("failed to write rule table: %v", err)
	}

	for _, label := range table.Labels() {
		keywords, _ := table.Keywords(label)
		log.Printf("%s: %v", label, keywords)
	}
	log.Printf("wrote %d labels to %s", table.Len(), *out)
}
