package main

import (
	"flag"
	"log"

	emotion "github.com/maumchat/backend/internal/analysis/emotion"
)

// Offline annotator: tags an exported chat CSV with the detected emotions
// and the keywords that triggered them, one annotated CSV out per run.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		log.Fatal("usage: emotionannotator <input.csv> <output.csv>")
	}

	in, out := flag.Arg(0), flag.Arg(1)
	if err := emotion.AnnotateCSV(in, out); err != nil {
		log.Fatalf("failed to annotate %s: %v", in, err)
	}
	log.Printf("wrote annotated rows to %s", out)
}
