package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"duskhollow/server/internal/graph"
	"duskhollow/server/internal/loader"
	"duskhollow/server/internal/tasks"
)

// graphcheck validates authored graph documents without starting the
// server, so designers can lint content before committing it.
func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: graphcheck <document.json> [...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	failed := false
	for _, path := range flag.Args() {
		if !checkFile(path) {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func checkFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return false
	}

	tpl, msgs, err := loader.Load(data)
	if err == nil {
		msgs = append(msgs, tasks.LintBindings(tpl)...)
	}
	for _, m := range msgs {
		fmt.Printf("%s: %s\n", path, m)
	}
	if err != nil {
		if !errors.Is(err, loader.ErrInvalidTemplate) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		}
		return false
	}

	warnings := 0
	for _, m := range msgs {
		if m.Severity == graph.SeverityWarning {
			warnings++
		}
	}
	fmt.Printf("%s: ok (%d nodes, %d variables, %d warnings)\n", path, len(tpl.Nodes), len(tpl.Variables), warnings)
	return true
}
