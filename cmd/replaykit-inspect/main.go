// Package main implements the replaykit-inspect binary, a debugging tool that
// decodes spooled segment files and prints their records as JSON lines.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/replaykit/replaykit/internal/writer"
	"github.com/replaykit/replaykit/pkg/types"
)

func main() {
	summary := flag.Bool("summary", false, "print one summary line per segment instead of full records")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: replaykit-inspect [-summary] <segment file or spool dir>...")
		os.Exit(2)
	}

	exitCode := 0
	for _, arg := range flag.Args() {
		if err := inspectPath(arg, *summary); err != nil {
			log.Printf("%s: %v", arg, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func inspectPath(path string, summary bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return inspectFile(path, summary)
	}
	return filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() || filepath.Ext(p) != ".seg" {
			return nil
		}
		if err := inspectFile(p, summary); err != nil {
			log.Printf("%s: %v", p, err)
		}
		return nil
	})
}

func inspectFile(path string, summary bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	records, err := writer.DecodeSegment(data)
	if err != nil {
		return fmt.Errorf("failed to decode segment: %w", err)
	}
	if summary {
		printSummary(path, records, int64(len(data)))
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(path string, records []types.Record, compressedBytes int64) {
	var full, incremental, meta int
	for _, rec := range records {
		switch rec.Type {
		case types.RecordTypeFull:
			full++
		case types.RecordTypeIncremental:
			incremental++
		case types.RecordTypeMeta:
			meta++
		}
	}
	start, end := int64(0), int64(0)
	view := ""
	if len(records) > 0 {
		start = records[0].Timestamp
		end = records[len(records)-1].Timestamp
		view = records[0].ViewID
	}
	fmt.Printf("%s view=%s records=%d (full=%d incremental=%d meta=%d) span=%dms compressed=%dB\n",
		filepath.Base(path), view, len(records), full, incremental, meta, end-start, compressedBytes)
}
