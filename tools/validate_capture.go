//go:build ignore

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/muurk/controlpet/internal/protocol"
	"github.com/muurk/controlpet/internal/simulator"
)

// Statistics tracks decoding results
type Statistics struct {
	TotalFiles     int
	TotalRecords   int
	TotalMessages  int
	DecodeSuccess  int
	DecodeFailure  int
	Discarded      int
	Commands       map[string]int
	Directions     map[string]int
	FailedMessages []FailedMessage
}

// FailedMessage stores information about a decoding failure
type FailedMessage struct {
	File       string
	MessageNum int
	Frame      string
	Error      string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate_capture <directory-or-file>")
		fmt.Println("Example: validate_capture captures/")
		fmt.Println("         validate_capture capture-20261017-104043.jsonl")
		os.Exit(1)
	}

	path := os.Args[1]

	stats := Statistics{
		Commands:   make(map[string]int),
		Directions: make(map[string]int),
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	var files []string
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.jsonl"))
		if err != nil {
			fmt.Printf("Error finding JSONL files: %v\n", err)
			os.Exit(1)
		}
		if len(files) == 0 {
			fmt.Printf("No JSONL files found in %s\n", path)
			os.Exit(1)
		}
	} else {
		files = []string{path}
	}

	fmt.Printf("=== ControlPet Capture Validator ===\n")
	fmt.Printf("Files to process: %d\n\n", len(files))

	for _, file := range files {
		processFile(file, &stats)
	}

	printStatistics(&stats)
	if stats.DecodeFailure > 0 {
		os.Exit(2)
	}
}

// processFile re-frames each captured payload per connection and direction,
// the same way the client reads its socket, and decodes every frame
func processFile(filename string, stats *Statistics) {
	stats.TotalFiles++

	f, err := os.Open(filename)
	if err != nil {
		fmt.Printf("Error opening file %s: %v\n", filename, err)
		return
	}
	defer f.Close()

	records, err := simulator.ReadCapture(f)
	if err != nil {
		fmt.Printf("Error reading capture %s: %v\n", filename, err)
		return
	}

	framers := make(map[string]*protocol.Framer)
	for _, rec := range records {
		stats.TotalRecords++
		stats.Directions[rec.Direction]++

		payload, err := rec.Payload()
		if err != nil {
			stats.fail(filename, rec.MessageNum, rec.PayloadHex, fmt.Errorf("hex decode error: %w", err))
			continue
		}

		key := rec.RemoteAddr + "/" + rec.Direction
		framer, ok := framers[key]
		if !ok {
			framer = protocol.NewFramer()
			framers[key] = framer
		}

		for _, frame := range framer.Feed(payload) {
			stats.TotalMessages++
			msg, err := protocol.Decode(frame)
			if err != nil {
				stats.fail(filename, rec.MessageNum, string(frame), err)
				continue
			}
			stats.DecodeSuccess++
			stats.Commands[msg.Command]++
		}
	}

	for _, framer := range framers {
		stats.Discarded += framer.Discarded()
	}
}

func (s *Statistics) fail(file string, num int, frame string, err error) {
	s.DecodeFailure++
	s.FailedMessages = append(s.FailedMessages, FailedMessage{
		File:       file,
		MessageNum: num,
		Frame:      frame,
		Error:      err.Error(),
	})
}

func printStatistics(stats *Statistics) {
	fmt.Printf("\n========================================\n")
	fmt.Printf("VALIDATION RESULTS\n")
	fmt.Printf("========================================\n\n")

	fmt.Printf("Files Processed:    %d\n", stats.TotalFiles)
	fmt.Printf("Captured Records:   %d\n", stats.TotalRecords)
	fmt.Printf("Framed Messages:    %d\n", stats.TotalMessages)
	fmt.Printf("Decode Success:     %d (%.2f%%)\n", stats.DecodeSuccess, percent(stats.DecodeSuccess, stats.TotalMessages))
	fmt.Printf("Decode Failure:     %d (%.2f%%)\n", stats.DecodeFailure, percent(stats.DecodeFailure, stats.TotalMessages))
	fmt.Printf("Discarded Bytes:    %d\n", stats.Discarded)

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("COMMAND DISTRIBUTION\n")
	fmt.Printf("----------------------------------------\n")
	commands := make([]string, 0, len(stats.Commands))
	for cmd := range stats.Commands {
		commands = append(commands, cmd)
	}
	sort.Strings(commands)
	for _, cmd := range commands {
		count := stats.Commands[cmd]
		fmt.Printf("%-14s %d (%.2f%%)\n", cmd, count, percent(count, stats.DecodeSuccess))
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("DIRECTIONS\n")
	fmt.Printf("----------------------------------------\n")
	for dir, count := range stats.Directions {
		fmt.Printf("%-14s %d records\n", dir, count)
	}

	if len(stats.FailedMessages) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("DECODE FAILURES (%d total)\n", len(stats.FailedMessages))
		fmt.Printf("----------------------------------------\n")

		maxShow := 10
		if len(stats.FailedMessages) > maxShow {
			fmt.Printf("(Showing first %d of %d failures)\n\n", maxShow, len(stats.FailedMessages))
		}

		for i, failed := range stats.FailedMessages {
			if i >= maxShow {
				break
			}
			fmt.Printf("\nFailure #%d:\n", i+1)
			fmt.Printf("  File: %s (msg #%d)\n", failed.File, failed.MessageNum)
			fmt.Printf("  Error: %s\n", failed.Error)
			preview := failed.Frame
			if len(preview) > 80 {
				preview = preview[:80] + "..."
			}
			fmt.Printf("  Frame: %q\n", preview)
		}
	}

	fmt.Printf("\n========================================\n")
	if stats.DecodeFailure == 0 {
		fmt.Printf("✅ SUCCESS: All messages decoded\n")
	} else {
		fmt.Printf("⚠️  ISSUES FOUND: %d messages failed to decode\n", stats.DecodeFailure)
	}
	fmt.Printf("========================================\n")
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
