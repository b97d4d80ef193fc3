// Command mixerlink-log views and analyzes protocol capture files.
//
// Capture files are created by running mixerlink-monitor with the
// -log-file flag.
//
// Usage:
//
//	mixerlink-log <command> [flags] <file.mlog>
//
// Commands:
//
//	view     View a capture in human-readable format
//	stats    Show statistics about a capture
//	replay   Re-run captured chunks through the decode pipeline
//
// Examples:
//
//	# View all events
//	mixerlink-log view show.mlog
//
//	# View only decoded parameters
//	mixerlink-log view -category parameter show.mlog
//
//	# Decode the raw byte stream again, e.g. after a profile fix
//	mixerlink-log replay -model sq show.mlog
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/log"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/midi"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/nrpn"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/profile"
)

const usage = `mixerlink-log - protocol capture analyzer

Usage:
  mixerlink-log <command> [flags] <file.mlog>

Commands:
  view     View a capture in human-readable format
  stats    Show statistics about a capture
  replay   Re-run captured chunks through the decode pipeline

Use "mixerlink-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "view":
		err = runView(args)
	case "stats":
		err = runStats(args)
	case "replay":
		err = runReplay(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// forEachEvent streams every event of a capture through fn.
func forEachEvent(path string, fn func(log.Event) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := log.NewDecoder(f)
	for {
		var ev log.Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decoding capture: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	category := fs.String("category", "", "Filter by category (chunk, state, parameter, poll, error)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: mixerlink-log view [flags] <file.mlog>")
	}

	return forEachEvent(fs.Arg(0), func(ev log.Event) error {
		if *category != "" && !strings.EqualFold(ev.Category.String(), *category) {
			return nil
		}
		if *direction != "" && !strings.EqualFold(ev.Direction.String(), *direction) {
			return nil
		}
		printEvent(ev)
		return nil
	})
}

func printEvent(ev log.Event) {
	ts := ev.Timestamp.Format("15:04:05.000000")
	switch {
	case ev.Chunk != nil:
		note := ""
		if ev.Chunk.Truncated {
			note = " (truncated)"
		}
		fmt.Printf("%s %-4s CHUNK %d bytes%s\n", ts, ev.Direction, ev.Chunk.Size, note)
	case ev.StateChange != nil:
		fmt.Printf("%s      STATE %s -> %s", ts, ev.StateChange.OldState, ev.StateChange.NewState)
		if ev.StateChange.Reason != "" {
			fmt.Printf(" (%s)", ev.StateChange.Reason)
		}
		fmt.Println()
	case ev.Parameter != nil:
		fmt.Printf("%s %-4s PARAM ch %d %s = %s\n", ts, ev.Direction,
			ev.Parameter.Channel+1, ev.Parameter.Identity, ev.Parameter.Value)
	case ev.Poll != nil:
		fmt.Printf("%s %-4s POLL batch %d, %d requests, %d bytes\n", ts, ev.Direction,
			ev.Poll.Batch, ev.Poll.Requests, ev.Poll.Bytes)
	case ev.Error != nil:
		fmt.Printf("%s      ERROR %s", ts, ev.Error.Message)
		if ev.Error.Context != "" {
			fmt.Printf(" (%s)", ev.Error.Context)
		}
		fmt.Println()
	default:
		fmt.Printf("%s %-4s %s\n", ts, ev.Direction, ev.Category)
	}
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: mixerlink-log stats <file.mlog>")
	}

	var (
		events     int
		byCategory = make(map[string]int)
		chunkBytes int
		conns      = make(map[string]struct{})
	)
	err := forEachEvent(fs.Arg(0), func(ev log.Event) error {
		events++
		byCategory[ev.Category.String()]++
		if ev.Chunk != nil {
			chunkBytes += ev.Chunk.Size
		}
		if ev.ConnectionID != "" {
			conns[ev.ConnectionID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("events:      %d\n", events)
	fmt.Printf("connections: %d\n", len(conns))
	fmt.Printf("chunk bytes: %d\n", chunkBytes)
	for _, cat := range []string{"CHUNK", "STATE", "PARAMETER", "POLL", "ERROR"} {
		if n := byCategory[cat]; n > 0 {
			fmt.Printf("  %-10s %d\n", strings.ToLower(cat), n)
		}
	}
	return nil
}

// runReplay pushes every captured inbound chunk through the parser,
// assembler and profile again. Useful after a profile change: the
// capture shows what the new decode tables would have produced.
func runReplay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	model := fs.String("model", "", "Console model for parameter decoding (sq, qu)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: mixerlink-log replay -model <model> <file.mlog>")
	}

	prof, err := profile.ForModel(profile.Model(*model))
	if err != nil {
		return err
	}

	parser := midi.NewStreamParser()
	assembler := nrpn.NewAssembler()

	return forEachEvent(fs.Arg(0), func(ev log.Event) error {
		if ev.Chunk == nil || ev.Direction != log.DirectionIn {
			return nil
		}
		for _, p := range assembler.FeedAll(parser.Feed(ev.Chunk.Data)) {
			ch, id, ok := prof.DecodeParameter(p)
			if !ok {
				fmt.Printf("out of range: %s\n", p)
				continue
			}
			v := prof.ConvertValue(p.Value(), id)
			fmt.Printf("ch %2d %-20s %s\n", ch+1, id, v.Format())
		}
		return nil
	})
}
