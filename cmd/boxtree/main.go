// boxtree — CLI entry point
//
// Usage:
//
//	boxtree <command> [flags] <file>
//
// Commands:
//
//	dump     Print a file's box/element tree
//	info     Print the file-level summary fields
//	version  Print version information
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tmelisma/boxtree/bmff"
	"github.com/tmelisma/boxtree/core"
	"github.com/tmelisma/boxtree/ebml"
)

const versionString = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "dump":
		runDump(args)
	case "info":
		runInfo(args)
	case "version", "--version", "-v":
		fmt.Printf("boxtree v%s\n", versionString)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`boxtree — a BMFF/EBML box tree inspector

Usage:
  boxtree <command> [flags] <file>

Commands:
  dump     Print a file's box/element tree
  info     Print the file-level summary fields
  version  Print version information`)
}

func runDump(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	format := fs.String("format", "auto", "bmff, ebml, or auto (detect from extension)")
	metadata := fs.Bool("metadata", true, "decode iTunes/Matroska tag metadata")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "dump: missing file argument")
		os.Exit(1)
	}
	path := fs.Arg(0)

	kind := *format
	if kind == "auto" {
		kind = detectFormat(path)
	}

	switch kind {
	case "bmff":
		f, err := bmff.Open(path)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		if _, err := bmff.Parse(f, bmff.Options{ParseMetadata: *metadata}); err != nil {
			fatal(err)
		}
		printTree(f.Root, 0)
	case "ebml":
		f, err := ebml.Open(path)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		if _, err := ebml.Parse(f, ebml.Options{ParseMetadata: *metadata}); err != nil {
			fatal(err)
		}
		printTree(f.Root, 0)
	default:
		fmt.Fprintf(os.Stderr, "dump: cannot determine format for %s (use -format)\n", path)
		os.Exit(1)
	}
}

func runInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	format := fs.String("format", "auto", "bmff, ebml, or auto (detect from extension)")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "info: missing file argument")
		os.Exit(1)
	}
	path := fs.Arg(0)

	kind := *format
	if kind == "auto" {
		kind = detectFormat(path)
	}

	switch kind {
	case "bmff":
		f, err := bmff.Open(path)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		sum, err := bmff.Parse(f, bmff.Options{ParseMetadata: true})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("format: bmff\n")
		fmt.Printf("size: %d\n", f.Size)
		if sum.FTYP != nil {
			fmt.Printf("ftyp: present (synthetic=%v)\n", sum.FTYP.Synthetic)
		}
		fmt.Printf("time_scale: %d\n", sum.TimeScale)
		fmt.Printf("itunes_metadata: %v\n", sum.ItunesMetadata != nil)
	case "ebml":
		f, err := ebml.Open(path)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		docs, err := ebml.Parse(f, ebml.Options{ParseMetadata: true})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("format: ebml\n")
		fmt.Printf("size: %d\n", f.Size)
		fmt.Printf("documents: %d\n", len(docs))
		for i, d := range docs {
			fmt.Printf("  [%d] doctype=%s version=%d read_version=%d\n", i, d.DocType, d.DocTypeVersion, d.DocTypeReadVersion)
		}
	default:
		fmt.Fprintf(os.Stderr, "info: cannot determine format for %s (use -format)\n", path)
		os.Exit(1)
	}
}

func detectFormat(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".mkv"), strings.HasSuffix(lower, ".webm"), strings.HasSuffix(lower, ".ebml"):
		return "ebml"
	case strings.HasSuffix(lower, ".mp4"), strings.HasSuffix(lower, ".m4a"), strings.HasSuffix(lower, ".heic"),
		strings.HasSuffix(lower, ".heif"), strings.HasSuffix(lower, ".mov"):
		return "bmff"
	default:
		return ""
	}
}

func printTree(n *core.Node, depth int) {
	if n == nil {
		return
	}
	if depth > 0 || n.Synthetic {
		indent := strings.Repeat("  ", depth)
		fmt.Printf("%s0x%X offset=%d size=%d payload_kind=%d\n", indent, n.TypeID, n.Offset, n.Size, n.Payload.Kind)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		printTree(c, depth+1)
	}
}

func fatal(err error) {
	if kind, ok := err.(*core.FormatError); ok {
		fmt.Fprintf(os.Stderr, "boxtree: %s\n", kind.Kind)
	} else {
		fmt.Fprintf(os.Stderr, "boxtree: %v\n", err)
	}
	os.Exit(1)
}
