// Command poml compiles a POML source document to its target
// representation (Markdown, HTML, CSV/TSV, JSON, YAML, XML, free text,
// or a multimedia message list), resolving dispatch from the document's
// own attributes unless an explicit writer is requested.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/atlas-foundry/poml-go/poml"
)

// contextVars accumulates repeated "-context KEY=VAL" flags into a
// map, the same flag.Value idiom adnanh/webhook uses for its repeated
// "-header name=value" flag.
type contextVars map[string]any

func (c contextVars) String() string {
	if len(c) == 0 {
		return "KEY=VAL"
	}
	parts := make([]string, 0, len(c))
	for k, v := range c {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ", ")
}

func (c contextVars) Set(value string) error {
	split := strings.SplitN(value, "=", 2)
	if len(split) != 2 {
		return fmt.Errorf("context flag must be in KEY=VAL format, got %q", value)
	}
	c[split[0]] = split[1]
	return nil
}

var (
	inputInline      = flag.String("input", "", "POML source, given inline instead of via -file")
	inputFile        = flag.String("file", "", "path to a POML source file; \"-\" reads stdin")
	outputFile       = flag.String("output", "-", "path to write the result to; \"-\" writes stdout")
	contextFlags     = contextVars{}
	contextFile      = flag.String("context-file", "", "path to a JSON file of template variables")
	stylesheetInline = flag.String("stylesheet", "", "JSON object of stylesheet overrides")
	stylesheetFile   = flag.String("stylesheet-file", "", "path to a JSON stylesheet file")
	writerOverride   = flag.String("writer", "", "force a writer (markdown, html, csv, tsv, json, yaml, xml, free, multimedia) instead of dispatching on the document's own attributes")
	speakerMode      = flag.Bool("speaker-mode", false, "emit a JSON array of speaker-attributed messages instead of raw output")
	prettyPrint      = flag.Bool("pretty-print", false, "pretty-print the -speaker-mode JSON output")
	strict           = flag.Bool("strict", false, "treat any recorded compile error as a failure (exit 1)")
	trim             = flag.Bool("trim", false, "drop whitespace-only text surrounding a lone {{ expr }} interpolation")
	cwd              = flag.String("cwd", "", "working directory to resolve relative include/context/stylesheet paths against")
	traceDir         = flag.String("trace-dir", "", "write a {id}.trace.json expression trace to this directory")
	showVersion      = flag.Bool("version", false, "print the compiler version and exit")
)

func init() {
	flag.Var(contextFlags, "context", "template variable in KEY=VAL format, use multiple times to set multiple variables")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(poml.Version)
		return
	}

	if *cwd != "" {
		if err := os.Chdir(*cwd); err != nil {
			log.Fatalf("poml: chdir %s: %v", *cwd, err)
		}
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "poml: "+err.Error())
		os.Exit(1)
	}
}

func run() error {
	src, sourcePath, err := resolveInput()
	if err != nil {
		return err
	}

	varsMap, err := resolveContext(contextFlags, *contextFile)
	if err != nil {
		return fmt.Errorf("context: %w", err)
	}

	sheetVal, err := resolveJSONFlag(*stylesheetInline, *stylesheetFile)
	if err != nil {
		return fmt.Errorf("stylesheet: %w", err)
	}
	var sheet poml.Stylesheet
	if m, ok := sheetVal.(map[string]any); ok {
		sheet = poml.Stylesheet{}
		for k, v := range m {
			if inner, ok := v.(map[string]any); ok {
				sheet[k] = inner
			}
		}
	}

	opts := poml.NewOptions()
	opts.Trim = *trim
	doc, err := opts.Read(strings.NewReader(src), sourcePath, varsMap, sheet)
	if err != nil {
		return err
	}

	if *traceDir != "" {
		if path, err := doc.Comp.WriteTrace(*traceDir); err != nil {
			log.Printf("poml: could not write trace: %v", err)
		} else {
			log.Printf("poml: trace written to %s", path)
		}
	}

	if doc.HasErrors() {
		doc.WriteErrors(os.Stderr)
		if *strict {
			return fmt.Errorf("compile recorded %d error(s)", len(doc.Comp.Errors))
		}
	}

	out, err := renderOutput(doc)
	if err != nil {
		return err
	}
	if *outputFile != "-" && *outputFile != "" {
		log.Printf("poml: wrote %s (%s)", *outputFile, humanize.Bytes(uint64(len(out))))
	}
	return writeOutput(out)
}

func resolveInput() (source, path string, err error) {
	switch {
	case *inputFile == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return string(data), "<stdin>", nil
	case *inputFile != "":
		data, err := os.ReadFile(*inputFile)
		if err != nil {
			return "", "", err
		}
		return string(data), *inputFile, nil
	case *inputInline != "":
		return *inputInline, "<inline>", nil
	default:
		return "", "", fmt.Errorf("one of -input or -file is required")
	}
}

// resolveContext loads context-file's JSON object (if given) as the
// base set of template variables, then overlays the repeated -context
// KEY=VAL flags on top, so a one-off -context override wins over
// whatever the file supplies for the same key.
func resolveContext(flags contextVars, file string) (map[string]any, error) {
	out := map[string]any{}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if m, ok := v.(map[string]any); ok {
			for k, val := range m {
				out[k] = val
			}
		}
	}
	for k, v := range flags {
		out[k] = v
	}
	return out, nil
}

func resolveJSONFlag(inline, file string) (any, error) {
	var raw []byte
	switch {
	case inline != "":
		raw = []byte(inline)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		raw = data
	default:
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func renderOutput(doc *poml.Document) (string, error) {
	if *speakerMode {
		messages := doc.Messages()
		indent := ""
		if *prettyPrint {
			indent = "  "
		}
		out, err := json.MarshalIndent(messages, "", indent)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}

	if *writerOverride != "" {
		w, err := writerByName(*writerOverride)
		if err != nil {
			return "", err
		}
		return doc.WriteWith(w).Output, nil
	}
	return doc.Write().Output, nil
}

func writerByName(name string) (poml.Writer, error) {
	switch name {
	case "markdown":
		return &poml.MarkdownWriter{}, nil
	case "html":
		return &poml.HTMLWriter{}, nil
	case "csv":
		return &poml.CSVWriter{Delimiter: ','}, nil
	case "tsv":
		return &poml.CSVWriter{Delimiter: '\t'}, nil
	case "json":
		return &poml.JSONWriter{}, nil
	case "yaml":
		return &poml.YAMLWriter{}, nil
	case "xml":
		return &poml.XMLWriter{}, nil
	case "free":
		return &poml.FreeWriter{}, nil
	case "multimedia":
		return &poml.MultimediaWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown writer %q", name)
	}
}

func writeOutput(content string) error {
	if *outputFile == "-" || *outputFile == "" {
		_, err := fmt.Println(content)
		return err
	}
	return os.WriteFile(*outputFile, []byte(content+"\n"), 0o644)
}
