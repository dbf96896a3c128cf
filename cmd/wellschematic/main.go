// Command wellschematic renders well documents and manages API credentials.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wellschematic/wellschematic/internal/auth"
	"github.com/wellschematic/wellschematic/internal/config"
	"github.com/wellschematic/wellschematic/internal/engine"
	"github.com/wellschematic/wellschematic/internal/render"
	"github.com/wellschematic/wellschematic/internal/schema"
)

const usage = `usage: wellschematic <command> [flags]

commands:
  render    lay out a well document as PNG or JSON
  sample    print the sample well document
  token     issue an API bearer token (uses JWT_SECRET)
  hash-key  print the bcrypt hash to set as API_KEY_HASH
`

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error("wellschematic failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return flag.ErrHelp
	}

	switch args[0] {
	case "render":
		return runRender(args[1:], stdin, stdout)
	case "sample":
		_, err := stdout.Write(schema.SampleWellYAML())
		return err
	case "token":
		return runToken(args[1:], stdout)
	case "hash-key":
		return runHashKey(args[1:], stdin, stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func runRender(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	in := fs.String("in", "-", "input document (.json, .yaml); - reads stdin")
	out := fs.String("out", "-", "output file (.png or .json); - writes JSON to stdout")
	format := fs.String("format", "", "input format when reading stdin: json or yaml")
	strict := fs.Bool("strict", true, "reject unknown fields")
	asOf := fs.String("as-of", "", "only draw completion items installed on this date (YYYY-MM-DD)")
	which := fs.String("which", "", "comma-separated categories: open_hole, casing, completion")
	top := fs.String("top", "", "top of the depth window")
	bottom := fs.String("bottom", "", "bottom of the depth window")
	width := fs.Int("width", 0, "image width in pixels")
	height := fs.Int("height", 0, "image height in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, inFormat, err := readInput(*in, *format, stdin)
	if err != nil {
		return err
	}

	mode := schema.Lenient
	if *strict {
		mode = schema.Strict
	}
	w, err := schema.NewDecoder(mode).Decode(data, inFormat)
	if err != nil {
		return err
	}

	opts, err := engine.ParseOptions(*which, *asOf, *top, *bottom)
	if err != nil {
		return err
	}
	s, err := engine.Render(w, opts)
	if err != nil {
		return err
	}

	if *out == "-" || strings.EqualFold(filepath.Ext(*out), ".json") {
		return writeOutput(*out, stdout, func(dst io.Writer) error {
			enc := json.NewEncoder(dst)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		})
	}
	return writeOutput(*out, stdout, func(dst io.Writer) error {
		return render.PNG(dst, s, render.Options{Width: *width, Height: *height})
	})
}

func readInput(path, format string, stdin io.Reader) ([]byte, schema.Format, error) {
	var f schema.Format
	switch strings.ToLower(format) {
	case "":
		f = schema.FormatFromPath(path)
	case "json":
		f = schema.FormatJSON
	case "yaml", "yml":
		f = schema.FormatYAML
	default:
		return nil, "", fmt.Errorf("unknown format %q", format)
	}

	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return data, f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read input: %w", err)
	}
	return data, f, nil
}

func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return f.Close()
}

func runToken(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	sub := fs.String("sub", "", "token subject")
	ttl := fs.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	token, err := auth.NewService(cfg.JWTSecret, "").IssueToken(*sub, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, token)
	return err
}

func runHashKey(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("hash-key", flag.ContinueOnError)
	key := fs.String("key", "", "API key; read from stdin when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	k := *key
	if k == "" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read key: %w", err)
		}
		k = strings.TrimSpace(line)
	}
	hash, err := auth.HashKey(k)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}
