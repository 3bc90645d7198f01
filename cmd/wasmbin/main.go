package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasmbin/wasm"
)

type options struct {
	wasmFile string
	features string
	section  string
	out      string
	funcName string
	args     string
	force    bool
	check    bool
}

func main() {
	var (
		opts        options
		verbose     = flag.Bool("v", false, "Log decoder activity to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.StringVar(&opts.wasmFile, "wasm", "", "Path to core module wasm file")
	flag.StringVar(&opts.features, "features", wasm.DefaultFeatures.String(), "Enabled proposals (comma-separated, or all/none)")
	flag.StringVar(&opts.section, "section", "", "Print the contents of one section (e.g. code, export)")
	flag.StringVar(&opts.out, "out", "", "Write the re-encoded module to this path")
	flag.StringVar(&opts.funcName, "func", "", "Exported function to call after decoding")
	flag.StringVar(&opts.args, "args", "", "Integer arguments for -func (comma-separated)")
	flag.BoolVar(&opts.force, "force", false, "Decode every lazy region before listing")
	flag.BoolVar(&opts.check, "check", false, "Fail unless the module re-encodes byte for byte (ignored with -force)")
	flag.Parse()

	if opts.wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: wasmbin -wasm <file.wasm> [-features simd,threads] [-force] [-section name]")
		fmt.Fprintln(os.Stderr, "       wasmbin -wasm <file.wasm> -out <copy.wasm> [-check]")
		fmt.Fprintln(os.Stderr, "       wasmbin -wasm <file.wasm> -func name [-args 1,2]")
		fmt.Fprintln(os.Stderr, "       wasmbin -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer l.Sync() //nolint:errcheck
		wasm.SetLogger(l)
	}

	if *interactive {
		if err := runInteractive(opts.wasmFile, opts.features); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadModule(path, features string) (*wasm.Module, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}
	fs, err := wasm.ParseFeatures(features)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := wasm.NewConfig(wasm.Options{Features: fs})
	if err != nil {
		return nil, nil, err
	}
	m, err := cfg.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}
	return m, data, nil
}

func run(ctx context.Context, w io.Writer, opts options) error {
	m, data, err := loadModule(opts.wasmFile, opts.features)
	if err != nil {
		return err
	}

	if opts.force {
		if err := m.ForceAll(ctx); err != nil {
			return fmt.Errorf("force: %w", err)
		}
	}

	if opts.section != "" {
		s, err := findSection(m, opts.section)
		if err != nil {
			return err
		}
		lines, err := describeSection(m, s)
		if err != nil {
			return fmt.Errorf("%s: %w", opts.section, err)
		}
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
	} else {
		sums, err := m.Summaries()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Module: %s (%d bytes, features %s)\n", opts.wasmFile, len(data), m.Config().Features())
		fmt.Fprintln(w, renderSummaries(sums, isTerminal(w)))
	}

	if opts.out != "" || opts.check {
		var buf bytes.Buffer
		if err := m.EncodeTo(&buf); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		if opts.check && !opts.force && !bytes.Equal(buf.Bytes(), data) {
			return fmt.Errorf("re-encoded module differs from input (%d vs %d bytes)", buf.Len(), len(data))
		}
		if opts.out != "" {
			if err := os.WriteFile(opts.out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			fmt.Fprintf(w, "Wrote %s (%d bytes)\n", opts.out, buf.Len())
		}
	}

	if opts.funcName != "" {
		res, err := callExport(ctx, m, opts.funcName, opts.args)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s(%s) = %v\n", opts.funcName, opts.args, res)
	}
	return nil
}

func findSection(m *wasm.Module, name string) (wasm.Section, error) {
	for _, s := range m.Sections {
		if s.ID().String() == name {
			return s, nil
		}
		if cs, ok := s.(*wasm.CustomSection); ok && cs.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no %q section", name)
}

// callExport re-encodes m and runs one of its exports under wazero.
func callExport(ctx context.Context, m *wasm.Module, name, argStr string) ([]uint64, error) {
	var args []uint64
	if argStr != "" {
		for _, a := range strings.Split(argStr, ",") {
			v, err := strconv.ParseInt(strings.TrimSpace(a), 0, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", a, err)
			}
			args = append(args, uint64(v))
		}
	}

	bin, err := wasm.Encode(m)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, bin)
	if err != nil {
		return nil, fmt.Errorf("instantiate: %w", err)
	}
	fn := mod.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("function %q not exported", name)
	}
	return fn.Call(ctx, args...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func renderSummaries(sums []wasm.Summary, styled bool) string {
	var sb strings.Builder
	header := fmt.Sprintf("%-10s %-16s %8s %s", "SECTION", "NAME", "SIZE", "STATE")
	if styled {
		header = titleStyle.Render(header)
	}
	sb.WriteString(header)
	for _, s := range sums {
		sb.WriteString("\n")
		line := s.String()
		if styled {
			line = styleSummary(s, line)
		}
		sb.WriteString(line)
	}
	return sb.String()
}
