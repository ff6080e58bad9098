// Command treejs runs scripts, or prints their syntax tree or their
// reformatted source.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/sourcemap.v1"

	"com.github.sebastianobarrera.modeledjs/treejs"
	"com.github.sebastianobarrera.modeledjs/treejs/parser"
	"com.github.sebastianobarrera.modeledjs/treejs/serializer"
	tsparser "com.github.sebastianobarrera.modeledjs/treejs/ts-parser"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	config    string
	logLevel  string
	showAST   bool
	format    bool
	verify    bool
	sourceMap string
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("treejs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.config, "config", "", "TOML file with VM settings")
	fs.StringVar(&opts.logLevel, "log", "", "Log level (debug, info, warn, error); overrides the config file")
	fs.BoolVar(&opts.showAST, "ast", false, "Print the syntax tree instead of running")
	fs.BoolVar(&opts.format, "fmt", false, "Print the reformatted source instead of running")
	fs.BoolVar(&opts.verify, "verify", false, "With -fmt, check that the output parses again")
	fs.StringVar(&opts.sourceMap, "sourcemap", "", "Source map used to report positions")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: treejs [flags] script.js...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	config := treejs.DefaultConfig()
	if opts.config != "" {
		var err error
		if config, err = treejs.LoadConfig(opts.config); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if opts.logLevel != "" {
		config.LogLevel = opts.logLevel
	}
	logger, err := config.NewLogger()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer logger.Sync()

	var sm *sourcemap.Consumer
	if opts.sourceMap != "" {
		data, err := os.ReadFile(opts.sourceMap)
		if err == nil {
			sm, err = sourcemap.Parse(opts.sourceMap, data)
		}
		if err != nil {
			logger.Error("can't load source map", zap.String("path", opts.sourceMap), zap.Error(err))
			return 1
		}
	}

	vm := treejs.NewVM(
		treejs.WithConfig(config),
		treejs.WithLogger(logger),
		treejs.WithStdout(stdout),
	)

	for _, path := range fs.Args() {
		if err := runFile(vm, path, sm, opts, stdout); err != nil {
			reportError(logger, path, err)
			return 1
		}
	}
	return 0
}

func runFile(vm *treejs.VM, path string, sm *sourcemap.Consumer, opts options, stdout io.Writer) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	script, err := vm.ParseString(path, string(src), 1, sm)
	if err != nil {
		return err
	}

	switch {
	case opts.showAST:
		return treejs.PrintAST(stdout, script)

	case opts.format:
		out, err := serializer.Serialize(script)
		if err != nil {
			return err
		}
		if opts.verify {
			if _, err := parser.Parse(out, path+" (formatted)", 1); err != nil {
				return fmt.Errorf("formatted output doesn't parse: %w", err)
			}
			if err := tsparser.ParseBytes(path+" (formatted)", []byte(out)); err != nil {
				return fmt.Errorf("formatted output rejected by tree-sitter: %w", err)
			}
		}
		_, err = io.WriteString(stdout, out)
		return err
	}

	_, err = vm.Evaluate(script)
	return err
}

func reportError(logger *zap.Logger, path string, err error) {
	var pexc *treejs.ProgramException
	if errors.As(err, &pexc) {
		logger.Error("uncaught exception",
			zap.String("name", pexc.Name),
			zap.String("message", pexc.Message),
			zap.String("file", pexc.Filename),
			zap.Int("line", pexc.Line),
			zap.Int("column", pexc.Column),
		)
		return
	}
	logger.Error("failed", zap.String("path", path), zap.Error(err))
}
