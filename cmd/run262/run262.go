package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"runtime/pprof"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"com.github.sebastianobarrera.modeledjs/treejs"
	tsparser "com.github.sebastianobarrera.modeledjs/treejs/ts-parser"
)

var (
	test262Root = flag.String("test262", "", "Path to the test262 respository")
	testCase    = flag.String("single", "", "Run this specific testcase (path relative to the test262 root)")
	showAST     = flag.Bool("showAST", false, "Show the AST of the main script")
	parseOnly   = flag.Bool("parseOnly", false, "Stop at parsing; test is successful if it parses as expected")
	cpuProfile  = flag.String("cpuProfile", "", "Write CPU profile to this file")
	configPath  = flag.String("config", "", "TOML file with VM settings")
	logLevel    = flag.String("log", "", "Log level (debug, info, warn, error); overrides the config file")
	jsonOutput  = flag.Bool("json", false, "Print the results as JSON")
	jobs        = flag.Int("jobs", 8, "Number of test cases run concurrently")
	timeout     = flag.Duration("timeout", 10*time.Second, "Time limit for each run of a test case")

	ErrCaseDisabledInMetadata = errors.New("testcase disabled in metadata")
)

func main() {
	flag.Parse()

	config := treejs.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = treejs.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}
	logger, err := config.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	if *cpuProfile != "" {
		cpuf, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatalf("can't create cpu profile file: %s: %s", *cpuProfile, err)
		}
		pprof.StartCPUProfile(cpuf)
		defer pprof.StopCPUProfile()
	}

	if *test262Root == "" {
		log.Fatalf("command line argument is required: -test262 (see -help)")
	}

	r := &runner{
		root:    *test262Root,
		config:  config,
		logger:  logger,
		timeout: *timeout,
	}

	if *testCase != "" {
		log.Infof("running single test case: %s", *testCase)
		errStrict, errSloppy := r.runTestCase(*testCase)
		log.Infof("strict: %v", errStrict)
		log.Infof("sloppy: %v", errSloppy)
		return
	}

	testConfig, err := readTestConfig("testConfig.json")
	if err != nil {
		log.Fatalf("while parsing testConfig.json: %s", err)
	}

	result := r.runMany(testConfig.TestCases, *jobs)
	if *jsonOutput {
		err = writeJSON(os.Stdout, result)
	} else {
		err = writeText(os.Stdout, result)
	}
	if err != nil {
		log.Fatalf("writing results: %s", err)
	}
}

type TestConfig struct {
	TestCases []string `json:"testCases"`
}

func readTestConfig(filename string) (cfg TestConfig, err error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return
	}

	err = json.Unmarshal(buf, &cfg)
	return
}

type RunManyResult struct {
	Cases []CaseOutcome
}

type CaseOutcome struct {
	Path       string
	StrictMode bool

	Success bool
	Error   error
}

func (co CaseOutcome) mode() string {
	if co.StrictMode {
		return "strict"
	}
	return "sloppy"
}

func outcome(relPath string, strict bool, err error) CaseOutcome {
	return CaseOutcome{
		Path:       relPath,
		StrictMode: strict,
		Success:    err == nil || errors.Is(err, ErrCaseDisabledInMetadata),
		Error:      err,
	}
}

func (result RunManyResult) split() (successes, failures []CaseOutcome) {
	for _, co := range result.Cases {
		if co.Success {
			successes = append(successes, co)
		} else {
			failures = append(failures, co)
		}
	}
	return
}

func writeText(w io.Writer, result RunManyResult) error {
	successes, failures := result.split()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "group SUCCESSES %d\n", len(successes))
	for _, co := range successes {
		fmt.Fprintf(&buf, "case\t%s\t%s\n", co.Path, co.mode())
	}

	fmt.Fprintf(&buf, "group FAILURES %d\n", len(failures))
	for _, co := range failures {
		fmt.Fprintf(&buf, "case\t%s\t%s\n", co.Path, co.mode())

		var errLines []string
		if co.Error != nil {
			errLines = strings.Split(co.Error.Error(), "\n")
		}
		for ndx, line := range errLines {
			if ndx == 0 {
				fmt.Fprintf(&buf, "error\t\t%s\n", line)
			} else {
				fmt.Fprintf(&buf, "ectx\t\t%s\n", line)
			}
		}
	}

	fmt.Fprintf(&buf, "summary\ttotal: %d; %d successes; %d failures\n", len(result.Cases), len(successes), len(failures))
	_, err := w.Write(buf.Bytes())
	return err
}

type jsonCase struct {
	Path    string `json:"path"`
	Mode    string `json:"mode"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type jsonResult struct {
	Total     int        `json:"total"`
	Successes int        `json:"successes"`
	Failures  int        `json:"failures"`
	Cases     []jsonCase `json:"cases"`
}

func writeJSON(w io.Writer, result RunManyResult) error {
	successes, failures := result.split()
	out := jsonResult{
		Total:     len(result.Cases),
		Successes: len(successes),
		Failures:  len(failures),
		Cases:     make([]jsonCase, len(result.Cases)),
	}
	for i, co := range result.Cases {
		out.Cases[i] = jsonCase{Path: co.Path, Mode: co.mode(), Success: co.Success}
		if co.Error != nil && !co.Success {
			out.Cases[i].Error = co.Error.Error()
		}
	}

	buf, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(buf, '\n'))
	return err
}

// runner runs test262 cases, each in fresh VMs.
type runner struct {
	root    string
	config  treejs.Config
	logger  *zap.Logger
	timeout time.Duration
}

func (r *runner) runMany(testCases []string, jobs int) (result RunManyResult) {
	result.Cases = make([]CaseOutcome, 0, len(testCases)*2)
	if jobs < 1 {
		jobs = 1
	}

	paths := make(chan string)
	sink := make(chan CaseOutcome)

	for w := 0; w < min(jobs, len(testCases)); w++ {
		go func() {
			for relPath := range paths {
				errStrict, errSloppy := r.runTestCase(relPath)
				sink <- outcome(relPath, true, errStrict)
				sink <- outcome(relPath, false, errSloppy)
			}
		}()
	}
	go func() {
		for _, relPath := range testCases {
			paths <- relPath
		}
		close(paths)
	}()

	for i := 0; i < 2*len(testCases); i++ {
		result.Cases = append(result.Cases, <-sink)
	}

	sort.SliceStable(result.Cases, func(i, j int) bool {
		a, b := result.Cases[i], result.Cases[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.StrictMode && !b.StrictMode
	})
	return
}

func (r *runner) runTestCase(testCase string) (errStrict, errSloppy error) {
	log := r.logger.Sugar()

	testCaseAbs := testCase
	if !path.IsAbs(testCase) {
		testCaseAbs = path.Join(r.root, testCase)
	}

	textBytes, err := os.ReadFile(testCaseAbs)
	if err != nil {
		errStrict = fmt.Errorf("reading testcase %s: %w", testCaseAbs, err)
		errSloppy = errStrict
		return
	}

	if *showAST {
		vm := treejs.NewVM(treejs.WithConfig(r.config), treejs.WithLogger(r.logger))
		script, err := vm.ParseReader(testCaseAbs, bytes.NewReader(textBytes))
		if err == nil {
			err = treejs.PrintAST(os.Stdout, script)
		}
		if err != nil {
			log.Errorf("parsing and printing AST: %v", err)
		}
	}

	mt, err := parseMetadata(textBytes)
	if err != nil {
		errStrict = fmt.Errorf("while parsing metadata: %w", err)
		errSloppy = errStrict
		return
	}

	if mt.NoStrict {
		errStrict = ErrCaseDisabledInMetadata
	} else {
		errStrict = r.runInMode(testCaseAbs, textBytes, mt, true)
	}
	if mt.OnlyStrict {
		errSloppy = ErrCaseDisabledInMetadata
	} else {
		errSloppy = r.runInMode(testCaseAbs, textBytes, mt, false)
	}
	return
}

// runInMode runs the harness, the includes and the test case in one VM.
func (r *runner) runInMode(testCaseAbs string, text []byte, mt Metadata, forceStrict bool) error {
	r.logger.Debug("running test case", zap.String("path", testCaseAbs), zap.Bool("strict", forceStrict))

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	vm := treejs.NewVM(
		treejs.WithConfig(r.config),
		treejs.WithLogger(r.logger),
		treejs.WithContext(ctx),
		treejs.WithStdout(io.Discard),
	)

	paths := []string{"sta.js", "assert.js"}
	paths = append(paths, mt.Includes...)
	for _, include := range paths {
		harnessPath := path.Join(r.root, "harness", include)
		src, err := os.ReadFile(harnessPath)
		if err != nil {
			return err
		}
		if err := r.runScript(ctx, vm, harnessPath, src); err != nil {
			return fmt.Errorf("in harness file %s: %w", include, err)
		}
	}

	src := text
	if forceStrict {
		src = append([]byte("\"use strict\";"), text...)
	}
	err := r.runScript(ctx, vm, testCaseAbs, src)
	return checkNegative(mt, err)
}

func (r *runner) runScript(ctx context.Context, vm *treejs.VM, path string, src []byte) error {
	if *parseOnly {
		return tsparser.ParseBytesCtx(ctx, path, src)
	}
	return vm.RunScriptReader(path, bytes.NewReader(src))
}

// checkNegative turns the outcome of a test that expects an error into
// success or failure.
func checkNegative(mt Metadata, err error) error {
	if mt.NegativePhase == "" {
		return err
	}
	if err == nil {
		return fmt.Errorf("expected %s error in phase %s, but none were raised", mt.NegativeType, mt.NegativePhase)
	}

	var pexc *treejs.ProgramException
	if mt.NegativePhase == "runtime" && errors.As(err, &pexc) && pexc.Name != mt.NegativeType {
		return fmt.Errorf("expected %s error, got %s: %w", mt.NegativeType, pexc.Name, err)
	}
	return nil
}

type Metadata struct {
	OnlyStrict    bool
	NoStrict      bool
	Includes      []string
	NegativePhase string
	NegativeType  string
}

func parseMetadata(text []byte) (mt Metadata, err error) {
	startNdx := bytes.Index(text, []byte("/*---"))
	if startNdx == -1 {
		return
	}

	endOffset := bytes.Index(text[startNdx:], []byte("---*/"))
	if endOffset == -1 {
		err = fmt.Errorf("invalid source code: unterminated metadata comment (started with /*--- at offset %d)", startNdx)
		return
	}
	endNdx := startNdx + endOffset

	metadataYaml := text[startNdx+5 : endNdx]

	var metadataRaw struct {
		Flags    []string
		Includes []string
		Negative *struct {
			Phase string
			Type  string
		}
	}

	err = yaml.Unmarshal(metadataYaml, &metadataRaw)
	if err != nil {
		return
	}

	for _, flag := range metadataRaw.Flags {
		switch flag {
		case "noStrict", "raw":
			mt.NoStrict = true
		case "onlyStrict":
			mt.OnlyStrict = true
		}
	}

	mt.Includes = metadataRaw.Includes
	if metadataRaw.Negative != nil {
		mt.NegativePhase = metadataRaw.Negative.Phase
		mt.NegativeType = metadataRaw.Negative.Type
	}

	return
}
