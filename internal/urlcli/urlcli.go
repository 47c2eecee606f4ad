// Package urlcli implements the urlkit command: a pipeline of URL handle
// operations applied left to right to one URL.
//
//	urlkit [flags] <url|-> <op> [args]... <op> [args]...
package urlcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/urlkit/api"
	"github.com/dalemusser/urlkit/config"
	apperr "github.com/dalemusser/urlkit/errors"
	"github.com/dalemusser/urlkit/logging"
	"github.com/dalemusser/urlkit/urlhandle"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// currentLocation is the URL argument that stands for --location.
const currentLocation = "-"

var knownOps = map[string]bool{
	urlhandle.OpGet:     true,
	urlhandle.OpAdd:     true,
	urlhandle.OpRemove:  true,
	urlhandle.OpReplace: true,
	urlhandle.OpChange:  true,
	urlhandle.OpBuild:   true,
	urlhandle.OpClean:   true,
}

// Run is the entrypoint of the urlkit command.
//
// binName is shown in usage and error text; args exclude the binary name.
// It returns a process exit code; callers should os.Exit(Run(...)).
func Run(binName string, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet(binName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	// Flags come first; everything after the URL belongs to the pipeline.
	fs.SetInterspersed(false)
	config.RegisterCLIFlags(fs)
	fs.Usage = func() { usage(binName, fs, stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := config.LoadCLI(nil, fs)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", binName, err)
		return 1
	}
	logger := logging.CLILogger(cfg.LogLevel)
	defer logger.Sync()

	rest := fs.Args()
	if len(rest) == 0 && cfg.Location == "" {
		fs.Usage()
		return 1
	}

	resp, err := execute(cfg, rest, logger)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %s\n", binName, describe(err))
		return 1
	}
	if err := render(stdout, cfg.Output, resp); err != nil {
		fmt.Fprintf(stderr, "%s: write output: %v\n", binName, err)
		return 1
	}
	return 0
}

func usage(binName string, fs *pflag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "Usage: %s [flags] <url|-> <op> [args]... [<op> [args]...]\n\n", binName)
	fmt.Fprintln(w, "Operations, applied left to right:")
	fmt.Fprintln(w, "  get NAME...                 print the first value of each name")
	fmt.Fprintln(w, "  add K=V...                  append parameters")
	fmt.Fprintln(w, "  remove NAME...              delete every value of each name")
	fmt.Fprintln(w, "  replace NAME[,NAME] K=V...  remove names, then add parameters")
	fmt.Fprintln(w, "  change K=V...               set parameters in place")
	fmt.Fprintln(w, "  build K=V...                print origin+path with only these parameters")
	fmt.Fprintln(w, "  clean                       drop the whole query string")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "A URL of %q (or no URL) uses --location.\n\n", currentLocation)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Example:\n  %s 'https://example.com/s?x=1' remove x add y=2\n", binName)
}

// execute resolves the URL, parses the pipeline and applies it.
func execute(cfg *config.CLIConfig, args []string, logger *zap.Logger) (*api.TransformResponse, error) {
	raw := ""
	if len(args) > 0 && !knownOps[args[0]] {
		if args[0] != currentLocation {
			raw = args[0]
		}
		args = args[1:]
	}

	steps, err := parseSteps(args)
	if err != nil {
		return nil, err
	}

	opts := []urlhandle.Option{urlhandle.WithLogger(logger)}
	if cfg.Location != "" {
		opts = append(opts, urlhandle.WithLocation(urlhandle.StaticLocation(cfg.Location)))
	}
	hd, err := urlhandle.New(raw, opts...)
	if err != nil {
		return nil, err
	}

	resp := &api.TransformResponse{Results: make([]api.StepResult, 0, len(steps))}
	for i, s := range steps {
		res, err := api.ApplyStep(hd, s)
		if err != nil {
			return nil, &stepError{n: i + 1, op: s.Op, err: err}
		}
		resp.Results = append(resp.Results, res)
	}
	resp.URL = hd.Value()
	return resp, nil
}

// parseSteps groups args into steps: each op keyword starts a new step and
// the tokens up to the next keyword are its arguments.
func parseSteps(args []string) ([]api.Step, error) {
	var groups [][]string
	for _, a := range args {
		if knownOps[a] {
			groups = append(groups, []string{a})
			continue
		}
		if len(groups) == 0 {
			return nil, apperr.InvalidInput(fmt.Sprintf("unknown operation %q", a)).WithDetail("op", a)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], a)
	}

	steps := make([]api.Step, 0, len(groups))
	for _, g := range groups {
		s, err := parseStep(g[0], g[1:])
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

func parseStep(op string, args []string) (api.Step, error) {
	s := api.Step{Op: op}
	switch op {
	case urlhandle.OpGet, urlhandle.OpRemove:
		s.Names = args
	case urlhandle.OpAdd, urlhandle.OpChange, urlhandle.OpBuild:
		s.Params = parsePairs(args)
	case urlhandle.OpReplace:
		if len(args) == 0 {
			return s, apperr.InvalidInput("replace: expected NAME[,NAME] followed by K=V...").WithDetail("op", op)
		}
		s.Names = splitNames(args[0])
		s.Params = parsePairs(args[1:])
	case urlhandle.OpClean:
		if len(args) > 0 {
			return s, apperr.InvalidInput(fmt.Sprintf("clean: unexpected argument %q", args[0])).WithDetail("op", op)
		}
	}
	return s, nil
}

// parsePairs reads K=V tokens. A token without "=" is a name with an
// empty value, as in a query string.
func parsePairs(args []string) urlhandle.Params {
	ps := make(urlhandle.Params, 0, len(args))
	for _, a := range args {
		k, v, _ := strings.Cut(a, "=")
		ps = append(ps, urlhandle.Param{Name: k, Value: v})
	}
	return ps
}

func splitNames(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// stepError reports which step of the pipeline failed (1-based).
type stepError struct {
	n   int
	op  string
	err error
}

func (e *stepError) Error() string {
	return fmt.Sprintf("step %d (%s): %s", e.n, e.op, describe(e.err))
}

func (e *stepError) Unwrap() error { return e.err }

// describe renders err for a terminal: coded errors show their message
// without the machine code.
func describe(err error) string {
	var se *stepError
	if errors.As(err, &se) {
		return se.Error()
	}
	if e := apperr.From(err); e.Code != apperr.CodeInternalError {
		return e.Message
	}
	return err.Error()
}

func render(w io.Writer, format string, resp *api.TransformResponse) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return enc.Close()
	default:
		return renderText(w, resp)
	}
}

// renderText prints get values one per line (empty when missing), built
// URLs, and the final URL unless every step was a read.
func renderText(w io.Writer, resp *api.TransformResponse) error {
	readOnly := len(resp.Results) > 0
	for _, r := range resp.Results {
		switch r.Op {
		case urlhandle.OpGet:
			for _, v := range r.Values {
				if _, err := fmt.Fprintln(w, v.Value); err != nil {
					return err
				}
			}
		case urlhandle.OpBuild:
			if _, err := fmt.Fprintln(w, r.URL); err != nil {
				return err
			}
		default:
			readOnly = false
		}
	}
	if readOnly {
		return nil
	}
	_, err := fmt.Fprintln(w, resp.URL)
	return err
}
