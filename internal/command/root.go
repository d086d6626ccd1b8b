package command

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/viniciusth/dedupe"
	"github.com/viniciusth/dedupe/internal/render"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
	"github.com/nuclio/zap"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	minLengthEnv    = "MIN_CANDIDATE_LENGTH"
	debugEnv        = "DEDUPE_DEBUG"
	debugLogPathEnv = "DEDUPE_DEBUG_LOG"

	defaultDebugLogPath = "dedupe.log"
)

var (
	ErrMissingMinLength = errors.New("Minimum candidate length is required (--min-length or " + minLengthEnv + ")")
	ErrInvalidMinLength = errors.New("Minimum candidate length must be a positive integer")
)

type RootCommandeer struct {
	loggerInstance logger.Logger
	cmd            *cobra.Command
	minLength      string
	debug          bool
	debugLogPath   string
	normalize      bool
	jobs           int
	verbose        bool
}

func NewRootCommandeer() *RootCommandeer {
	commandeer := &RootCommandeer{}

	cmd := &cobra.Command{
		Use:   "dedupe [file ...]",
		Short: "Remove repeated blocks of text",
		Long: `Remove every block of at least the minimum candidate length that repeats
an earlier block. Reads standard input when no files are given and writes the
deduplicated text of each input to standard output, in argument order.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			minLength, err := parseMinLength(commandeer.minLength)
			if err != nil {
				return err
			}

			if commandeer.jobs < 1 {
				return errors.New("Number of jobs must be positive")
			}

			if err := commandeer.initialize(cmd.ErrOrStderr()); err != nil {
				return errors.Wrap(err, "Failed to initialize root")
			}

			return commandeer.run(cmd, minLength, args)
		},
	}

	debugLogPath := os.Getenv(debugLogPathEnv)
	if debugLogPath == "" {
		debugLogPath = defaultDebugLogPath
	}

	cmd.PersistentFlags().BoolVarP(&commandeer.verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().StringVarP(&commandeer.minLength, "min-length", "m", os.Getenv(minLengthEnv), "Minimum length of a removed repeat, in code points")
	cmd.Flags().BoolVarP(&commandeer.debug, "debug", "d", strings.EqualFold(os.Getenv(debugEnv), "true"), "Write every deduplication stage to the debug log")
	cmd.Flags().StringVarP(&commandeer.debugLogPath, "debug-log", "", debugLogPath, "Path of the debug log")
	cmd.Flags().BoolVarP(&commandeer.normalize, "normalize", "", false, "Convert input to Unicode NFC before deduplicating")
	cmd.Flags().IntVarP(&commandeer.jobs, "jobs", "j", 4, "Number of files deduplicated concurrently")

	// add children
	cmd.AddCommand(
		newBenchCommandeer(commandeer).cmd,
	)

	commandeer.cmd = cmd

	return commandeer
}

// Execute uses os.Args to execute the command
func (rc *RootCommandeer) Execute() error {
	return rc.cmd.Execute()
}

// GetCmd returns the underlying cobra command
func (rc *RootCommandeer) GetCmd() *cobra.Command {
	return rc.cmd
}

func (rc *RootCommandeer) initialize(output io.Writer) error {
	var err error

	rc.loggerInstance, err = rc.createLogger(output)
	if err != nil {
		return errors.Wrap(err, "Failed to create logger")
	}

	return nil
}

func (rc *RootCommandeer) createLogger(output io.Writer) (logger.Logger, error) {
	var loggerLevel nucliozap.Level

	if rc.verbose {
		loggerLevel = nucliozap.DebugLevel
	} else {
		loggerLevel = nucliozap.InfoLevel
	}

	loggerInstance, err := nucliozap.NewNuclioZapCmd("dedupe", loggerLevel, output)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create logger")
	}

	return loggerInstance, nil
}

func (rc *RootCommandeer) run(cmd *cobra.Command, minLength int, paths []string) error {
	inputs, err := rc.readInputs(cmd.InOrStdin(), paths)
	if err != nil {
		return errors.Wrap(err, "Failed to read input")
	}

	builder := dedupe.NewBuilder(minLength).WithLogger(rc.loggerInstance)
	if rc.normalize {
		builder.Normalize()
	}
	deduplicator := builder.Build()

	var results []string
	if rc.debug {
		results, err = rc.traceAll(deduplicator, inputs)
	} else {
		results, err = rc.deduplicateAll(deduplicator, inputs)
	}
	if err != nil {
		return err
	}

	output := cmd.OutOrStdout()
	for _, result := range results {
		if _, err := io.WriteString(output, result+"\n"); err != nil {
			return errors.Wrap(err, "Failed to write output")
		}
	}

	return nil
}

func (rc *RootCommandeer) readInputs(stdin io.Reader, paths []string) ([]string, error) {
	if len(paths) == 0 {
		body, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to read standard input")
		}
		return []string{string(body)}, nil
	}

	inputs := make([]string, len(paths))
	errGroup := errgroup.Group{}
	errGroup.SetLimit(rc.jobs)
	for pathIndex, path := range paths {
		errGroup.Go(func() error {
			body, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "Failed to read file %s", path)
			}
			inputs[pathIndex] = string(body)
			return nil
		})
	}

	if err := errGroup.Wait(); err != nil {
		return nil, err
	}

	return inputs, nil
}

func (rc *RootCommandeer) deduplicateAll(deduplicator *dedupe.Deduplicator, inputs []string) ([]string, error) {
	results := make([]string, len(inputs))
	errGroup := errgroup.Group{}
	errGroup.SetLimit(rc.jobs)
	for inputIndex, input := range inputs {
		errGroup.Go(func() error {
			result, err := deduplicator.Deduplicate(input)
			if err != nil {
				return errors.Wrapf(err, "Failed to deduplicate input %d", inputIndex)
			}
			results[inputIndex] = result
			return nil
		})
	}

	if err := errGroup.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// traceAll deduplicates the inputs one by one and writes every stage to the debug log.
func (rc *RootCommandeer) traceAll(deduplicator *dedupe.Deduplicator, inputs []string) ([]string, error) {
	debugLogPath, err := filepath.Abs(rc.debugLogPath)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to resolve debug log path %s", rc.debugLogPath)
	}

	debugLog, err := os.Create(debugLogPath)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create debug log")
	}
	defer debugLog.Close() // nolint: errcheck

	rc.loggerInstance.InfoWith("Writing debug output", "path", debugLogPath)

	debugLogger, err := nucliozap.NewNuclioZapCmd("trace", nucliozap.DebugLevel, debugLog)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create debug logger")
	}

	renderer := render.NewRenderer(debugLog)
	results := make([]string, len(inputs))
	for inputIndex, input := range inputs {
		debugLogger.DebugWith("Tracing input", "index", inputIndex, "length", len(input))

		trace, err := deduplicator.Trace(input)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to deduplicate input %d", inputIndex)
		}

		renderer.RenderTrace(trace)
		debugLogger.DebugWith("Deduplication complete",
			"index", inputIndex,
			"duplicateRanges", len(trace.DuplicateRanges),
			"consolidatedRanges", len(trace.ConsolidatedRanges))

		results[inputIndex] = trace.Result
	}

	debugLogger.Flush()

	return results, nil
}

func parseMinLength(value string) (int, error) {
	if value == "" {
		return 0, ErrMissingMinLength
	}

	minLength, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidMinLength, "Got %q", value)
	}

	if minLength <= 0 {
		return 0, errors.Wrapf(ErrInvalidMinLength, "Got %d", minLength)
	}

	return minLength, nil
}
