package cli

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dapseq/internal/engine"
	"github.com/roach88/dapseq/internal/request"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Specs   string
	Dataset string
	Project []string
}

// DecodeResult is the JSON form of a decoded response.
type DecodeResult struct {
	Dataset string   `json:"dataset"`
	Rows    int      `json:"rows"`
	Values  []string `json:"values"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <response-file>",
		Short: "Decode a Sequence response and print its rows",
		Long: `Deserialize a response written by respond and print one line per
top-level row. --project must match the projection of the request.

Example:
  dapseq decode --specs ./specs --dataset stations stations.bin`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Specs, "specs", "", "directory of CUE dataset descriptors (required)")
	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "dataset of the response (required)")
	cmd.Flags().StringSliceVar(&opts.Project, "project", nil, "projection of the request (default all)")
	_ = cmd.MarkFlagRequired("specs")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func runDecode(opts *DecodeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cat, err := loadCatalogStrict(opts.Specs)
	if err != nil {
		return formatter.fail(ExitCommandError, loadErrorCode(err), "failed to load specs", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, "failed to open response", err)
	}
	defer f.Close()

	eng := engine.New(nil, cat, request.UUIDv7Generator{}, engine.WithLogger(logger))
	seq, err := eng.Decode(opts.Dataset, opts.Project, bufio.NewReader(f))
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeDecode, "failed to decode response", err)
	}

	if formatter.Format == "json" {
		var buf bytes.Buffer
		if err := seq.PrintValByRows(&buf, false); err != nil {
			return WrapExitError(ExitFailure, "print rows", err)
		}
		values := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		if buf.Len() == 0 {
			values = []string{}
		}
		return formatter.Success(DecodeResult{Dataset: opts.Dataset, Rows: seq.NumRows(), Values: values})
	}

	formatter.VerboseLog("decoded %d row(s)", seq.NumRows())
	if err := seq.PrintValByRows(formatter.Writer, true); err != nil {
		return WrapExitError(ExitFailure, "print rows", err)
	}
	return nil
}
