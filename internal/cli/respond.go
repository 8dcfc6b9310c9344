package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/dapseq/internal/engine"
	"github.com/roach88/dapseq/internal/ordered"
	"github.com/roach88/dapseq/internal/request"
	"github.com/roach88/dapseq/internal/store"
	"github.com/roach88/dapseq/internal/wire"
)

// RespondOptions holds flags for the respond command.
type RespondOptions struct {
	*RootOptions
	Database  string
	Specs     string
	Dataset   string
	Project   []string
	Select    []string
	Ranges    []string
	Out       string
	Chunk     int
	Sync      bool
	NFC       bool
	RequestID string

	// IDGenerator overrides the request ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator request.IDGenerator
}

// RespondResult summarizes a response.
type RespondResult struct {
	RequestID   string `json:"request_id"`
	Fingerprint string `json:"fingerprint"`
	Rows        int    `json:"rows"`
	Bytes       int64  `json:"bytes"`
	Previous    int    `json:"previous"`
	Out         string `json:"out,omitempty"`
}

func (r RespondResult) String() string {
	return fmt.Sprintf("Sent %d row(s), %d byte(s) for request %s", r.Rows, r.Bytes, r.RequestID)
}

// NewRespondCommand creates the respond command.
func NewRespondCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RespondOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "respond",
		Short: "Stream a Sequence response",
		Long: `Serialize a dataset in the Sequence wire format and record the response
in the response log.

The response is written to --out, or to stdout when --out is not set. The
summary goes to stdout with --out and to stderr without it.

Example:
  dapseq respond --db ./dapseq.db --specs ./specs --dataset stations \
      --project stations.name,stations.casts.temp --select "temp < 12" --out stations.bin
  dapseq respond --db ./dapseq.db --specs ./specs --dataset stations \
      --range "stations[0:2:*]" > stations.bin`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRespond(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Specs, "specs", "", "directory of CUE dataset descriptors (required)")
	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "dataset to serve (required)")
	cmd.Flags().StringSliceVar(&opts.Project, "project", nil, "field paths to transmit (default all)")
	cmd.Flags().StringArrayVar(&opts.Select, "select", nil, `selection clause, e.g. "temp < 12" (repeatable)`)
	cmd.Flags().StringArrayVar(&opts.Ranges, "range", nil, `row range, e.g. "stations[0:2:*]" (repeatable)`)
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&opts.Chunk, "chunk", wire.DefaultChunkSize, "bytes buffered per write")
	cmd.Flags().BoolVar(&opts.Sync, "sync", false, "write on the serializing goroutine")
	cmd.Flags().BoolVar(&opts.NFC, "nfc", false, "normalize strings to Unicode NFC")
	cmd.Flags().StringVar(&opts.RequestID, "request-id", "", "request ID (default a new UUIDv7)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("specs")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func runRespond(opts *RespondOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Out == "" {
		// stdout carries the response
		formatter.Writer = cmd.ErrOrStderr()
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.Chunk <= 0 {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "invalid --chunk", fmt.Errorf("must be positive, got %d", opts.Chunk))
	}

	cat, err := loadCatalogStrict(opts.Specs)
	if err != nil {
		return formatter.fail(ExitCommandError, loadErrorCode(err), "failed to load specs", err)
	}

	logger.Debug("opening database", "path", opts.Database)
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	sink, closeSink, err := openSink(opts.Out, cmd.OutOrStdout())
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeWriteFailed, "failed to open output", err)
	}

	idGen := opts.IDGenerator
	if idGen == nil {
		idGen = request.UUIDv7Generator{}
	}
	engOpts := []engine.Option{engine.WithLogger(logger), engine.WithChunkSize(opts.Chunk)}
	if opts.Sync {
		engOpts = append(engOpts, engine.WithSynchronous())
	}
	if opts.NFC {
		engOpts = append(engOpts, engine.WithNFC())
	}
	eng := engine.New(st, cat, idGen, engOpts...)

	req := eng.NewRequest(opts.Dataset)
	if opts.RequestID != "" {
		req.ID = opts.RequestID
	}
	req.Projection = opts.Project
	req.Selection = opts.Select
	req.Ranges = opts.Ranges

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, respErr := eng.Respond(ctx, req, sink)
	if err := closeSink(); err != nil && respErr == nil {
		respErr = err
	}
	if respErr != nil {
		code := ErrCodeGeneric
		var re *engine.RequestError
		if errors.As(respErr, &re) {
			code = string(re.Code)
		}
		_ = formatter.Error(code, respErr.Error(), nil)
		return WrapExitError(ExitFailure, "respond failed", respErr)
	}

	formatter.VerboseLog("fingerprint %s, %d earlier response(s)", res.Fingerprint, res.Previous)
	return formatter.Success(RespondResult{
		RequestID:   res.RequestID,
		Fingerprint: res.Fingerprint,
		Rows:        res.Rows,
		Bytes:       res.Bytes,
		Previous:    res.Previous,
		Out:         opts.Out,
	})
}

// openSink returns the response sink and a function that closes it. Files
// are written through their descriptor.
func openSink(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		if f, ok := stdout.(*os.File); ok {
			return ordered.FileSink(f), func() error { return nil }, nil
		}
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return ordered.FileSink(f), f.Close, nil
}
