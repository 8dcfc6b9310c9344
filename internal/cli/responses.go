package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/dapseq/internal/store"
)

// ResponsesOptions holds flags for the responses command.
type ResponsesOptions struct {
	*RootOptions
	Database    string
	Fingerprint string
}

// ResponseEntry is the JSON form of one logged response.
type ResponseEntry struct {
	Seq         int64    `json:"seq"`
	RequestID   string   `json:"request_id"`
	Fingerprint string   `json:"fingerprint"`
	Dataset     string   `json:"dataset"`
	Projection  []string `json:"projection"`
	Selection   []string `json:"selection"`
	Ranges      []string `json:"ranges"`
	Rows        int      `json:"rows"`
	Bytes       int64    `json:"bytes"`
	Error       string   `json:"error,omitempty"`
}

// NewResponsesCommand creates the responses command.
func NewResponsesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResponsesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "responses",
		Short: "List the response log",
		Long: `List every logged response in the order it was sent.

Example:
  dapseq responses --db ./dapseq.db
  dapseq responses --db ./dapseq.db --fingerprint 3f2a...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResponses(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only responses to requests with this fingerprint")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runResponses(opts *ResponsesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	var responses []store.Response
	if opts.Fingerprint != "" {
		responses, err = st.ResponsesByFingerprint(ctx, opts.Fingerprint)
	} else {
		responses, err = st.ReadResponses(ctx)
	}
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeDatabase, "failed to read response log", err)
	}

	if formatter.Format == "json" {
		entries := make([]ResponseEntry, len(responses))
		for i, r := range responses {
			entries[i] = ResponseEntry{
				Seq:         r.Seq,
				RequestID:   r.RequestID,
				Fingerprint: r.Fingerprint,
				Dataset:     r.Dataset,
				Projection:  r.Projection,
				Selection:   r.Selection,
				Ranges:      r.Ranges,
				Rows:        r.Rows,
				Bytes:       r.Bytes,
				Error:       r.Err,
			}
		}
		return formatter.Success(entries)
	}

	if len(responses) == 0 {
		fmt.Fprintln(formatter.Writer, "No responses logged.")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tREQUEST\tDATASET\tROWS\tBYTES\tCONSTRAINT\tERROR")
	for _, r := range responses {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.Seq, r.RequestID, r.Dataset, r.Rows, r.Bytes, constraintText(r), r.Err)
	}
	return tw.Flush()
}

func constraintText(r store.Response) string {
	parts := append([]string{}, r.Projection...)
	parts = append(parts, r.Ranges...)
	parts = append(parts, r.Selection...)
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}
