package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dapseq/internal/catalog"
	"github.com/roach88/dapseq/internal/dap"
)

// ValidationError is one descriptor problem.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// DatasetSummary describes a compiled dataset.
type DatasetSummary struct {
	Name   string   `json:"name"`
	Levels []string `json:"levels"`
	Fields int      `json:"fields"`
	Decl   string   `json:"decl"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Datasets []DatasetSummary  `json:"datasets,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate dataset descriptors",
		Long: `Compile the CUE dataset descriptors in a directory and report every
error, or the datasets and their declarations when all are valid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cat, errs := LoadCatalog(specsDir, catalog.LoadModeCollectAll)
	if cat == nil && len(errs) > 0 {
		code := loadErrorCode(errs[0])
		_ = formatter.Error(code, errs[0].Error(), nil)
		return NewExitError(ExitCommandError, errs[0].Error())
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", cat.FileCount, specsDir)

	if len(errs) > 0 {
		validationErrs := make([]ValidationError, 0, len(errs))
		for _, err := range errs {
			ve := ValidationError{Code: ErrCodeGeneric, Message: err.Error()}
			var loadErr *LoadError
			if errors.As(err, &loadErr) {
				ve = ValidationError{Code: loadErr.Code, Message: loadErr.Message, Line: loadErr.Line}
			}
			validationErrs = append(validationErrs, ve)
		}
		return outputValidationErrors(formatter, validationErrs)
	}

	result := ValidationResult{Valid: true}
	for _, name := range cat.Names() {
		ds, err := cat.Get(name)
		if err != nil {
			return WrapExitError(ExitCommandError, "catalog lookup", err)
		}
		summary, err := summarize(ds)
		if err != nil {
			return outputValidationErrors(formatter, []ValidationError{{
				Code:    ErrCodeCompile,
				Message: fmt.Sprintf("dataset %s: %v", name, err),
			}})
		}
		formatter.VerboseLog("Validated dataset: %s", name)
		result.Datasets = append(result.Datasets, summary)
	}
	return outputValidateSuccess(formatter, result)
}

// summarize builds the dataset's Sequence tree to check that it has a valid
// shape.
func summarize(ds *catalog.Dataset) (DatasetSummary, error) {
	seq, err := ds.Build(nil)
	if err != nil {
		return DatasetSummary{}, err
	}
	summary := DatasetSummary{Name: ds.Name, Decl: dap.Decl(seq)}
	for _, level := range ds.Levels() {
		summary.Levels = append(summary.Levels, level.Name)
		summary.Fields += len(level.Fields)
	}
	return summary, nil
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %d dataset(s) valid\n", len(result.Datasets))
	for _, ds := range result.Datasets {
		fmt.Fprintf(w, "  %s: %s (%d fields)\n", ds.Name, strings.Join(ds.Levels, " > "), ds.Fields)
		if formatter.Verbose {
			fmt.Fprint(w, indent(ds.Decl, "    "))
		}
	}
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(l)
	}
	return b.String()
}
