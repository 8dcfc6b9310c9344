package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/dapseq/internal/catalog"
)

// Error code constants, shared by all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeCompile     = "E006" // Descriptor compile error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E008" // SQLite open/import error
	ErrCodeRowsFile    = "E009" // Malformed row file
	ErrCodeDecode      = "E010" // Malformed response
)

// LoadError is a specs loading error with a CLI error code.
type LoadError struct {
	Code    string
	Message string
	Line    int
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", e.Code, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCatalog compiles the dataset descriptors in dir. Every error is a
// *LoadError. In fail-fast mode at most one error is returned.
func LoadCatalog(dir string, mode catalog.LoadMode) (*catalog.Catalog, []error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}
	files, err := catalog.FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	cat, errs := catalog.LoadDir(dir, mode)
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = convertCompileError(e)
	}
	return cat, out
}

// loadCatalogStrict returns the catalog or the first load error.
func loadCatalogStrict(dir string) (*catalog.Catalog, error) {
	cat, errs := LoadCatalog(dir, catalog.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return cat, nil
}

// convertCompileError converts a catalog error to a LoadError with its line.
func convertCompileError(err error) *LoadError {
	var compileErr *catalog.CompileError
	if errors.As(err, &compileErr) {
		line := 0
		if compileErr.Pos.IsValid() {
			line = compileErr.Pos.Line()
		}
		return &LoadError{Code: ErrCodeCompile, Message: err.Error(), Line: line}
	}
	return &LoadError{Code: ErrCodeCompile, Message: err.Error()}
}

// loadErrorCode returns the CLI code of err.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}
