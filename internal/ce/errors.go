package ce

import (
	"fmt"

	"github.com/roach88/dapseq/internal/dap"
)

func malformed(path, format string, args ...any) error {
	return &dap.Error{
		Code:    dap.CodeMalformedConstraint,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
	}
}
