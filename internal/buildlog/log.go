// Package buildlog is the structured logger every stage of the bootimage
// builder reports progress and failures through.
//
// Grounded on server/lsp.go's commonlog usage (the teacher's only logging
// call site): commonlog.NewInfoMessage plus the commonlog/simple backend,
// blank-imported for its side-effecting registration.
package buildlog

import (
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// Info logs a progress message at depth 0, mirroring
// commonlog.NewInfoMessage(0, "...")'s usage in the teacher's LSP server.
func Info(message string) {
	commonlog.NewInfoMessage(0, message)
}

// Error logs a failure message at depth 0.
func Error(message string) {
	commonlog.NewErrorMessage(0, message)
}
