package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/otioseq/internal/sequence"
	"github.com/roach88/otioseq/internal/syncerr"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The import or export itself failed (resolution, hook, mutation)
	ExitCommandError = 2 // Command error (bad flags, config, missing files, missing root)
	ExitCancelled    = 3 // The user declined the plan
)

// Error codes for command-level failures. Domain failures report their
// syncerr code ("RESOLUTION_FAILED", ...) instead.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Configuration invalid
	ErrCodeHost        = "E003" // Host database could not be opened
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error (optional)
	ErrCode string // CLIError code (optional, see ErrorCode)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// wrapSyncError maps a pipeline error onto an ExitError.
func wrapSyncError(message string, err error) *ExitError {
	switch syncerr.CodeOf(err) {
	case syncerr.CodeCancelled:
		return WrapExitError(ExitCancelled, message, err)
	case syncerr.CodePrecondition:
		return WrapExitError(ExitCommandError, message, err)
	case "":
		return WrapExitError(ExitCommandError, message, err)
	default:
		return WrapExitError(ExitFailure, message, err)
	}
}

// WithErrCode sets the CLIError code reported for e.
func (e *ExitError) WithErrCode(code string) *ExitError {
	e.ErrCode = code
	return e
}

// ErrorCode returns the CLIError code for err: an explicit ExitError code,
// then the syncerr code, then E005 for missing files and sequences.
func ErrorCode(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.ErrCode != "" {
		return exitErr.ErrCode
	}
	if code := syncerr.CodeOf(err); code != "" {
		return string(code)
	}
	if errors.Is(err, sequence.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return ErrCodeNotFound
	}
	return ErrCodeGeneric
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "RESOLUTION_FAILED", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// IsJSON reports whether output is JSON.
func (f *OutputFormatter) IsJSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.IsJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.IsJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// ReportError writes err for the user in the format selected on root and
// returns the process exit code. JSON errors go to stdout so they stay
// parseable; text errors go to stderr.
func ReportError(root *cobra.Command, err error) int {
	format := "text"
	if flag := root.PersistentFlags().Lookup("format"); flag != nil && isValidFormat(flag.Value.String()) {
		format = flag.Value.String()
	}
	f := &OutputFormatter{Format: format, Writer: root.ErrOrStderr()}
	if f.IsJSON() {
		f.Writer = root.OutOrStdout()
	}
	var details any
	var serr *syncerr.Error
	if errors.As(err, &serr) {
		details = syncErrorDetails(serr)
	}
	_ = f.Error(ErrorCode(err), err.Error(), details)
	return GetExitCode(err)
}

// syncErrorDetails collects the diagnostic fields a syncerr.Error carries.
func syncErrorDetails(e *syncerr.Error) map[string]any {
	d := map[string]any{}
	if e.Path != "" {
		d["path"] = e.Path
	}
	if e.Item != "" {
		d["item"] = e.Item
	}
	if e.Stage != "" {
		d["stage"] = e.Stage
		d["hook"] = e.Hook
	}
	if e.OpIndex >= 0 {
		d["op_index"] = e.OpIndex
	}
	if len(d) == 0 {
		return nil
	}
	return d
}
