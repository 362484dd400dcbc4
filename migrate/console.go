package migrate

import "io"

// Console is the user-facing output the CLI injects into Run.
type Console interface {
	Printf(format string, args ...any)
	// Success, Error and Warning write one line each; the format carries no newline.
	Success(format string, args ...any)
	Error(format string, args ...any)
	Warning(format string, args ...any)
	// Output is the writer progress is drawn on.
	Output() io.Writer
}
