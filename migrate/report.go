package migrate

import (
	"github.com/willibrandon/gomigrator/diagnostic"
)

// report prints diagnostics in the "path : warning QMxxxx: message" layout.
// Errors are always shown, warnings unless quiet, infos only when detailed.
func report(console Console, opts *Options, items []diagnostic.Diagnostic, colorize bool) {
	for _, d := range items {
		switch d.Severity {
		case diagnostic.SeverityError:
			console.Printf("    %s\n", d.Format(colorize))
		case diagnostic.SeverityWarning:
			if !opts.isQuiet() {
				console.Printf("    %s\n", d.Format(colorize))
			}
		default:
			if opts.isDetailed() {
				console.Printf("    %s\n", d.Format(colorize))
			}
		}
	}
}

// summarize counts diagnostics by severity.
func summarize(items []diagnostic.Diagnostic) (errors, warnings int) {
	for _, d := range items {
		switch d.Severity {
		case diagnostic.SeverityError:
			errors++
		case diagnostic.SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}
