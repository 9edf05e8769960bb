// Package emoji provides symbol constants for CLI output.
// These symbols keep verdict and summary lines consistent across commands.
package emoji

const (
	// Success marks accepted records and completed operations.
	Success = "✓"

	// Error marks rejected records and failed operations.
	Error = "✗"

	// Warning marks accepted records that carry review flags.
	Warning = "!"

	// Info prefixes informational summary lines.
	Info = "i"
)
