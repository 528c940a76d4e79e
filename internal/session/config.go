package session

// Config holds session sizing knobs.
type Config struct {
	// Size is the number of problems planned into a standard session.
	Size int

	// DiagnosticSize is the number of problems sampled into a
	// diagnostic session.
	DiagnosticSize int
}

// DefaultConfig returns the standard session sizing.
func DefaultConfig() Config {
	return Config{
		Size:           5,
		DiagnosticSize: 5,
	}
}
