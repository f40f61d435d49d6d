package logger

// OutputCategory defines a category of CLI output that can be enabled/disabled.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults OutputCategory = iota // Parsed trees, token lists, corpus summaries
	OutputErrors                        // Parse errors with caret and suggestions

	// Level 1 (-v) - Informational
	OutputStartup  // Server addresses, config file in use
	OutputProgress // Per-case corpus results

	// Level 2 (-vv) - Detailed
	OutputTokens   // Token stream printed before the tree
	OutputTiming   // Parse duration
	OutputRequests // Every HTTP, WebSocket, LSP and MCP request

	// Level 3 (-vvv) - Full dump
	OutputBodies // Request and response bodies
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputResults:  VerbosityUser,
	OutputErrors:   VerbosityUser,
	OutputStartup:  VerbosityInfo,
	OutputProgress: VerbosityInfo,
	OutputTokens:   VerbosityDebug,
	OutputTiming:   VerbosityDebug,
	OutputRequests: VerbosityDebug,
	OutputBodies:   VerbosityTrace,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}
