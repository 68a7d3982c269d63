package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (bad config, impossible dimensionality or perplexity)
	ExitDataError   = 3 // Data error (unreadable corpus or export, non-finite layout)
	ExitNotFound    = 4 // Article not in the export
)
