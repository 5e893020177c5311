package main

// Build-time variables 'version', 'commit', and 'date' are declared in
// root.go and populated via -ldflags.

// main is the entry point for the bq-bootstrap application. Execute sets up
// and runs the root Cobra command; error printing and exit codes follow
// Cobra's Execute pattern.
func main() {
	Execute()
}
