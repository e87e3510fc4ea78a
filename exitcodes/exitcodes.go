// Package exitcodes defines the standard exit codes used by op-campaign.
package exitcodes

// Exit code constants used by op-campaign
// These constants define the exit codes that the application uses to
// indicate various states when it exits:
//
// * Success (0): Used when the overall campaign result is OK
// * TestFailure (1): Used when one or more test cases fail
// * RuntimeErr (2): Used for runtime errors such as panics or bad configuration
const (
	Success     = 0 // Overall result OK
	TestFailure = 1 // Test-case failures
	RuntimeErr  = 2 // Runtime errors or bad configuration
)
