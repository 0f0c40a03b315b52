// Package errhandling installs and removes the process-wide error interception
// used while an application lifecycle is active.
//
// Installing the service routes the global zap logger and the standard library
// logger through the service's logger. Errors recorded with RecordStartupError
// before any service existed are replayed by HandlePreExecutionErrors.
package errhandling
