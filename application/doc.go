// Package application wraps one unit of work with the bootstrap, run and
// shutdown phases.
//
// Bootstrap installs the error-handling hooks before any user code runs and
// registers Shutdown as an exit hook, so the timing report is produced even
// when the process terminates abnormally. Shutdown uninstalls the hooks after
// the last instrumented phase and logs the lap report at debug level:
//
//	{"lapTimer":{"laps":{"bootstrap: start":0,...},"totalLaps":5,"totalTime":1.23}}
package application
