package application

import (
	"context"
	"errors"

	"appshell/exithook"
)

func defaultExitHooks() ExitRegistrar {
	return exithook.Default()
}

// Execute runs the three phases in order. A run error is handed to the
// error-handling service before shutdown and returned afterwards.
func Execute(ctx context.Context, app *Application) error {
	if err := app.Bootstrap(ctx); err != nil {
		return err
	}

	runErr := app.Run(ctx)
	if runErr != nil {
		app.handleRunError(runErr)
	}

	if err := app.Shutdown(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
