package application

import (
	"fmt"
	"net/http"

	"appshell/config"
	"appshell/serverrequest"
	"appshell/stopwatch"

	"go.uber.org/zap"
)

// LoggerName is the container logger used by applications.
const LoggerName = "application"

// ServiceContainer provides the shared services applications are built with.
type ServiceContainer interface {
	GetLogger(name string) *zap.SugaredLogger
	GetConfigurationGetter() *config.Getter
}

// ErrorHandlingServiceFactory creates one error-handling service per application.
type ErrorHandlingServiceFactory interface {
	CreateErrorHandlingService() ErrorHandlingService
}

// ErrorHandlingServiceFactoryFunc adapts a function to ErrorHandlingServiceFactory.
type ErrorHandlingServiceFactoryFunc func() ErrorHandlingService

// CreateErrorHandlingService calls f().
func (f ErrorHandlingServiceFactoryFunc) CreateErrorHandlingService() ErrorHandlingService {
	return f()
}

// ApplicationRunnerFactory builds the runner for a server request.
type ApplicationRunnerFactory interface {
	CreateApplicationRunner(req *serverrequest.ServerRequest) ApplicationRunner
}

// ApplicationRunnerFactoryFunc adapts a function to ApplicationRunnerFactory.
type ApplicationRunnerFactoryFunc func(req *serverrequest.ServerRequest) ApplicationRunner

// CreateApplicationRunner calls f(req).
func (f ApplicationRunnerFactoryFunc) CreateApplicationRunner(req *serverrequest.ServerRequest) ApplicationRunner {
	return f(req)
}

// ServerRequestFactory builds a server request from raw data.
type ServerRequestFactory interface {
	CreateServerRequestFromServerData(allowedHosts []string, data serverrequest.ServerData) (*serverrequest.ServerRequest, error)
}

// CommandApplicationFactory creates command line applications.
type CommandApplicationFactory struct {
	errorHandling ErrorHandlingServiceFactory
	container     ServiceContainer
}

// NewCommandApplicationFactory returns a CommandApplicationFactory.
func NewCommandApplicationFactory(ehf ErrorHandlingServiceFactory, c ServiceContainer) *CommandApplicationFactory {
	return &CommandApplicationFactory{errorHandling: ehf, container: c}
}

// CreateCommandApplication wires runner with a fresh error-handling service
// and the "application" logger.
func (f *CommandApplicationFactory) CreateCommandApplication(timer *stopwatch.LapTimer, runner Runner, opts ...Option) *Application {
	return New(
		runner,
		f.errorHandling.CreateErrorHandlingService(),
		f.container.GetLogger(LoggerName),
		timer,
		opts...,
	)
}

// ServerApplicationFactory creates applications serving one request.
type ServerApplicationFactory struct {
	runners       ApplicationRunnerFactory
	errorHandling ErrorHandlingServiceFactory
	container     ServiceContainer
	requests      ServerRequestFactory
}

// NewServerApplicationFactory returns a ServerApplicationFactory.
func NewServerApplicationFactory(
	runners ApplicationRunnerFactory,
	ehf ErrorHandlingServiceFactory,
	c ServiceContainer,
	requests ServerRequestFactory,
) *ServerApplicationFactory {
	return &ServerApplicationFactory{
		runners:       runners,
		errorHandling: ehf,
		container:     c,
		requests:      requests,
	}
}

// CreateServerApplication resolves the host allowlist, builds the server
// request from data and wires the runner created for it. A malformed
// allowlist fails before any request is built.
func (f *ServerApplicationFactory) CreateServerApplication(timer *stopwatch.LapTimer, data serverrequest.ServerData, opts ...Option) (*Application, error) {
	hosts, err := AllowedHosts(f.container.GetConfigurationGetter())
	if err != nil {
		return nil, err
	}

	req, err := f.requests.CreateServerRequestFromServerData(hosts, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create server request: %w", err)
	}

	return New(
		ApplicationRunnerOf(f.runners.CreateApplicationRunner(req)),
		f.errorHandling.CreateErrorHandlingService(),
		f.container.GetLogger(LoggerName),
		timer,
		opts...,
	), nil
}

// CreateHTTPServerApplication builds the application for an incoming *http.Request.
func (f *ServerApplicationFactory) CreateHTTPServerApplication(timer *stopwatch.LapTimer, r *http.Request, opts ...Option) (*Application, error) {
	data, err := serverrequest.FromHTTPRequest(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read http request: %w", err)
	}
	return f.CreateServerApplication(timer, data, opts...)
}

// CreateDefaultServerApplication builds the application from the CGI
// environment of the current process.
func (f *ServerApplicationFactory) CreateDefaultServerApplication(timer *stopwatch.LapTimer, opts ...Option) (*Application, error) {
	data, err := serverrequest.FromCGIEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to read cgi environment: %w", err)
	}
	return f.CreateServerApplication(timer, data, opts...)
}
