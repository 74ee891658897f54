package app

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/otpdeck/internal/authenticator"
	"github.com/shandysiswandi/otpdeck/internal/pkg/clock"
	"github.com/shandysiswandi/otpdeck/internal/pkg/config"
	"github.com/shandysiswandi/otpdeck/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpdeck/internal/pkg/instrument"
	"github.com/shandysiswandi/otpdeck/internal/pkg/otp"
	"github.com/shandysiswandi/otpdeck/internal/pkg/router"
	"github.com/shandysiswandi/otpdeck/internal/pkg/storage"
	"github.com/shandysiswandi/otpdeck/internal/pkg/uid"
	"github.com/shandysiswandi/otpdeck/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config   config.Config
	settings settings
	ins      instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uuid      uid.StringID
	totp      otp.Engine

	// resources
	storage storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	// modules
	authenticator *authenticator.Module

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App
// instance. Any failure here is fatal and exits the process before the
// scheduler is polled.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initSettings()
	app.initStorage()
	app.initHTTPServer()
	app.initClosers()
	app.waitClock()
	app.initModules()

	return app
}
