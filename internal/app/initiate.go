package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	gcs "cloud.google.com/go/storage"
	libOTP "github.com/pquerna/otp"
	"github.com/rs/cors"
	"github.com/shandysiswandi/otpdeck/internal/authenticator"
	"github.com/shandysiswandi/otpdeck/internal/authenticator/outbound/source"
	"github.com/shandysiswandi/otpdeck/internal/pkg/clock"
	"github.com/shandysiswandi/otpdeck/internal/pkg/config"
	"github.com/shandysiswandi/otpdeck/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdeck/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpdeck/internal/pkg/instrument"
	"github.com/shandysiswandi/otpdeck/internal/pkg/otp"
	"github.com/shandysiswandi/otpdeck/internal/pkg/router"
	"github.com/shandysiswandi/otpdeck/internal/pkg/storage"
	"github.com/shandysiswandi/otpdeck/internal/pkg/uid"
	"github.com/shandysiswandi/otpdeck/internal/pkg/validator"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

func (a *App) initConfig() {
	cfg, err := config.NewViper(configPath())
	if err != nil {
		slog.Error("failed to init config", "error", goerror.NewInvalidConfig(err))
		os.Exit(1)
	}

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.ctx)

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator
}

func (a *App) initSettings() {
	s, err := checkedSettings(a.config, a.validator)
	if err != nil {
		slog.Error("failed to validate settings", "error", goerror.NewInvalidConfig(err))
		os.Exit(1)
	}

	algorithm, err := otp.ParseAlgorithm(s.Algorithm)
	if err != nil {
		slog.Error("failed to init totp engine", "error", goerror.NewInvalidConfig(err))
		os.Exit(1)
	}

	digits := libOTP.DigitsSix
	if s.Digits == 8 {
		digits = libOTP.DigitsEight
	}

	a.totp = otp.NewTOTP(s.PeriodSeconds, digits, algorithm)
	a.settings = s
}

//nolint:gocognit // it's fine
func (a *App) initStorage() {
	driver := strings.TrimSpace(a.settings.SecretsDriver)

	var gcsClient *gcs.Client
	if driver == storage.DriverGCS {
		gcsOptions := []option.ClientOption{}
		if a.config.GetBool("storage.gcs.without_auth") {
			gcsOptions = append(gcsOptions, option.WithoutAuthentication())
		}
		if v := strings.TrimSpace(a.config.GetString("storage.gcs.credentials_file")); v != "" {
			// #nosec G304 -- path is from trusted config file.
			credsJSON, err := os.ReadFile(v)
			if err != nil {
				slog.Error("failed to read gcs credentials file", "error", err)
				os.Exit(1)
			}
			creds, err := google.CredentialsFromJSON(a.ctx, credsJSON, gcs.ScopeReadOnly)
			if err != nil {
				slog.Error("failed to parse gcs credentials file", "error", err)
				os.Exit(1)
			}
			gcsOptions = append(gcsOptions, option.WithCredentials(creds))
		}
		if v := a.config.GetBinary("storage.gcs.credentials_json"); len(v) > 0 {
			creds, err := google.CredentialsFromJSON(a.ctx, v, gcs.ScopeReadOnly)
			if err != nil {
				slog.Error("failed to parse gcs credentials json", "error", err)
				os.Exit(1)
			}
			gcsOptions = append(gcsOptions, option.WithCredentials(creds))
		}
		if v := strings.TrimSpace(a.config.GetString("storage.gcs.endpoint")); v != "" {
			gcsOptions = append(gcsOptions, option.WithEndpoint(v))
		}
		if len(gcsOptions) > 0 {
			client, err := gcs.NewClient(a.ctx, gcsOptions...)
			if err != nil {
				slog.Error("failed to init gcs client", "error", err)
				os.Exit(1)
			}
			gcsClient = client
		}
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			Client: gcsClient,
		},
		MinIO: storage.MinIOOptions{
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	if err != nil {
		slog.Error("failed to init storage", "error", goerror.NewStorageUnavailable(err), "driver", driver)
		os.Exit(1)
	}

	a.storage = stg
}

func (a *App) initHTTPServer() {
	if !a.settings.HTTPEnabled {
		return
	}

	a.router = router.NewRouter(router.Config{
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.settings.HTTPCORS,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.settings.HTTPAddress,
		Handler:           routerWithCORS,
		ReadHeaderTimeout: a.config.GetSecond("display.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("display.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("display.http.idle_timeout_seconds"),
	}
}

func (a *App) waitClock() {
	if err := clock.WaitSynchronized(a.ctx, a.clock, a.settings.NotBefore, a.settings.SyncTimeout); err != nil {
		slog.Error("failed to synchronize wall clock", "error", goerror.NewClockUnsynchronized(err))
		os.Exit(1)
	}
}

func (a *App) initModules() {
	srcCfg := source.Config{
		Bucket:  a.settings.SecretsBucket,
		Key:     a.settings.SecretsKey,
		Timeout: a.settings.FetchTimeout,
	}
	if storage.IsRemote(a.settings.SecretsDriver) {
		srcCfg.MaxRetries = uint64(a.settings.FetchMaxRetries)
	}
	box, err := newBox(&a.settings)
	if err != nil {
		slog.Error("failed to init secrets unsealer", "error", goerror.NewInvalidConfig(err))
		os.Exit(1)
	}
	if box != nil {
		srcCfg.Unsealer = box
	}

	dep := authenticator.Dependency{
		Storage:      a.storage,
		Instrument:   a.ins,
		Clock:        a.clock,
		Engine:       a.totp,
		Validator:    a.validator,
		Router:       a.router,
		Source:       srcCfg,
		NotBefore:    a.settings.NotBefore,
		PollInterval: a.settings.PollInterval,
	}
	if a.settings.TerminalEnabled {
		dep.Terminal = os.Stdout
	}

	module, err := authenticator.New(dep)
	if err != nil {
		slog.Error("failed to init module authenticator", "error", err)
		os.Exit(1)
	}

	if _, err := module.Provision(a.ctx); err != nil {
		slog.Error("failed to load secrets", "error", err, "fatal", goerror.IsFatal(err))
		os.Exit(1)
	}

	a.authenticator = module
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Storage",
			fn: func(context.Context) error {
				return a.storage.Close()
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
