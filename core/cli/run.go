package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mudler/xlog"

	"github.com/mudler/LocalSRS/core/application"
	cliContext "github.com/mudler/LocalSRS/core/cli/context"
	"github.com/mudler/LocalSRS/core/config"
	"github.com/mudler/LocalSRS/core/http"
	"github.com/mudler/LocalSRS/internal"
	"github.com/mudler/LocalSRS/pkg/downloader"
	"github.com/mudler/LocalSRS/pkg/signals"
	"github.com/mudler/LocalSRS/pkg/transcribe"
)

type RunCMD struct {
	SessionsPath           string        `env:"LOCALSRS_SESSIONS_PATH,SESSIONS_PATH" type:"path" default:"${basepath}/sessions" help:"Path holding the per-session caches and media" group:"storage"`
	PresetsPath            string        `env:"LOCALSRS_PRESETS_PATH,PRESETS_PATH" type:"path" help:"Directory of preset YAML files, hot reloaded on change" group:"storage"`
	TemplatesPath          string        `env:"LOCALSRS_TEMPLATES_PATH,TEMPLATES_PATH" type:"path" help:"Directory of sentence/deck-name template overrides" group:"storage"`
	ConfigDir              string        `env:"LOCALSRS_CONFIG_DIR" type:"path" help:"Directory for dynamic loading of certain configuration files (currently api_keys.json)" group:"storage"`
	ConfigDirPollInterval  time.Duration `env:"LOCALSRS_CONFIG_DIR_POLL_INTERVAL" help:"Typically the config path picks up changes automatically, but if your system has broken fsnotify events, set this to an interval to poll the config dir (example: 1m)" group:"storage"`
	DatabaseDSN            string        `env:"LOCALSRS_DATABASE_DSN,DATABASE_DSN" help:"Deck history database: a postgres:// DSN, or a SQLite path. Defaults to decks.db under the sessions path" group:"storage"`

	Address                string   `env:"LOCALSRS_ADDRESS,ADDRESS" default:":8080" help:"Bind address for the API server" group:"api"`
	CORS                   bool     `env:"LOCALSRS_CORS,CORS" help:"" group:"api"`
	CORSAllowOrigins       string   `env:"LOCALSRS_CORS_ALLOW_ORIGINS,CORS_ALLOW_ORIGINS" group:"api"`
	CSRF                   bool     `env:"LOCALSRS_CSRF" help:"Enables CSRF middleware" group:"api"`
	UploadLimit            int      `env:"LOCALSRS_UPLOAD_LIMIT,UPLOAD_LIMIT" default:"512" help:"Default upload-limit in MB" group:"api"`
	APIKeys                []string `env:"LOCALSRS_API_KEY,API_KEY" help:"List of API Keys to enable API authentication. When this is set, all the requests must be authenticated with one of these API keys" group:"api"`
	MachineTag             string   `env:"LOCALSRS_MACHINE_TAG,MACHINE_TAG" help:"Add Machine-Tag header to each response which is useful to track the machine answering behind a load balancer" group:"api"`
	DisableMetricsEndpoint bool     `env:"LOCALSRS_DISABLE_METRICS_ENDPOINT,DISABLE_METRICS_ENDPOINT" default:"false" help:"Disable the /metrics endpoint" group:"api"`
	DisableWelcomePage     bool     `env:"LOCALSRS_DISABLE_WELCOME,DISABLE_WELCOME" default:"false" help:"Disable the welcome page, the server only exposes API endpoints" group:"api"`
	EnableTracing          bool     `env:"LOCALSRS_ENABLE_TRACING,ENABLE_TRACING" help:"Keep recent pipeline stage traces in memory, served at /v1/traces" group:"api"`
	TracingMaxItems        int      `env:"LOCALSRS_TRACING_MAX_ITEMS" default:"100" help:"Maximum number of stage traces to keep" group:"api"`

	OpaqueErrors           bool   `env:"LOCALSRS_OPAQUE_ERRORS" default:"false" help:"If true, all error responses are replaced with blank 500 errors. This is intended only for hardening against information leaks and is normally not recommended." group:"hardening"`
	UseSubtleKeyComparison bool   `env:"LOCALSRS_SUBTLE_KEY_COMPARISON" default:"false" help:"If true, API Key validation comparisons will be performed using constant-time comparisons rather than simple equality. This trades off performance on each request for resiliancy against timing attacks." group:"hardening"`
	OIDCIssuer             string `env:"LOCALSRS_OIDC_ISSUER" help:"OIDC issuer URL; bearer tokens it signs are accepted next to static API keys" group:"hardening"`
	OIDCClientID           string `env:"LOCALSRS_OIDC_CLIENT_ID" help:"Expected audience of OIDC tokens; empty skips the audience check" group:"hardening"`
	AllowLocalSources      bool   `env:"LOCALSRS_ALLOW_LOCAL_SOURCES" default:"false" help:"Allow file:// and bare path sources in download requests. Off by default, as it lets API clients read server files" group:"hardening"`

	MaxSessionAge float64 `env:"LOCALSRS_MAX_SESSION_AGE_HOURS" default:"1" help:"Hours of inactivity after which a session expires" group:"sessions"`
	SweepInterval time.Duration `env:"LOCALSRS_SWEEP_INTERVAL" default:"15m" help:"How often expired sessions are swept" group:"sessions"`
	SweepCron     string        `env:"LOCALSRS_SWEEP_CRON" help:"Six-field cron expression (seconds first) for the session sweep; takes precedence over the interval when set" group:"sessions"`

	JobWorkers  int     `env:"LOCALSRS_JOB_WORKERS" default:"3" help:"How many videos of one job are processed in parallel" group:"pipeline"`
	VADModel    string  `env:"LOCALSRS_VAD_MODEL" type:"path" help:"Silero VAD onnx model used to refine clip boundaries; empty disables refinement" group:"pipeline"`
	VADMaxShift float64 `env:"LOCALSRS_VAD_MAX_SHIFT" default:"0.25" help:"How far voice activity detection may move a clip boundary, in seconds" group:"pipeline"`

	TranscribeBackend string `env:"LOCALSRS_TRANSCRIBE_BACKEND,TRANSCRIBE_BACKEND" default:"assemblyai" help:"Transcription backend: assemblyai, openai or whisper" group:"transcription"`
	TranscribeAPIKey  string `env:"LOCALSRS_TRANSCRIBE_API_KEY,ASSEMBLYAI_API_KEY" help:"API key for the transcription backend" group:"transcription"`
	TranscribeBaseURL string `env:"LOCALSRS_TRANSCRIBE_BASE_URL" help:"Base URL for the openai backend, to point it at any compatible server" group:"transcription"`
	TranscribeModel   string `env:"LOCALSRS_TRANSCRIBE_MODEL" help:"Transcription model name, backend-specific" group:"transcription"`
	WhisperBinary     string `env:"LOCALSRS_WHISPER_BINARY" help:"whisper-server binary for the managed whisper backend" group:"transcription"`
	WhisperModel      string `env:"LOCALSRS_WHISPER_MODEL" type:"path" help:"Model file for the managed whisper backend" group:"transcription"`

	S3Region    string `env:"LOCALSRS_S3_REGION,AWS_REGION" help:"Region for s3:// sources" group:"sources"`
	S3Endpoint  string `env:"LOCALSRS_S3_ENDPOINT" help:"Custom S3 endpoint, for MinIO and friends" group:"sources"`
	S3AccessKey string `env:"LOCALSRS_S3_ACCESS_KEY,AWS_ACCESS_KEY_ID" help:"Access key for s3:// sources" group:"sources"`
	S3SecretKey string `env:"LOCALSRS_S3_SECRET_KEY,AWS_SECRET_ACCESS_KEY" help:"Secret key for s3:// sources" group:"sources"`
	S3Anonymous bool   `env:"LOCALSRS_S3_ANONYMOUS" help:"Fetch s3:// sources without credentials" group:"sources"`
	YTDLPBinary string `env:"LOCALSRS_YTDLP_BINARY" help:"yt-dlp binary for streaming sources, defaults to yt-dlp on PATH" group:"sources"`

	PythonBinary string `env:"LOCALSRS_PYTHON_BINARY" help:"python3 binary running the genanki helper, defaults to python3 on PATH" group:"tools"`

	NATSAddress string `env:"LOCALSRS_NATS_ADDRESS,NATS_ADDRESS" help:"NATS server publishing job lifecycle events; empty keeps events in-process" group:"events"`

	Version bool
}

func (r *RunCMD) Run(ctx *cliContext.Context) error {
	if r.Version {
		fmt.Println(internal.PrintableVersion())
		return nil
	}

	opts := []config.AppOption{
		config.WithContext(context.Background()),
		config.WithSessionsPath(r.SessionsPath),
		config.WithPresetsPath(r.PresetsPath),
		config.WithTemplatesPath(r.TemplatesPath),
		config.WithDynamicConfigDir(r.ConfigDir),
		config.WithDynamicConfigDirPollInterval(r.ConfigDirPollInterval),
		config.WithDatabaseDSN(r.DatabaseDSN),
		config.WithAPIAddress(r.Address),
		config.WithCors(r.CORS),
		config.WithCorsAllowOrigins(r.CORSAllowOrigins),
		config.WithCsrf(r.CSRF),
		config.WithUploadLimitMB(r.UploadLimit),
		config.WithApiKeys(r.APIKeys),
		config.WithOIDC(r.OIDCIssuer, r.OIDCClientID),
		config.WithMachineTag(r.MachineTag),
		config.WithDebug(ctx.Debug || (ctx.LogLevel != nil && *ctx.LogLevel == "debug")),
		config.WithOpaqueErrors(r.OpaqueErrors),
		config.WithSubtleKeyComparison(r.UseSubtleKeyComparison),
		config.WithMaxSessionAgeHours(r.MaxSessionAge),
		config.WithSweepInterval(r.SweepInterval),
		config.WithSweepCron(r.SweepCron),
		config.WithJobWorkers(r.JobWorkers),
		config.WithTranscribeConfig(transcribe.Config{
			Backend:       r.TranscribeBackend,
			APIKey:        r.TranscribeAPIKey,
			BaseURL:       r.TranscribeBaseURL,
			Model:         r.TranscribeModel,
			WhisperBinary: r.WhisperBinary,
			WhisperModel:  r.WhisperModel,
		}),
		config.WithS3Options(downloader.S3Options{
			Region:    r.S3Region,
			Endpoint:  r.S3Endpoint,
			AccessKey: r.S3AccessKey,
			SecretKey: r.S3SecretKey,
			Anonymous: r.S3Anonymous,
		}),
		config.WithYTDLPBinary(r.YTDLPBinary),
		config.WithPythonBinary(r.PythonBinary),
		config.WithVAD(r.VADModel, r.VADMaxShift),
		config.WithNATSAddress(r.NATSAddress),
		config.WithTracingMaxItems(r.TracingMaxItems),
	}

	if r.DisableMetricsEndpoint {
		opts = append(opts, config.DisableMetricsEndpoint)
	}
	if r.DisableWelcomePage {
		opts = append(opts, config.DisableWelcomePage)
	}
	if r.EnableTracing {
		opts = append(opts, config.EnableTracing)
	}
	if r.AllowLocalSources {
		opts = append(opts, config.AllowLocalSources)
	}

	app, err := application.New(opts...)
	if err != nil {
		return fmt.Errorf("failed basic startup tasks with error %s", err.Error())
	}

	appHTTP, err := http.API(app)
	if err != nil {
		xlog.Error("error during HTTP App construction", "error", err)
		return err
	}

	xlog.Info("LocalSRS is started and running", "address", r.Address)

	signals.OnTermination(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := appHTTP.Shutdown(shutdownCtx); err != nil {
			xlog.Error("error while stopping the HTTP server", "error", err)
		}
		if err := app.Shutdown(shutdownCtx); err != nil {
			xlog.Error("error during shutdown", "error", err)
		}
	})

	return appHTTP.Start(r.Address)
}
