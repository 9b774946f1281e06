package config

import (
	"context"
	"time"

	"github.com/mudler/LocalSRS/pkg/downloader"
	"github.com/mudler/LocalSRS/pkg/transcribe"
)

type ApplicationConfig struct {
	Context       context.Context
	SessionsPath  string
	PresetsPath   string
	TemplatesPath string

	DynamicConfigsDir             string
	DynamicConfigsDirPollInterval time.Duration

	APIAddress       string
	UploadLimitMB    int
	CORS             bool
	CSRF             bool
	CORSAllowOrigins string
	ApiKeys          []string
	OIDCIssuer       string
	OIDCClientID     string
	MachineTag       string

	Debug                  bool
	OpaqueErrors           bool
	UseSubtleKeyComparison bool
	DisableMetrics         bool
	DisableWelcomePage     bool
	EnableTracing          bool
	TracingMaxItems        int

	MaxSessionAgeHours float64
	SweepInterval      time.Duration
	SweepCron          string

	JobWorkers int

	Transcribe   transcribe.Config
	S3           downloader.S3Options
	YTDLPBinary  string
	PythonBinary string

	VADModelPath string
	VADMaxShift  float64

	DatabaseDSN string
	NATSAddress string

	AllowLocalSources bool
}

type AppOption func(*ApplicationConfig)

func NewApplicationConfig(o ...AppOption) *ApplicationConfig {
	opt := &ApplicationConfig{
		Context:            context.Background(),
		SessionsPath:       "sessions",
		UploadLimitMB:      512,
		JobWorkers:         3,
		MaxSessionAgeHours: 1.0,
		SweepInterval:      15 * time.Minute,
		TracingMaxItems:    100,
	}
	for _, oo := range o {
		oo(opt)
	}
	return opt
}

func WithContext(ctx context.Context) AppOption {
	return func(o *ApplicationConfig) {
		o.Context = ctx
	}
}

func WithSessionsPath(path string) AppOption {
	return func(o *ApplicationConfig) {
		o.SessionsPath = path
	}
}

func WithPresetsPath(path string) AppOption {
	return func(o *ApplicationConfig) {
		o.PresetsPath = path
	}
}

func WithTemplatesPath(path string) AppOption {
	return func(o *ApplicationConfig) {
		o.TemplatesPath = path
	}
}

func WithDynamicConfigDir(path string) AppOption {
	return func(o *ApplicationConfig) {
		o.DynamicConfigsDir = path
	}
}

func WithDynamicConfigDirPollInterval(interval time.Duration) AppOption {
	return func(o *ApplicationConfig) {
		o.DynamicConfigsDirPollInterval = interval
	}
}

func WithAPIAddress(address string) AppOption {
	return func(o *ApplicationConfig) {
		o.APIAddress = address
	}
}

func WithUploadLimitMB(limit int) AppOption {
	return func(o *ApplicationConfig) {
		o.UploadLimitMB = limit
	}
}

func WithCors(b bool) AppOption {
	return func(o *ApplicationConfig) {
		o.CORS = b
	}
}

func WithCorsAllowOrigins(s string) AppOption {
	return func(o *ApplicationConfig) {
		o.CORSAllowOrigins = s
	}
}

func WithCsrf(b bool) AppOption {
	return func(o *ApplicationConfig) {
		o.CSRF = b
	}
}

func WithApiKeys(keys []string) AppOption {
	return func(o *ApplicationConfig) {
		o.ApiKeys = keys
	}
}

func WithOIDC(issuer, clientID string) AppOption {
	return func(o *ApplicationConfig) {
		o.OIDCIssuer = issuer
		o.OIDCClientID = clientID
	}
}

func WithMachineTag(tag string) AppOption {
	return func(o *ApplicationConfig) {
		o.MachineTag = tag
	}
}

func WithDebug(debug bool) AppOption {
	return func(o *ApplicationConfig) {
		o.Debug = debug
	}
}

func WithOpaqueErrors(opaque bool) AppOption {
	return func(o *ApplicationConfig) {
		o.OpaqueErrors = opaque
	}
}

func WithSubtleKeyComparison(b bool) AppOption {
	return func(o *ApplicationConfig) {
		o.UseSubtleKeyComparison = b
	}
}

var DisableMetricsEndpoint AppOption = func(o *ApplicationConfig) {
	o.DisableMetrics = true
}

var DisableWelcomePage AppOption = func(o *ApplicationConfig) {
	o.DisableWelcomePage = true
}

var EnableTracing AppOption = func(o *ApplicationConfig) {
	o.EnableTracing = true
}

func WithTracingMaxItems(n int) AppOption {
	return func(o *ApplicationConfig) {
		o.TracingMaxItems = n
	}
}

func WithMaxSessionAgeHours(hours float64) AppOption {
	return func(o *ApplicationConfig) {
		if hours > 0 {
			o.MaxSessionAgeHours = hours
		}
	}
}

func WithSweepInterval(interval time.Duration) AppOption {
	return func(o *ApplicationConfig) {
		if interval > 0 {
			o.SweepInterval = interval
		}
	}
}

func WithSweepCron(schedule string) AppOption {
	return func(o *ApplicationConfig) {
		o.SweepCron = schedule
	}
}

func WithJobWorkers(n int) AppOption {
	return func(o *ApplicationConfig) {
		if n > 0 {
			o.JobWorkers = n
		}
	}
}

func WithTranscribeConfig(cfg transcribe.Config) AppOption {
	return func(o *ApplicationConfig) {
		o.Transcribe = cfg
	}
}

func WithS3Options(s3 downloader.S3Options) AppOption {
	return func(o *ApplicationConfig) {
		o.S3 = s3
	}
}

func WithYTDLPBinary(path string) AppOption {
	return func(o *ApplicationConfig) {
		o.YTDLPBinary = path
	}
}

func WithPythonBinary(path string) AppOption {
	return func(o *ApplicationConfig) {
		o.PythonBinary = path
	}
}

func WithVAD(modelPath string, maxShift float64) AppOption {
	return func(o *ApplicationConfig) {
		o.VADModelPath = modelPath
		o.VADMaxShift = maxShift
	}
}

func WithDatabaseDSN(dsn string) AppOption {
	return func(o *ApplicationConfig) {
		o.DatabaseDSN = dsn
	}
}

func WithNATSAddress(address string) AppOption {
	return func(o *ApplicationConfig) {
		o.NATSAddress = address
	}
}

var AllowLocalSources AppOption = func(o *ApplicationConfig) {
	o.AllowLocalSources = true
}
