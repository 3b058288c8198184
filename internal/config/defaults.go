package config

const (
	defaultDataDir             = "~/.local/share/antree"
	defaultLogDir              = "~/.local/share/antree/logs"
	defaultAPIBind             = "127.0.0.1:7461"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultHubIdleTimeout      = 300
	defaultHubSweepInterval    = 300
	defaultHubKeepAlive        = 30
	defaultHubClientBuffer     = 64
	defaultMetricsWindow       = 300
	defaultMetricsMaxSamples   = 10000
	defaultShutdownGraceSecond = 10
)

// ShutdownGraceSeconds is the bound on graceful daemon shutdown.
const ShutdownGraceSeconds = defaultShutdownGraceSecond

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Hub: Hub{
			IdleTimeoutSeconds:   defaultHubIdleTimeout,
			SweepIntervalSeconds: defaultHubSweepInterval,
			KeepAliveSeconds:     defaultHubKeepAlive,
			ClientBuffer:         defaultHubClientBuffer,
		},
		Metrics: Metrics{
			WindowSeconds: defaultMetricsWindow,
			MaxSamples:    defaultMetricsMaxSamples,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
