package config

// DefaultConfigFile is the config path used when --config is not given.
const DefaultConfigFile = ".skapsec.yml"

// DefaultAllowedOrigins are the CORS origins accepted outside of dev mode.
var DefaultAllowedOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenPort:            8080,
		ScoringURL:            "http://localhost:5000",
		RequestTimeoutSeconds: 30,
		RateLimitRPM:          60,
		RateLimitBurst:        5,
		DataDir:               "data",
		HistoryLimit:          20,
		AllowedOrigins:        append([]string(nil), DefaultAllowedOrigins...),
		Log: LogConfig{
			Level: "info",
		},
	}
}
