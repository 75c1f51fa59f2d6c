package config

// Config is the top-level skapsec configuration, corresponding to .skapsec.yml.
type Config struct {
	ListenPort            int       `yaml:"listen_port" koanf:"listen_port"`
	ScoringURL            string    `yaml:"scoring_url" koanf:"scoring_url"`
	RequestTimeoutSeconds int       `yaml:"request_timeout_seconds" koanf:"request_timeout_seconds"`
	RateLimitRPM          int       `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	RateLimitBurst        int       `yaml:"rate_limit_burst" koanf:"rate_limit_burst"`
	DataDir               string    `yaml:"data_dir" koanf:"data_dir"`
	HistoryLimit          int       `yaml:"history_limit" koanf:"history_limit"`
	PublicOrigin          string    `yaml:"public_origin" koanf:"public_origin"`
	AllowedOrigins        []string  `yaml:"allowed_origins" koanf:"allowed_origins"`
	AllowAllOrigins       bool      `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	Log                   LogConfig `yaml:"log" koanf:"log"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `yaml:"level" koanf:"level"`
	File  string `yaml:"file" koanf:"file"`
}
