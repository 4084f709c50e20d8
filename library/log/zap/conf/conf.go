package conf

const (
	ModeDev  = "dev"
	ModeProd = "prod"
)

type Rotate struct {
	MaxSizeMB  int  `json:"max_size_mb"`
	MaxBackups int  `json:"max_backups"`
	MaxAgeDays int  `json:"max_age_days"`
	Compress   bool `json:"compress"`
	LocalTime  bool `json:"local_time"`
}

// Logger configures the process logger. Console output is always on; prod mode adds rotated files.
type Logger struct {
	Mode       string   `json:"mode"`
	AppName    string   `json:"app_name"`
	Level      string   `json:"level"`
	Directory  string   `json:"directory"`
	FormatJson bool     `json:"format_json"`
	ErrorFile  bool     `json:"error_file"`
	Sensitive  []string `json:"sensitive"`
	Rotate     *Rotate  `json:"rotate"`
}

func DefaultConfig(opts ...Option) *Logger {
	c := &Logger{
		Mode:       ModeDev,
		AppName:    "app",
		Level:      "debug",
		Directory:  "./logs",
		FormatJson: false,
		ErrorFile:  false,
		Sensitive:  []string{},
		Rotate: &Rotate{
			MaxSizeMB:  100,
			MaxBackups: 7,
			MaxAgeDays: 7,
			Compress:   true,
			LocalTime:  true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Option func(*Logger)

func WithAppName(appName string) Option {
	return func(c *Logger) { c.AppName = appName }
}

func WithProduction() Option {
	return func(c *Logger) {
		c.Mode = ModeProd
		c.Level = "info"
	}
}

func WithLevel(level string) Option {
	return func(c *Logger) { c.Level = level }
}

func WithDirectory(dir string) Option {
	return func(c *Logger) { c.Directory = dir }
}

func WithFormatJson(enabled bool) Option {
	return func(c *Logger) { c.FormatJson = enabled }
}

func WithErrorFile(enabled bool) Option {
	return func(c *Logger) { c.ErrorFile = enabled }
}

func WithSensitive(keys []string) Option {
	return func(c *Logger) { c.Sensitive = keys }
}
