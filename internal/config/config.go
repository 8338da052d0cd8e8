package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-clinical-pdf/internal/matching"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort             = 8080
	DefaultHost             = "127.0.0.1"
	DefaultLogLevel         = "info"
	DefaultMaxFileSize      = 100 * 1024 * 1024 // 100MB
	DefaultDirPerm          = 0o755
	DefaultMinTextLength    = 20
	DefaultLabelBandHeight  = 20.0
	DefaultOCRLanguage      = "eng"
	DefaultPdftoppm         = "pdftoppm"
	DefaultServerName       = "mcp-clinical-pdf"
	EnvPrefix               = "CLINICAL_PDF"
	DefaultThreshold        = matching.DefaultThreshold
	DefaultKeywordThreshold = matching.DefaultKeywordThreshold
)

// Config holds all configuration for the clinical PDF server
type Config struct {
	// Server configuration
	Mode   string // "server" or "stdio"
	Host   string
	Port   int
	APIKey string // bearer token for the HTTP API, empty disables auth

	// PDF configuration
	PDFDirectory string

	// Matching configuration
	Threshold        int     // section heading threshold
	KeywordThreshold int     // referral keyword threshold
	MinTextLength    int     // shortest page text accepted without OCR
	LabelBandHeight  float64 // points above a label searched for its value
	VocabularyFile   string  // optional YAML vocabulary override

	// External engines
	OCRLanguage  string
	PdftoppmPath string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
	ConfigFile  string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:             ModeStdio, // Default to stdio mode for MCP compatibility
		Host:             DefaultHost,
		Port:             DefaultPort,
		PDFDirectory:     currentDir,
		Threshold:        DefaultThreshold,
		KeywordThreshold: DefaultKeywordThreshold,
		MinTextLength:    DefaultMinTextLength,
		LabelBandHeight:  DefaultLabelBandHeight,
		OCRLanguage:      DefaultOCRLanguage,
		PdftoppmPath:     DefaultPdftoppm,
		Version:          "1.0.0",
		ServerName:       DefaultServerName,
		LogLevel:         DefaultLogLevel,
		MaxFileSize:      DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
// Precedence is flags, then environment, then the optional config file.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if err := readConfigFile(); err != nil {
		return nil, err
	}

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("apikey", cfg.APIKey)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("threshold", cfg.Threshold)
	viper.SetDefault("keywordthreshold", cfg.KeywordThreshold)
	viper.SetDefault("mintextlength", cfg.MinTextLength)
	viper.SetDefault("labelband", cfg.LabelBandHeight)
	viper.SetDefault("vocab", cfg.VocabularyFile)
	viper.SetDefault("ocrlang", cfg.OCRLanguage)
	viper.SetDefault("pdftoppm", cfg.PdftoppmPath)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("config", cfg.ConfigFile)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("apikey", cfg.APIKey, "Bearer token required by the HTTP API (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	pflag.Int("threshold", cfg.Threshold, "Section heading match threshold (60-100)")
	pflag.Int("keywordthreshold", cfg.KeywordThreshold, "Referral keyword match threshold (0-100)")
	pflag.Int("mintextlength", cfg.MinTextLength, "Shortest page text accepted before falling back to OCR")
	pflag.Float64("labelband", cfg.LabelBandHeight, "Height in points above a label searched for its value")
	pflag.String("vocab", cfg.VocabularyFile, "YAML file overriding the built-in vocabulary")
	pflag.String("ocrlang", cfg.OCRLanguage, "Tesseract language(s), e.g. 'eng' or 'eng+hin'")
	pflag.String("pdftoppm", cfg.PdftoppmPath, "Path to the pdftoppm binary")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("config", cfg.ConfigFile, "Optional configuration file (yaml, json or toml)")
}

var flagKeys = []string{
	"mode", "host", "port", "apikey", "dir", "threshold", "keywordthreshold", "mintextlength",
	"labelband", "vocab", "ocrlang", "pdftoppm", "loglevel", "maxfilesize", "config",
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range flagKeys {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// readConfigFile loads the file named by --config, if any
func readConfigFile() error {
	path := viper.GetString("config")
	if path == "" {
		return nil
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	return nil
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Clinical PDF - checks discharge summaries and extracts referral forms\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs --threshold=80      "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/pdfs       # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --apikey=secret           # server mode with auth\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		for _, key := range flagKeys {
			fmt.Fprintf(os.Stderr, "  %s_%s\n", EnvPrefix, strings.ToUpper(key))
		}
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.APIKey = viper.GetString("apikey")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.Threshold = viper.GetInt("threshold")
	cfg.KeywordThreshold = viper.GetInt("keywordthreshold")
	cfg.MinTextLength = viper.GetInt("mintextlength")
	cfg.LabelBandHeight = viper.GetFloat64("labelband")
	cfg.VocabularyFile = viper.GetString("vocab")
	cfg.OCRLanguage = viper.GetString("ocrlang")
	cfg.PdftoppmPath = viper.GetString("pdftoppm")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.ConfigFile = viper.GetString("config")
}

// Validate checks if the configuration is valid. The PDF directory does not
// have to exist, so placeholder paths survive until first use.
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if info, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	} else if !info.IsDir() {
		return fmt.Errorf("PDF directory %s is not a directory", c.PDFDirectory)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if err := matching.ValidateThreshold(c.Threshold); err != nil {
		return err
	}
	if c.KeywordThreshold < 0 || c.KeywordThreshold > 100 {
		return fmt.Errorf("keyword threshold must be between 0 and 100, got %d", c.KeywordThreshold)
	}
	if c.MinTextLength < 1 {
		return errors.New("minimum text length must be positive")
	}
	if c.LabelBandHeight <= 0 {
		return errors.New("label band height must be positive")
	}
	if strings.TrimSpace(c.OCRLanguage) == "" {
		return errors.New("OCR language cannot be empty")
	}
	if c.PdftoppmPath == "" {
		return errors.New("pdftoppm path cannot be empty")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// SlogLevel maps the configured log level to a slog level
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OCRLanguages splits the Tesseract language setting on '+' and ','
func (c *Config) OCRLanguages() []string {
	fields := strings.FieldsFunc(c.OCRLanguage, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
	return fields
}

// String returns a string representation of the configuration. The API key
// is never printed.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"Threshold: %d, KeywordThreshold: %d, OCRLanguage: %s, Auth: %t}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize,
		c.Threshold, c.KeywordThreshold, c.OCRLanguage, c.APIKey != "")
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
