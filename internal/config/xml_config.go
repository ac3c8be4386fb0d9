// Package config provides XML-based configuration for the floor planner
// server, created with defaults on first run and overridable from the
// environment.
package config

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wedding-planner/backend/internal/engine"
	"github.com/wedding-planner/backend/internal/models"
)

// AppConfig is the root of the XML configuration file.
type AppConfig struct {
	XMLName xml.Name `xml:"FloorPlanner"`

	Server     ServerConfig     `xml:"Server"`
	Storage    StorageConfig    `xml:"Storage"`
	Canvas     CanvasConfig     `xml:"Canvas"`
	Processing ProcessingConfig `xml:"Processing"`
	Security   SecurityConfig   `xml:"Security"`
	Advanced   AdvancedConfig   `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file and database locations
type StorageConfig struct {
	DataDirectory     string `xml:"DataDirectory"`
	AssetsDirectory   string `xml:"AssetsDirectory"`
	DatabasePath      string `xml:"DatabasePath"`
	CatalogPath       string `xml:"CatalogPath"`
	EnablePersistence bool   `xml:"EnablePersistence"`
}

// CanvasConfig holds the drawing-surface constants.
type CanvasConfig struct {
	ScreenWidth            float64 `xml:"ScreenWidth"`
	ScreenHeight           float64 `xml:"ScreenHeight"`
	PageAspectRatio        float64 `xml:"PageAspectRatio"`
	PageMargin             float64 `xml:"PageMargin"`
	UnitsPerMeter          float64 `xml:"UnitsPerMeter"`
	ImportPadding          float64 `xml:"ImportPadding"`
	FitPagePadding         float64 `xml:"FitPagePadding"`
	FitExtentsPadding      float64 `xml:"FitExtentsPadding"`
	SnapThreshold          float64 `xml:"SnapThreshold"`
	ZoomStep               float64 `xml:"ZoomStep"`
	ZoomMinPercent         float64 `xml:"ZoomMinPercent"`
	ZoomMaxPercent         float64 `xml:"ZoomMaxPercent"`
	DefaultFurniturePixels float64 `xml:"DefaultFurniturePixels"`
	MinShapeSize           float64 `xml:"MinShapeSize"`
	EraseRadius            float64 `xml:"EraseRadius"`
	EraseSampleInterval    float64 `xml:"EraseSampleInterval"`
	HistoryLimit           int     `xml:"HistoryLimit"`
}

// ProcessingConfig contains session and background-work settings
type ProcessingConfig struct {
	SessionTimeoutMinutes  int  `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int  `xml:"CleanupIntervalMinutes"`
	MaxOpenProjects        int  `xml:"MaxOpenProjects"`
	AutosaveDebounceMillis int  `xml:"AutosaveDebounceMillis"`
	ImageTimeoutSeconds    int  `xml:"ImageTimeoutSeconds"`
	MaxImageBytes          int  `xml:"MaxImageBytes"`
	EnableCompression      bool `xml:"EnableCompression"`
	CompressionLevel       int  `xml:"CompressionLevel"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowProjectDeletion bool   `xml:"AllowProjectDeletion"`
	AllowAssetDeletion   bool   `xml:"AllowAssetDeletion"`
	AllowRemoteImages    bool   `xml:"AllowRemoteImages"`
	AllowedImageTypes    string `xml:"AllowedImageTypes"`
}

// AdvancedConfig contains tuning options
type AdvancedConfig struct {
	LogLevel                string `xml:"LogLevel"`
	EnableRequestLogging    bool   `xml:"EnableRequestLogging"`
	DuckDBThreads           int    `xml:"DuckDBThreads"`
	DuckDBMemoryLimit       string `xml:"DuckDBMemoryLimit"`
	WebSocketMaxMessageSize int    `xml:"WebSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "50M",
		},
		Storage: StorageConfig{
			DataDirectory:     "./data",
			AssetsDirectory:   "./data/assets",
			DatabasePath:      "./data/scenes.duckdb",
			CatalogPath:       "./catalog.yaml",
			EnablePersistence: true,
		},
		Canvas: CanvasConfig{
			ScreenWidth:            1200,
			ScreenHeight:           800,
			PageAspectRatio:        297.0 / 210.0,
			PageMargin:             20,
			UnitsPerMeter:          100,
			ImportPadding:          40,
			FitPagePadding:         20,
			FitExtentsPadding:      40,
			SnapThreshold:          8,
			ZoomStep:               1.2,
			ZoomMinPercent:         10,
			ZoomMaxPercent:         400,
			DefaultFurniturePixels: 200,
			MinShapeSize:           5,
			EraseRadius:            10,
			EraseSampleInterval:    4,
			HistoryLimit:           100,
		},
		Processing: ProcessingConfig{
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			MaxOpenProjects:        50,
			AutosaveDebounceMillis: 1500,
			ImageTimeoutSeconds:    5,
			MaxImageBytes:          20 << 20,
			EnableCompression:      true,
			CompressionLevel:       5,
		},
		Security: SecurityConfig{
			AllowProjectDeletion: true,
			AllowAssetDeletion:   true,
			AllowRemoteImages:    true,
			AllowedImageTypes:    ".png,.jpg,.jpeg,.gif,.webp,.bmp,.tif,.tiff",
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			EnableRequestLogging:    true,
			DuckDBThreads:           2,
			DuckDBMemoryLimit:       "512MB",
			WebSocketMaxMessageSize: 64,
		},
	}
}

// LoadConfig loads configuration from an XML file, writing the defaults
// there first when it does not exist.
func LoadConfig(configPath string) (*AppConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so sections missing from older files keep sane values.
	config := DefaultConfig()
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save writes the configuration as XML
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Wedding Floor Planner Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyEnvironmentOverrides lets environment variables override file values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.AssetsDirectory = filepath.Join(dataDir, "assets")
		c.Storage.DatabasePath = filepath.Join(dataDir, "scenes.duckdb")
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.AssetsDirectory,
		&c.Storage.DatabasePath,
		&c.Storage.CatalogPath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.AssetsDirectory,
		filepath.Dir(c.Storage.DatabasePath),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogLevel parses Advanced.LogLevel, defaulting to info.
func (c *AppConfig) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Advanced.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SessionTimeout is how long an idle project stays open.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Processing.SessionTimeoutMinutes) * time.Minute
}

// CleanupInterval is the period of the idle-session sweep.
func (c *AppConfig) CleanupInterval() time.Duration {
	if c.Processing.CleanupIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Processing.CleanupIntervalMinutes) * time.Minute
}

// AutosaveDelay is the debounce window for scene saves.
func (c *AppConfig) AutosaveDelay() time.Duration {
	return time.Duration(c.Processing.AutosaveDebounceMillis) * time.Millisecond
}

// EngineConfig translates the Canvas and Processing sections into engine
// settings. Zero values fall back to the engine defaults.
func (c *AppConfig) EngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cv := c.Canvas

	if cv.ScreenWidth > 0 && cv.ScreenHeight > 0 {
		cfg.Screen = models.Rect{Width: cv.ScreenWidth, Height: cv.ScreenHeight}
	}
	setPositive(&cfg.PageAspect, cv.PageAspectRatio)
	setPositive(&cfg.PageMargin, cv.PageMargin)
	if cv.HistoryLimit > 0 {
		cfg.HistoryLimit = cv.HistoryLimit
	}
	if c.Processing.ImageTimeoutSeconds > 0 {
		cfg.ImageTimeout = time.Duration(c.Processing.ImageTimeoutSeconds) * time.Second
	}

	setPositive(&cfg.Scene.UnitsPerMeter, cv.UnitsPerMeter)
	setPositive(&cfg.Scene.ImportPadding, cv.ImportPadding)
	setPositive(&cfg.Scene.DefaultFurniturePixels, cv.DefaultFurniturePixels)
	setPositive(&cfg.Scene.MinShapeSize, cv.MinShapeSize)

	setPositive(&cfg.Viewport.PagePadding, cv.FitPagePadding)
	setPositive(&cfg.Viewport.ExtentsPadding, cv.FitExtentsPadding)
	setPositive(&cfg.Viewport.StepFactor, cv.ZoomStep)
	setPositive(&cfg.Viewport.MinPercent, cv.ZoomMinPercent)
	setPositive(&cfg.Viewport.MaxPercent, cv.ZoomMaxPercent)

	setPositive(&cfg.Interaction.SnapThreshold, cv.SnapThreshold)
	setPositive(&cfg.Interaction.EraseRadius, cv.EraseRadius)
	setPositive(&cfg.Interaction.EraseInterval, cv.EraseSampleInterval)
	return cfg
}

func setPositive(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}
