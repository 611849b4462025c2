package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/annel0/voxel-streamer/internal/logging"
	"github.com/annel0/voxel-streamer/internal/world"
	"github.com/shirou/gopsutil/v3/cpu"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения
type Config struct {
	Streamer  StreamerConfig       `yaml:"streamer"`
	Terrain   world.TerrainOptions `yaml:"terrain"`
	Server    ServerConfig         `yaml:"server"`
	Logging   LoggingConfig        `yaml:"logging"`
	Telemetry TelemetryConfig      `yaml:"telemetry"`
}

type StreamerConfig struct {
	ViewDistance int `yaml:"view_distance"`
	Workers      int `yaml:"workers"` // 0 - по числу логических ядер
	SeaLevel     int `yaml:"sea_level"`
}

type ServerConfig struct {
	Enabled  bool `yaml:"enabled"`
	RESTPort int  `yaml:"rest_port"`
}

type LoggingConfig struct {
	Level      string            `yaml:"level"`
	Dir        string            `yaml:"dir"`        // пусто - только консоль
	Components map[string]string `yaml:"components"` // уровни отдельных компонентов
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Streamer: StreamerConfig{
			ViewDistance: 8,
			SeaLevel:     world.DefaultSeaLevel,
		},
		Terrain: world.DefaultTerrainOptions(),
		Server: ServerConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voxel-streamer",
		},
	}
}

// GetRESTPort возвращает порт отладочного HTTP-сервера с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "STREAMER_REST_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// WorkerCount возвращает число воркеров: из конфига или по числу логических ядер
func (s *StreamerConfig) WorkerCount() int {
	if s.Workers > 0 {
		return s.Workers
	}
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		logging.Warn("Не удалось определить число ядер (%v), используется 2 воркера", err)
		return 2
	}
	// Один поток оставляем наблюдателю и отрисовке
	if n > 1 {
		n--
	}
	return n
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	if c.Streamer.ViewDistance < 1 {
		return fmt.Errorf("streamer.view_distance: %w", world.ErrInvalidViewDistance)
	}
	if c.Streamer.Workers < 0 {
		return fmt.Errorf("streamer.workers: %w", world.ErrInvalidWorkerCount)
	}
	if _, err := world.NewTerrain(c.Terrain); err != nil {
		return fmt.Errorf("terrain: %w", err)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	for component, level := range c.Logging.Components {
		if _, err := logging.ParseLevel(level); err != nil {
			return fmt.Errorf("logging.components.%s: %w", component, err)
		}
	}
	if p := c.Server.RESTPort; p < 0 || p > 65535 {
		return fmt.Errorf("server.rest_port: invalid port %d", p)
	}
	return nil
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV STREAMER_CONFIG или возвращает дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("STREAMER_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан - используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
