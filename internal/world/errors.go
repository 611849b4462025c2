package world

import (
	"errors"

	"github.com/annel0/voxel-streamer/internal/workers"
)

// Ошибки конфигурации менеджера чанков
var (
	ErrInvalidViewDistance = NewConfigError("view distance must be at least 1")
	ErrInvalidWorkerCount  = workers.ErrInvalidWorkerCount
	ErrNoTerrain           = NewConfigError("terrain generator is required")
	ErrPoolStopped         = errors.New("world: worker pool is stopped")
)

// ConfigError описывает некорректный параметр при создании или перенастройке
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "world: " + e.Message
}

func NewConfigError(message string) *ConfigError {
	return &ConfigError{Message: message}
}

// IsConfigError проверяет, является ли ошибка ошибкой конфигурации
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce) || errors.Is(err, ErrInvalidWorkerCount)
}
