package logging

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
)

// Компоненты стримера с собственными логгерами
const (
	ComponentStreamer = "streamer"
	ComponentWorkers  = "workers"
	ComponentRender   = "render"
	ComponentAPI      = "api"
)

// LoggerManager хранит логгеры компонентов и их уровни.
// Уровень, заданный до создания логгера, применяется при его создании.
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
	levels  map[string]LogLevel
}

var components = newLoggerManager()

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers: make(map[string]*Logger),
		levels:  make(map[string]LogLevel),
	}
}

// GetLoggerManager возвращает менеджер логгеров процесса
func GetLoggerManager() *LoggerManager {
	return components
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.loggers[component]; ok {
		return l, nil
	}
	l, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("логгер %s: %w", component, err)
	}
	if level, ok := lm.levels[component]; ok {
		l.SetLevels(level, level)
	}
	lm.loggers[component] = l
	return l, nil
}

// MustGetLogger не падает: при ошибке файла компонент пишет только в консоль
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	l, err := lm.GetLogger(component)
	if err == nil {
		return l
	}
	Default().Warn("файловый лог для %s недоступен: %v", component, err)

	l = &Logger{
		component:       component,
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		minConsoleLevel: INFO,
		minFileLevel:    ERROR,
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if level, ok := lm.levels[component]; ok {
		l.SetLevels(level, level)
	}
	lm.loggers[component] = l
	return l
}

// ApplyLevels задаёт уровни компонентов из конфигурации вида {"workers": "debug"}.
// Ничего не меняет, если хотя бы один уровень не разобран.
func (lm *LoggerManager) ApplyLevels(levels map[string]string) error {
	parsed := make(map[string]LogLevel, len(levels))
	for component, s := range levels {
		level, err := ParseLevel(s)
		if err != nil {
			return fmt.Errorf("компонент %s: %w", component, err)
		}
		parsed[component] = level
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	for component, level := range parsed {
		lm.levels[component] = level
		if l, ok := lm.loggers[component]; ok {
			l.SetLevels(level, level)
		}
	}
	return nil
}

// SetLogLevel меняет уровни уже созданного логгера
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.Lock()
	l, ok := lm.loggers[component]
	lm.mu.Unlock()
	if !ok {
		return fmt.Errorf("логгер компонента %s не создан", component)
	}
	l.SetLevels(consoleLevel, fileLevel)
	return nil
}

// ListComponents возвращает имена созданных логгеров по алфавиту
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	names := make([]string, 0, len(lm.loggers))
	for name := range lm.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseAll закрывает файлы всех логгеров и забывает их; уровни сохраняются
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for name, l := range lm.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("логгер %s: %w", name, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

// GetComponentLogger возвращает логгер компонента из менеджера процесса
func GetComponentLogger(component string) *Logger {
	return components.MustGetLogger(component)
}

func GetStreamerLogger() *Logger { return GetComponentLogger(ComponentStreamer) }

func GetWorkerLogger() *Logger { return GetComponentLogger(ComponentWorkers) }

func GetRenderLogger() *Logger { return GetComponentLogger(ComponentRender) }

func GetAPILogger() *Logger { return GetComponentLogger(ComponentAPI) }
