// Package telemetry sets up the zap loggers of a process.
package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/luckyroll/casino/internal/setup/config"
	"github.com/luckyroll/casino/internal/setup/telemetry/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const sessionLayout = "2006-01-02_15-04-05"

// ServiceType represents the type of service being initialized.
type ServiceType int

const (
	ServiceBot ServiceType = iota
	ServiceCLI
)

func (s ServiceType) component() string {
	switch s {
	case ServiceBot:
		return "bot"
	case ServiceCLI:
		return "cli"
	default:
		return "unknown"
	}
}

// Manager owns the log directory. Every run writes into its own session
// directory and only the newest sessions are kept.
type Manager struct {
	instanceID    string
	componentName string
	logDir        string
	sessionDir    string
	level         string
	maxLogsToKeep int
	maxLogLines   int
	files         []*logger.CappedFile
}

// NewManager creates a new Manager instance.
func NewManager(serviceType ServiceType, logDir string, debugCfg *config.Debug) *Manager {
	return &Manager{
		instanceID:    uuid.New().String(),
		componentName: serviceType.component(),
		logDir:        logDir,
		level:         debugCfg.LogLevel,
		maxLogsToKeep: debugCfg.MaxLogsToKeep,
		maxLogLines:   debugCfg.MaxLogLines,
	}
}

// GetLoggers creates the session directory and returns the main and database loggers.
func (lm *Manager) GetLoggers() (*zap.Logger, *zap.Logger, error) {
	if err := lm.setupLogDirectories(); err != nil {
		return nil, nil, err
	}

	mainLogger, err := lm.initLogger("main.log")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize main logger: %w", err)
	}

	dbLogger, err := lm.initLogger("database.log")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database logger: %w", err)
	}

	return mainLogger, dbLogger, nil
}

// GetInstanceID returns the unique identifier of this run.
func (lm *Manager) GetInstanceID() string {
	return lm.instanceID
}

// GetSessionDir returns the directory of the current session.
func (lm *Manager) GetSessionDir() string {
	return lm.sessionDir
}

// Stop syncs and closes all log files.
func (lm *Manager) Stop() error {
	var errs []error

	for _, f := range lm.files {
		if err := f.Sync(); err != nil {
			errs = append(errs, err)
		}

		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	lm.files = nil

	return errors.Join(errs...)
}

// setupLogDirectories rotates old sessions and creates a new one.
func (lm *Manager) setupLogDirectories() error {
	if err := os.MkdirAll(lm.logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	if err := lm.rotateLogSessions(); err != nil {
		return fmt.Errorf("failed to rotate log sessions: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s", time.Now().Format(sessionLayout), lm.componentName, lm.instanceID[:8])

	lm.sessionDir = filepath.Join(lm.logDir, name)
	if err := os.MkdirAll(lm.sessionDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	return nil
}

// rotateLogSessions removes the oldest sessions so that, together with the
// session about to be created, at most maxLogsToKeep remain.
func (lm *Manager) rotateLogSessions() error {
	if lm.maxLogsToKeep <= 0 {
		return nil
	}

	entries, err := os.ReadDir(lm.logDir)
	if err != nil {
		return err
	}

	var sessions []string

	for _, entry := range entries {
		if entry.IsDir() {
			sessions = append(sessions, entry.Name())
		}
	}

	// Session names start with their timestamp
	slices.Sort(sessions)

	for len(sessions) >= lm.maxLogsToKeep {
		if err := os.RemoveAll(filepath.Join(lm.logDir, sessions[0])); err != nil {
			return err
		}

		sessions = sessions[1:]
	}

	return nil
}

// initLogger creates a console encoded zap logger writing to a capped file.
func (lm *Manager) initLogger(fileName string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(lm.level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	file, err := logger.OpenCappedFile(filepath.Join(lm.sessionDir, fileName), lm.maxLogLines)
	if err != nil {
		return nil, err
	}

	lm.files = append(lm.files, file)

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(file),
		zapLevel,
	)

	return zap.New(
		core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(
			zap.String("component", lm.componentName),
			zap.String("instance", lm.instanceID),
		),
	), nil
}
