// Package debuglog provides the component-tagged logger shared by every
// fmtts package. Console output goes through zap; with debug mode enabled,
// messages tagged with a track ID are also appended to one file per track.
package debuglog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Message is one logged line kept in the in-memory history.
type Message struct {
	Timestamp time.Time
	Component string
	Message   string
	TrackID   string
}

type writeTask struct {
	file    *os.File
	content string
}

// Logger fans debug messages out to the console and, in debug mode, to
// per-track files under <baseDir>/<sessionID>/.
type Logger struct {
	enabled    bool
	verbose    bool
	sessionDir string
	sessionID  string
	console    *zap.SugaredLogger

	mu         sync.RWMutex
	trackFiles map[string]*os.File
	history    []Message
	maxHistory int

	writeQueue    chan writeTask
	stopWorker    chan struct{}
	workerStopped sync.WaitGroup
	closeOnce     sync.Once
}

// New creates a logger. When enabled is false only the console sink is used
// and baseDir is ignored.
func New(enabled, verbose bool, baseDir string) (*Logger, error) {
	console, err := newConsole()
	if err != nil {
		return nil, errors.Wrap(err, "building console logger")
	}

	l := &Logger{
		enabled:    enabled,
		verbose:    verbose,
		sessionID:  uuid.New().String(),
		console:    console,
		trackFiles: make(map[string]*os.File),
		maxHistory: 50,
		writeQueue: make(chan writeTask, 100),
		stopWorker: make(chan struct{}),
	}

	if enabled {
		l.sessionDir = filepath.Join(baseDir, l.sessionID)
		if err := os.MkdirAll(l.sessionDir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating debug directory %s", l.sessionDir)
		}
		l.workerStopped.Add(1)
		go l.fileWriteWorker()
	}

	return l, nil
}

func newConsole() (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// SessionID identifies this run's debug directory.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// SessionDir is empty when debug mode is off.
func (l *Logger) SessionDir() string {
	return l.sessionDir
}

// Msg logs a message for a component. An optional track ID routes a copy of
// the line into that track's debug file.
func (l *Logger) Msg(component, message string, trackID ...string) {
	now := time.Now()
	l.console.Named(component).Info(message)

	id := ""
	if len(trackID) > 0 {
		id = trackID[0]
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.history = append(l.history, Message{Timestamp: now, Component: component, Message: message, TrackID: id})
	if len(l.history) > l.maxHistory {
		l.history = l.history[1:]
	}

	if !l.enabled || id == "" {
		return
	}
	file := l.trackFile(id)
	if file == nil {
		return
	}
	line := fmt.Sprintf("[%s][%s] %s\n", now.Format("15:04:05.000"), component, message)
	select {
	case l.writeQueue <- writeTask{file: file, content: line}:
	default:
		// queue full, drop
	}
}

// Verbose logs only when verbose output was requested.
func (l *Logger) Verbose(component, message string, trackID ...string) {
	if !l.verbose {
		return
	}
	l.Msg(component, message, trackID...)
}

// History returns the most recent messages, oldest first.
func (l *Logger) History() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.history))
	copy(out, l.history)
	return out
}

// trackFile must be called with l.mu held.
func (l *Logger) trackFile(id string) *os.File {
	if file, ok := l.trackFiles[id]; ok {
		return file
	}

	path := filepath.Join(l.sessionDir, fmt.Sprintf("track_%s.txt", id))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.console.Named("DEBUG_LOGGER").Errorf("failed to open track file %s: %v", path, err)
		return nil
	}

	header := fmt.Sprintf("=== TRACK %s ===\nSession: %s\nStarted: %s\n\n",
		id, l.sessionID, time.Now().Format("2006-01-02 15:04:05"))
	if _, err := file.WriteString(header); err != nil {
		l.console.Named("DEBUG_LOGGER").Errorf("failed to write header to %s: %v", path, err)
	}

	l.trackFiles[id] = file
	return file
}

func (l *Logger) fileWriteWorker() {
	defer l.workerStopped.Done()

	for {
		select {
		case task := <-l.writeQueue:
			task.file.WriteString(task.content)
		case <-l.stopWorker:
			for len(l.writeQueue) > 0 {
				task := <-l.writeQueue
				task.file.WriteString(task.content)
			}
			return
		}
	}
}

// Close drains pending writes, closes track files and flushes the console.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		if l.enabled {
			close(l.stopWorker)
			l.workerStopped.Wait()

			l.mu.Lock()
			for _, file := range l.trackFiles {
				file.Sync()
				file.Close()
			}
			l.trackFiles = map[string]*os.File{}
			l.mu.Unlock()
		}
		_ = l.console.Sync()
	})
}
