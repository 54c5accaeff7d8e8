// Package audit appends a timestamped line for every exchange command to a
// persistent text file.
package audit

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Recorder records one exchange command invocation.
type Recorder interface {
	RecordExchange(client string, days int)
}

// FileRecorder writes audit lines through a dedicated zap core bound to a file.
type FileRecorder struct {
	logger *zap.Logger
	file   *os.File
}

// NewFileRecorder opens path for appending, creating it when absent.
func NewFileRecorder(path string) (*FileRecorder, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(time.DateTime + ".000000"),
		ConsoleSeparator: " - ",
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(file),
		zapcore.InfoLevel,
	)

	return &FileRecorder{logger: zap.New(core), file: file}, nil
}

// RecordExchange appends exactly one line for the command.
func (r *FileRecorder) RecordExchange(client string, days int) {
	r.logger.Info("exchange command.", zap.String("client", client), zap.Int("days", days))
}

// Close flushes and closes the underlying file.
func (r *FileRecorder) Close() error {
	_ = r.logger.Sync()
	return r.file.Close()
}

// Nop discards audit records.
type Nop struct{}

// RecordExchange implements Recorder.
func (Nop) RecordExchange(string, int) {}
