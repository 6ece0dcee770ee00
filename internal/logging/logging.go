// Package logging builds the logr.Logger used by the CLI.
//
// Every package logs through logr taken from the context
// (logr.FromContextOrDiscard). The backend is zap, wired through
// controller-runtime so client-go and envtest share the same sink.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Options configures the logger.
type Options struct {
	// Level is a zap level name: debug, info, warn or error.
	// debug enables V(1) detail logs.
	Level string

	// Development switches to the console encoder with stack traces on
	// warnings.
	Development bool

	// Writer receives log lines. Defaults to stderr.
	Writer io.Writer
}

// New creates a logger from opts.
func New(opts Options) (logr.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return logr.Discard(), fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	return zap.New(
		zap.UseDevMode(opts.Development),
		zap.WriteTo(w),
		zap.Level(level),
	), nil
}

// Setup creates a logger, installs it as the controller-runtime logger
// and returns it.
func Setup(opts Options) (logr.Logger, error) {
	log, err := New(opts)
	if err != nil {
		return log, err
	}
	ctrl.SetLogger(log)
	return log, nil
}
