package dbase

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop().Sugar()

// Debug enables or disables the debug output of this package.
// The output is written to out, stdout is used if out is nil.
func Debug(enabled bool, out io.Writer) {
	if !enabled {
		logger = zap.NewNop().Sugar()
		return
	}
	if out == nil {
		out = os.Stdout
	}
	config := zap.NewDevelopmentEncoderConfig()
	config.ConsoleSeparator = " "
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(config), zapcore.AddSync(out), zapcore.DebugLevel)
	logger = zap.New(core).Named("dbase").Sugar()
}

// SetLogger hands a preconfigured logger to the package, e.g. the one of the application
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	logger = l.Named("dbase")
}

func debugf(format string, v ...interface{}) {
	logger.Debugf(format, v...)
}

func errorf(format string, v ...interface{}) {
	logger.Errorf(format, v...)
}
