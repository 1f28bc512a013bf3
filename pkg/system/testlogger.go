package system

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// NewTestLogger returns a sugared logger that writes through tb, so output is
// only shown for failing tests. Like the process logger it records the caller
// and leaves out stack traces below fatal.
func NewTestLogger(tb zaptest.TestingT) *zap.SugaredLogger {
	return zaptest.NewLogger(tb, zaptest.WrapOptions(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.FatalLevel),
	)).Sugar()
}
