package tilegemm

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var pkgLogger atomic.Pointer[logrus.Entry]

func init() {
	pkgLogger.Store(logrus.StandardLogger().WithField("component", "tilegemm"))
}

// SetLogger replaces the package logger. Catalog registration, selection
// and launches log through it; a nil logger restores the logrus default.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	pkgLogger.Store(l.WithField("component", "tilegemm"))
}

// Logger returns the package logger
func Logger() *logrus.Entry {
	return pkgLogger.Load()
}
