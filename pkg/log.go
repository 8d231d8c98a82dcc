package gorelease

import (
	"io"

	"github.com/sirupsen/logrus"
)

// loggerOrDiscard returns l, or a logger that drops everything when l is nil.
func loggerOrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	return discard
}
