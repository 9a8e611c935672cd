package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mincpu/uartload/bootloader"
)

// logAdapter forwards bootloader log calls to logrus.
type logAdapter struct {
	log logrus.FieldLogger
}

func newLogAdapter(log logrus.FieldLogger) bootloader.Logger {
	return &logAdapter{log: log}
}

func (l *logAdapter) Debug(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l *logAdapter) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Info(msg)
}

func (l *logAdapter) Error(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Error(msg)
}

// fields turns alternating keys and values into logrus fields.
// A trailing key without a value is kept under "extra".
func fields(keysAndValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 == len(keysAndValues) {
			f["extra"] = keysAndValues[i]
			break
		}
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		f[key] = keysAndValues[i+1]
	}
	return f
}
