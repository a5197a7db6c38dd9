package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Fields logrus.Fields

// Like a logrus.Entry, but fields are only materialized when the entry is
// actually logged. This keeps disabled debug logging cheap.
type Entry struct {
	mod    Module
	fields [4]Fields
}

func (entry Entry) log() *logrus.Entry {
	final := logrus.StandardLogger().WithField("_mod", entry.mod.String())
	for _, f := range entry.fields {
		if f != nil {
			final = final.WithFields(logrus.Fields(f))
		}
	}
	return final
}

func (entry Entry) WithFields(fields Fields) Entry {
	for idx := range entry.fields {
		if entry.fields[idx] == nil {
			entry.fields[idx] = fields
			return entry
		}
	}
	return entry
}

func (entry Entry) WithField(key string, value any) Entry {
	return entry.WithFields(Fields{key: value})
}

func (entry Entry) Debugf(format string, args ...any) {
	if entry.mod.Enabled(DebugLevel) {
		entry.log().Debugf(format, args...)
	}
}

func (entry Entry) Infof(format string, args ...any) {
	if entry.mod.Enabled(InfoLevel) {
		entry.log().Infof(format, args...)
	}
}

func (entry Entry) Warnf(format string, args ...any) {
	if entry.mod.Enabled(WarnLevel) {
		entry.log().Warnf(format, args...)
	}
}


// SetOutput redirects all log output to w. A nil writer restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logrus.SetOutput(w)
}

// SetLevel sets the global logging level by name ("debug", "info", ...).
func SetLevel(name string) error {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	return nil
}
