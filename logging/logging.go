// Package logging configures the process-wide logrus logger and hands out
// component-scoped entries.
package logging

import (
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Init configures the global logrus logger.
// level is a logrus level name ("debug", "info", ...); unknown names fall back
// to info. format is "json" or "text".
func Init(level, format string, out io.Writer) {
	if out == nil {
		out = os.Stderr
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	logrus.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// For returns an entry tagged with the given component name.
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}

// Truncate shortens s for log output to at most maxLen bytes plus an
// ellipsis, cutting on a rune boundary.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 0 {
		maxLen = 0
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
