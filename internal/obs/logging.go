// Package obs contains logging and metrics setup shared by the engine.
package obs

import (
	"log"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// InitLogger configures the global logrus logger and sends the standard
// library logger through it.
func InitLogger(level, format string) {
	logrus.SetOutput(os.Stdout)

	if strings.EqualFold(format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	log.SetFlags(0)
	log.SetOutput(logrus.StandardLogger().Writer())
}
