package shared

import (
	"os"

	"github.com/sirupsen/logrus"
)

// ConfigureLogging applies level and formatter to the standard logrus logger
func ConfigureLogging(cfg LoggingConfig) {
	logrus.SetOutput(os.Stdout)

	if cfg.Format == "text" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Invalid log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
