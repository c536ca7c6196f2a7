package logger

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Configure sets the global logrus level and formatter.
// Unknown levels fall back to info.
func Configure(level, format string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stdout)

	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
