package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// NewScheduler creates a cron scheduler running in the league's eastern time zone.
// A panicking job is logged and recovered so later runs still fire.
func NewScheduler() *cron.Cron {
	location, err := time.LoadLocation("America/New_York")
	if err != nil {
		logrus.WithError(err).Warn("Eastern time zone unavailable, scheduling in fixed UTC-5")
		location = time.FixedZone("EST", -5*60*60)
	}

	logger := cronLogger{entry: logrus.WithField("component", "Scheduler")}
	return cron.New(
		cron.WithLocation(location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
}

// cronLogger adapts logrus to cron.Logger
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(pairsToFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithFields(pairsToFields(keysAndValues)).Error(msg)
}

func pairsToFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return fields
}
