package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/snendev/cricket-pong/pkg/logger"
)

// AddLog пишет игровое событие матча
func (i *Instance) AddLog(text string, fields logrus.Fields) {
	entry := logger.Log.WithFields(logrus.Fields{
		"instance":  i.ID,
		"component": "game_log",
	})
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Info(text)
}
