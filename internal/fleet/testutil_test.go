package fleet

import (
	"github.com/rs/zerolog"

	"artd/internal/controller"
)

func newTestLogger(l *controller.OutputLog) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: l, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}})
}
