package logging

import "github.com/pressly/goose/v3"

type BoardsyncLoggerGoose struct {
}

var _ goose.Logger = (*BoardsyncLoggerGoose)(nil)

func (b BoardsyncLoggerGoose) Fatalf(format string, v ...interface{}) {
	Fatalf(format, v...)
}

func (b BoardsyncLoggerGoose) Printf(format string, v ...interface{}) {
	Debugf(format, v...)
}
