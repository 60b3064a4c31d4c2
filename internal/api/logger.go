package api

import (
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
)

// slogAdapter forwards resty's printf-style logging to slog.
type slogAdapter struct {
	logger *slog.Logger
}

func newSlogAdapter(logger *slog.Logger) resty.Logger {
	return &slogAdapter{logger: logger}
}

func (a *slogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error("api: resty", "msg", fmt.Sprintf(format, v...))
}

func (a *slogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn("api: resty", "msg", fmt.Sprintf(format, v...))
}

func (a *slogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug("api: resty", "msg", fmt.Sprintf(format, v...))
}
