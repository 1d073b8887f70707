package logger

import "go.uber.org/zap"

// New builds the process logger. Development gets console output with
// stacktraces, everything else gets sampled production JSON.
func New(env string) *zap.Logger {
	if env == "development" {
		l, _ := zap.NewDevelopment()
		return l
	}
	l, _ := zap.NewProduction()
	return l
}
