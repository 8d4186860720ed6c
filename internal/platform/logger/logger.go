package logger

import (
	"log"

	"go.uber.org/zap"
)

// New builds the process-wide zap logger. Development mode switches to the
// console encoder with human-readable timestamps.
func New(development bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if development {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Could not initialize logger: %v", err)
	}
	return l
}
