// Package coursemarket is a ledger running a course marketplace contract.
//
// The root package holds the process-wide logger and the list of prometheus
// collectors that the packages register.
package coursemarket

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	// EnvLogLevel is the name of the environment variable to change the
	// logging level.
	EnvLogLevel = "LLVL"

	defaultLevel = zerolog.InfoLevel
)

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance. By default, it only prints
// info and higher levels. The level can be changed with the LLVL environment
// variable (trace, debug, info, warn, error).
var Logger = zerolog.New(logout).Level(logLevel()).
	With().Timestamp().Logger().
	With().Caller().Logger()

// PromCollectors exposes the prometheus collectors created by the packages.
// They are registered when the prometheus handler of the proxy is started.
var PromCollectors []prometheus.Collector

func logLevel() zerolog.Level {
	switch os.Getenv(EnvLogLevel) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "info":
		return zerolog.InfoLevel
	default:
		return defaultLevel
	}
}
