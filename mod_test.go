package coursemarket

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	defer os.Unsetenv(EnvLogLevel)

	levels := map[string]zerolog.Level{
		"trace": zerolog.TraceLevel,
		"debug": zerolog.DebugLevel,
		"info":  zerolog.InfoLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"":      defaultLevel,
		"abc":   defaultLevel,
	}

	for value, expected := range levels {
		os.Setenv(EnvLogLevel, value)
		require.Equal(t, expected, logLevel(), value)
	}
}
