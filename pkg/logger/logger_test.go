package logger

import (
	"testing"

	"github.com/GlebRadaev/dogefaucet/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name           string
		lvl            string
		format         string
		expectedError  bool
		expectedLogLvl zapcore.Level
	}{
		{name: "debug", lvl: "debug", expectedLogLvl: zapcore.DebugLevel},
		{name: "info", lvl: "info", expectedLogLvl: zapcore.InfoLevel},
		{name: "warn", lvl: "warn", expectedLogLvl: zapcore.WarnLevel},
		{name: "error", lvl: "error", expectedLogLvl: zapcore.ErrorLevel},
		{name: "json", lvl: "info", format: "json", expectedLogLvl: zapcore.InfoLevel},
		{name: "unsupported", lvl: "verbose", expectedError: true},
		{name: "unsupported format", lvl: "info", format: "xml", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(&config.Config{LogLvl: tt.lvl, LogFormat: tt.format})

			if tt.expectedError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, zap.L().Core().Enabled(tt.expectedLogLvl))
			if tt.expectedLogLvl > zapcore.DebugLevel {
				assert.False(t, zap.L().Core().Enabled(tt.expectedLogLvl-1))
			}
		})
	}
}
