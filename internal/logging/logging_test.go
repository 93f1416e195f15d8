package logging_test

import (
	"bytes"
	"testing"

	"github.com/jrsteele09/go-blog-auth/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup(&buf, "warn", false)

	logger.Info().Msg("hidden")
	logger.Warn().Str("op", "logout").Msg("remote logout failed")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"op":"logout"`)
	require.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestSetup_UnknownLevel(t *testing.T) {
	logger := logging.Setup(&bytes.Buffer{}, "loud", true)
	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
