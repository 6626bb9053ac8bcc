package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/usnistgov/tlvcodec/core/logging"
	"github.com/usnistgov/tlvcodec/core/testenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	assert, require := testenv.MakeAR(t)
	t.Setenv("TLVCODEC_LOG", "W")
	t.Setenv("TLVCODEC_LOG_LoggingTestB", "D")

	pa := logging.GetLevel("LoggingTestA")
	require.NotNil(pa)
	assert.Equal("LoggingTestA", pa.Package())
	assert.EqualValues('W', pa.Level())
	assert.Same(pa, logging.GetLevel("LoggingTestA"))

	pb := logging.GetLevel("LoggingTestB")
	assert.EqualValues('D', pb.Level())

	pb.SetLevel("bogus")
	assert.EqualValues('I', pb.Level())
	pb.SetLevel("")
	assert.EqualValues('I', pb.Level())
	pb.SetLevel("Error")
	assert.EqualValues('E', pb.Level())

	found := 0
	for _, pl := range logging.ListLevels() {
		switch pl.Package() {
		case "LoggingTestA", "LoggingTestB":
			found++
		}
	}
	assert.Equal(2, found)

	logger := logging.New("LoggingTestA")
	assert.False(logger.Core().Enabled(-1))
	assert.True(logger.Core().Enabled(1))
}

func TestWriter(t *testing.T) {
	assert, require := testenv.MakeAR(t)
	t.Setenv("TLVCODEC_LOG_LoggingTestW", "I")

	var buf bytes.Buffer
	logger := logging.NewWithWriter("LoggingTestW", logging.FormatJSON, zapcore.AddSync(&buf))
	logger.Debug("hidden")
	logger.Info("shown", zap.Int("n", 1))

	var entry map[string]any
	require.NoError(json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal("shown", entry["msg"])
	assert.Equal("LoggingTestW", entry["logger"])
	assert.EqualValues(1, entry["n"])

	buf.Reset()
	logger = logging.NewWithWriter("LoggingTestW", logging.FormatConsole, zapcore.AddSync(&buf))
	logger.Warn("careful")
	assert.Contains(buf.String(), "WARN")
	assert.Contains(buf.String(), "careful")
}
