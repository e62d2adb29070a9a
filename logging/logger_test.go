package logging

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&CustomFormatter{SystemName: "camp-test"})

	l.WithField("status", 201).WithField("method", "POST").Warn("Event ID: X, Description: y")

	line := buf.String()
	assert.Contains(t, line, "Event Source: camp-test, ")
	assert.Contains(t, line, "Event Type: WARNING, ")
	assert.Contains(t, line, "Message: Event ID: X, Description: y")
	assert.Contains(t, line, ", method: POST, status: 201")
	assert.Regexp(t, `Event ID: [0-9a-f-]{36}, `, line)
	assert.Equal(t, byte('\n'), line[len(line)-1])
}

func TestConfigureFallsBackToInfo(t *testing.T) {
	l := logrus.New()
	Configure(l, Options{Level: "nonsense"})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	Configure(l, Options{Level: "debug"})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestConfigureWritesToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "camp.log")
	l := logrus.New()
	Configure(l, Options{SystemName: "camp", File: file})

	l.Info("hello")
	_, ok := l.Out.(interface{ Close() error })
	require.True(t, ok)
	assert.FileExists(t, file)
}
