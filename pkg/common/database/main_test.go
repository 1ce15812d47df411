package database

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"bookdata/pkg/common/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.DefaultConfig()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestTracesStayBelowDefaultLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	var lines []string
	diag := newDiagnostics(func(line string) { lines = append(lines, line) }, "Base.Quiet")
	diag.Event("Creating database %s", "Base.Quiet")
	assert.Equal(t, []string{"Creating database Base.Quiet"}, lines, "the sink still sees every line")
}
