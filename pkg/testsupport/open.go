package testsupport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bookdata/pkg/common/database"
	"bookdata/pkg/common/logger"
)

// OpenT opens a handle for the running test and closes it when the test
// ends. Failing to open fails the test.
func OpenT(t testing.TB, opts database.Options) *database.Handle {
	t.Helper()
	h, err := database.Open(opts)
	require.NoError(t, err, "open %s", opts.Descriptor().Redacted())
	t.Cleanup(func() {
		if err := h.Close(); err != nil {
			t.Errorf("close handle: %v", err)
		}
	})
	return h
}

// LogToTest returns a sink writing every diagnostic line to the test log.
func LogToTest(t testing.TB) database.Sink {
	return func(line string) { t.Log(line) }
}

// TimeThings starts a stopwatch; calling the returned func logs message with
// the elapsed time to the test and to the testsupport logger.
//
//	defer testsupport.TimeThings(t, "recreate database")()
func TimeThings(t testing.TB, message string) func() {
	start := time.Now()
	return func() {
		took := time.Since(start)
		t.Logf("%s took %.2f ms", message, float64(took.Microseconds())/1000)
		logger.WithComponent("testsupport").Debug().Str("test", t.Name()).Dur("took", took).Msg(message)
	}
}
