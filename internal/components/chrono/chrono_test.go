package chrono

import (
	"errors"
	"exchangestats/internal/components/telemetry"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errTest = errors.New("test")

func TestStandardImpl(t *testing.T) {
	clock := NewStandardImpl(nil)
	require.Equal(t, time.UTC, clock.Location())
	require.Equal(t, time.UTC, clock.Now().Location())
}

func TestValidateSpec(t *testing.T) {
	require.NoError(t, ValidateSpec("0 */6 * * *"))
	require.NoError(t, ValidateSpec("@hourly"))
	require.Error(t, ValidateSpec("every now and then"))
}

func TestStandardCronRejectsInvalidSpec(t *testing.T) {
	cron := NewStandardCron(NewStandardImpl(nil), &telemetry.Recorder{})
	defer cron.Stop()

	require.Error(t, cron.Cron("61 * * * *", func() {}))
	require.NoError(t, cron.Cron("@every 1h", func() {}))
}

func TestCronLoggerReports(t *testing.T) {
	tel := &telemetry.Recorder{}
	logger := cronLogger{tel: tel}

	logger.Info("start", "entries", 2)
	debug := tel.Reports(telemetry.REPORT_DEBUG, "cron: start")
	require.Len(t, debug, 1)
	require.Equal(t, []any{"entries: 2"}, debug[0].Params)

	logger.Error(errTest, "panic", "job", "crawl")
	broken := tel.Reports(telemetry.REPORT_BROKEN, "cron")
	require.Len(t, broken, 1)
	require.ErrorIs(t, broken[0].Params[0].(error), errTest)
	require.Equal(t, "job: crawl", broken[0].Params[1])
}
