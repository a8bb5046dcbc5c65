package util

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// LogProgressFunc adds to the progress. It can be called concurrently;
// negative values are ignored.
type LogProgressFunc func(addProgress int)

type LogProgressConfig struct {
	// Message is attached to every progress line.
	Message string
	// Total is the amount of progress that counts as 100%.
	Total int
	// Ticks is the number of lines logged between 0% and 100%, both
	// included. It is at least 2.
	Ticks int
	// NoDataLogDuration logs the current progress when new data arrives after
	// a gap at least this long. Resolution is one millisecond.
	NoDataLogDuration time.Duration
}

// DefaultLogProgressConfig logs every 10%, plus a line whenever data resumes
// after a minute of silence.
func DefaultLogProgressConfig(message string, total int) LogProgressConfig {
	return LogProgressConfig{
		Message:           message,
		Total:             total,
		Ticks:             11,
		NoDataLogDuration: time.Minute,
	}
}

// LogProgress returns a function that accumulates progress and logs it at
// every tick. The eta assumes linear progress.
func LogProgress(log zerolog.Logger, config LogProgressConfig) LogProgressFunc {
	start := time.Now()
	lastData := atomic.NewInt64(start.UnixMilli())
	current := atomic.NewUint64(0)

	var mu sync.Mutex
	emit := func(done uint64) {
		mu.Lock()
		defer mu.Unlock()

		elapsed := time.Since(start)
		percentage := float64(100)
		if config.Total > 0 {
			percentage = float64(done) / float64(config.Total) * 100
		}

		ev := log.Info().
			Uint64("done", done).
			Int("total", config.Total).
			Str("elapsed", elapsed.Round(time.Second).String())
		if done < uint64(config.Total) && percentage > 0 {
			eta := time.Duration(float64(elapsed) / percentage * (100 - percentage))
			ev = ev.Str("eta", eta.Round(time.Second).String())
		}
		ev.Msgf("%s progress %.1f%%", config.Message, percentage)
	}

	emit(0)

	total := uint64(config.Total)
	ticks := uint64(config.Ticks)
	if ticks < 2 {
		ticks = 2
	}
	increment := total / (ticks - 1)
	if increment == 0 {
		increment = 1
	}
	// the remainder is applied to the first tick so the last tick lands on Total
	overflow := total % increment
	silence := config.NoDataLogDuration.Milliseconds()

	return func(add int) {
		if add <= 0 {
			return
		}
		diff := uint64(add)
		now := time.Now().UnixMilli()

		done := current.Add(diff)
		last := lastData.Swap(now)

		var fromTick, toTick uint64
		if done-diff >= overflow {
			fromTick = (done - diff - overflow) / increment
		}
		if done >= overflow {
			toTick = (done - overflow) / increment
		}

		if fromTick == toTick {
			if now-last > silence && done <= total {
				emit(done)
			}
			return
		}
		for t := fromTick; t < toTick; t++ {
			v := increment*(t+1) + overflow
			if v > total {
				return
			}
			emit(v)
		}
	}
}
