package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"code.cloudfoundry.org/bytefmt"
)

func opsRate(current, prev uint64, took time.Duration) float64 {
	return float64(current-prev) / took.Seconds()
}

// latencyQuantiles extracts the usual latency quantiles from the run
// histogram, converted from microseconds to milliseconds.
func latencyQuantiles(state *benchState) map[string]float64 {
	state.histMutex.Lock()
	defer state.histMutex.Unlock()

	mp := map[string]float64{"q0": 0, "q50": 0, "q95": 0, "q99": 0, "q999": 0, "q100": 0}
	if state.histogram.TotalCount() == 0 {
		return mp
	}
	for name, q := range map[string]float64{
		"q0": 0.0, "q50": 50.0, "q95": 95.0, "q99": 99.0, "q999": 99.9, "q100": 100.0,
	} {
		mp[name] = float64(state.histogram.ValueAtQuantile(q)) / 1e3
	}
	return mp
}

func replyVolume(state *benchState) string {
	return bytefmt.ByteSize(atomic.LoadUint64(&state.totalBytes))
}

// reportProgress prints periodic throughput and p50 while the benchmark
// runs, until the stop channel closes.
func reportProgress(period time.Duration, start, end time.Time, state *benchState, stop <-chan struct{}) {
	prevTime := start
	prevOps := uint64(0)
	totalMs := float64(end.Sub(start).Milliseconds())

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	fmt.Printf("%26s %7s %25s %25s %25s\n", "Test time", " ", "Query Rate", "Client p50 (ms)", "Total Queries")
	for {
		select {
		case <-stop:
			fmt.Println()
			return
		case now := <-ticker.C:
			took := now.Sub(prevTime)
			remaining := end.Sub(now)
			currentOps := atomic.LoadUint64(&state.totalOps)
			completion := (totalMs - float64(remaining.Milliseconds())) / totalMs * 100.0

			state.histMutex.Lock()
			p50 := float64(state.histogram.ValueAtQuantile(50.0)) / 1e3
			state.histMutex.Unlock()

			fmt.Printf("%25.0fs %7s %25.2f %25.3f %25d\r",
				time.Since(start).Seconds(),
				fmt.Sprintf("[%3.1f%%]", completion),
				opsRate(currentOps, prevOps, took),
				p50, currentOps)

			prevTime = now
			prevOps = currentOps
		}
	}
}
