package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
	"github.com/rs/zerolog"

	"github.com/logfaker/logfaker/corpus"
	"github.com/logfaker/logfaker/search"
)

type benchParams struct {
	engineName      string
	concurrency     int
	duration        time.Duration
	reportingPeriod time.Duration
	maxResults      int
	outfile         string
}

// benchState aggregates per-request measurements across workers. The
// histogram stores latencies in microseconds.
type benchState struct {
	totalOps   uint64
	totalBytes uint64
	histMutex  sync.Mutex
	histogram  *hdrhistogram.Histogram
}

func newBenchState() *benchState {
	return &benchState{
		histogram: hdrhistogram.New(1, int64(time.Hour/time.Microsecond), 3),
	}
}

func (s *benchState) record(latency time.Duration, results []corpus.SearchResult) {
	atomic.AddUint64(&s.totalOps, 1)

	var volume uint64
	for _, r := range results {
		volume += uint64(len(r.Title) + len(r.URL))
	}
	atomic.AddUint64(&s.totalBytes, volume)

	s.histMutex.Lock()
	s.histogram.RecordValue(latency.Microseconds())
	s.histMutex.Unlock()
}

// runBench replays the generated query artifact against the search
// backend for a fixed duration and reports throughput, latency quantiles
// and reply volume. Results are appended as a CSV row to outfile, or to
// stdout when outfile is "-".
func runBench(ctx context.Context, engine search.Engine, queries []corpus.SearchQuery, p benchParams, logger zerolog.Logger) error {
	if !engine.IsHealthy(ctx) {
		return &search.UnavailableError{Engine: p.engineName}
	}

	var out io.WriteCloser
	if p.outfile == "-" {
		out = os.Stdout
	} else {
		f, err := os.OpenFile(p.outfile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	state := newBenchState()
	startTime := time.Now()
	endTime := startTime.Add(p.duration)

	if p.reportingPeriod > 0 {
		stop := make(chan struct{})
		defer close(stop)
		go reportProgress(p.reportingPeriod, startTime, endTime, state, stop)
	}

	var wg sync.WaitGroup
	var next uint64
	errs := make(chan error, p.concurrency)

	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(endTime) {
				q := queries[(atomic.AddUint64(&next, 1)-1)%uint64(len(queries))]

				tst := time.Now()
				results, err := engine.Search(ctx, q.QueryContent, p.maxResults)
				if err != nil {
					errs <- err
					return
				}
				state.record(time.Since(tst), results)
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-errs:
		return err
	default:
	}

	took := time.Since(startTime)
	return writeBenchResult(out, state, p, took, logger)
}

func writeBenchResult(out io.Writer, state *benchState, p benchParams, took time.Duration, logger zerolog.Logger) error {
	ops := atomic.LoadUint64(&state.totalOps)
	rate := opsRate(ops, 0, took)
	quantiles := latencyQuantiles(state)

	logger.Info().
		Uint64("queries", ops).
		Float64("rate", rate).
		Float64("p50_ms", quantiles["q50"]).
		Float64("p99_ms", quantiles["q99"]).
		Str("volume", replyVolume(state)).
		Msg("benchmark finished")

	w := csv.NewWriter(out)
	err := w.Write([]string{
		p.engineName,
		fmt.Sprintf("%d", p.concurrency),
		fmt.Sprintf("%d", ops),
		fmt.Sprintf("%.02f", rate),
		fmt.Sprintf("%.03f", quantiles["q50"]),
		fmt.Sprintf("%.03f", quantiles["q95"]),
		fmt.Sprintf("%.03f", quantiles["q99"]),
		fmt.Sprintf("%.03f", quantiles["q100"]),
		replyVolume(state),
	})
	if err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
