package eval

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/averywhite/quorumreg/register"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// CrashImpactConfig parameterizes the two-client crash scenario: one client
// (the "crashing" one) stops issuing requests after CrashAfter; the other
// keeps running until Duration elapses.
type CrashImpactConfig struct {
	CrashAfter time.Duration
	Duration   time.Duration
}

// CrashImpactResult reports the surviving client's operation counts and
// rolling throughput before and after the crash instant.
type CrashImpactResult struct {
	OpsBeforeCrash int64
	OpsAfterCrash  int64

	// ThroughputSeriesX/Y sample the surviving client's operations-per-second
	// at each completed operation, for plotting.
	ThroughputSeriesX, ThroughputSeriesY []float64
}

// ThroughputBefore returns the surviving client's ops/sec up to the crash.
func (r *CrashImpactResult) ThroughputBefore(cfg CrashImpactConfig) float64 {
	return float64(r.OpsBeforeCrash) / cfg.CrashAfter.Seconds()
}

// ThroughputAfter returns the surviving client's ops/sec after the crash.
func (r *CrashImpactResult) ThroughputAfter(cfg CrashImpactConfig) float64 {
	after := cfg.Duration - cfg.CrashAfter
	if after <= 0 {
		return 0
	}
	return float64(r.OpsAfterCrash) / after.Seconds()
}

// CrashImpact drives cfg.Duration worth of alternating reads and writes from
// two registers against the same key space: crashing stops issuing
// operations at cfg.CrashAfter, while surviving keeps going for the full
// duration. It reports surviving's throughput on each side of the crash
// instant.
func CrashImpact(ctx context.Context, crashing, surviving register.Register, cfg CrashImpactConfig) (*CrashImpactResult, error) {
	start := time.Now()
	crashTime := start.Add(cfg.CrashAfter)
	endTime := start.Add(cfg.Duration)

	var crashed atomic.Bool
	done := make(chan struct{})

	go func() {
		defer close(done)
		i := 0
		for time.Now().Before(endTime) {
			if time.Now().After(crashTime) {
				crashed.Store(true)
				return
			}
			runOne(ctx, crashing, "crash_key", i)
			i++
		}
	}()

	res := &CrashImpactResult{}
	i := 0
	for time.Now().Before(endTime) {
		if err := runOne(ctx, surviving, "crash_key", i); err == nil {
			if time.Now().Before(crashTime) {
				res.OpsBeforeCrash++
			} else {
				res.OpsAfterCrash++
			}
			elapsed := time.Since(start).Seconds()
			res.ThroughputSeriesX = append(res.ThroughputSeriesX, elapsed)
			res.ThroughputSeriesY = append(res.ThroughputSeriesY, float64(res.OpsBeforeCrash+res.OpsAfterCrash)/elapsed)
		}
		i++
	}
	<-done
	return res, nil
}

func runOne(ctx context.Context, r register.Register, keyPrefix string, i int) error {
	key := fmt.Sprintf("%s_%d", keyPrefix, i%64)
	if i%2 == 0 {
		_, err := r.Read(ctx, key)
		return err
	}
	return r.Write(ctx, key, []byte(fmt.Sprintf("value_%d", i)))
}

// RenderChart plots the surviving client's throughput-over-time series to
// path as a PNG, using a vertical line to mark the crash instant.
func (r *CrashImpactResult) RenderChart(cfg CrashImpactConfig, path string) error {
	p := plot.New()
	p.Title.Text = "Surviving client throughput around crash"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Throughput (ops/s)"

	pts := make(plotter.XYs, len(r.ThroughputSeriesX))
	for i := range pts {
		pts[i].X = r.ThroughputSeriesX[i]
		pts[i].Y = r.ThroughputSeriesY[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("building throughput line: %w", err)
	}
	p.Add(line)

	maxY := 0.0
	for _, y := range r.ThroughputSeriesY {
		if y > maxY {
			maxY = y
		}
	}
	crashX := cfg.CrashAfter.Seconds()
	marker, err := plotter.NewLine(plotter.XYs{{X: crashX, Y: 0}, {X: crashX, Y: maxY}})
	if err != nil {
		return fmt.Errorf("building crash marker: %w", err)
	}
	p.Add(marker)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving chart %s: %w", path, err)
	}
	return nil
}
