// Package eval drives workloads against a register.Register and renders the
// resulting latency/throughput data.
package eval

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/averywhite/quorumreg/register"
	"github.com/averywhite/quorumreg/workload"
	"github.com/wcharczuk/go-chart/v2"
)

// ThroughputResult holds one run's raw measurements.
type ThroughputResult struct {
	LatencyX, LatencyY       []float64
	ThroughputX, ThroughputY []float64
	Failures                 int
}

// Throughput replays instrs against r sequentially, recording per-operation
// latency (ms) and running throughput (ops/sec since start).
func Throughput(ctx context.Context, r register.Register, instrs []workload.Instruction) *ThroughputResult {
	res := &ThroughputResult{}
	start := time.Now()

	for i, instr := range instrs {
		opStart := time.Now()

		var err error
		switch instr.Type {
		case workload.OpRead:
			_, err = r.Read(ctx, instr.Key)
		case workload.OpWrite:
			err = r.Write(ctx, instr.Key, instr.Value)
		}
		if err != nil {
			res.Failures++
			continue
		}

		latency := float64(time.Since(opStart).Milliseconds())
		res.LatencyX = append(res.LatencyX, float64(i+1))
		res.LatencyY = append(res.LatencyY, latency)

		elapsed := time.Since(start).Seconds()
		res.ThroughputX = append(res.ThroughputX, elapsed)
		res.ThroughputY = append(res.ThroughputY, float64(i+1)/elapsed)

		if instr.Delay > 0 {
			time.Sleep(instr.Delay)
		}
	}
	return res
}

// RenderCharts writes a latency-over-operations PNG and a
// throughput-over-time PNG to outDir.
func (r *ThroughputResult) RenderCharts(outDir string) error {
	if err := renderChart("Latency", "Operation", "Latency (ms)", r.LatencyX, r.LatencyY, outDir+"/latency.png"); err != nil {
		return err
	}
	return renderChart("Throughput", "Time (s)", "Throughput (ops/s)", r.ThroughputX, r.ThroughputY, outDir+"/throughput.png")
}

func renderChart(title, xLabel, yLabel string, xData, yData []float64, path string) error {
	graph := chart.Chart{
		Title: title,
		XAxis: chart.XAxis{Name: xLabel},
		YAxis: chart.YAxis{Name: yLabel},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: title, XValues: xData, YValues: yData},
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file %s: %w", path, err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("rendering chart %s: %w", path, err)
	}
	return nil
}
