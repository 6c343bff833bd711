package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/golang/glog"
	"github.com/san-kum/pitchctl/internal/ipc"
	"github.com/san-kum/pitchctl/internal/sim"
)

var ErrNoCandidate = errors.New("optim: no grid point produced the metric")

// Tunable loop gains, as accepted by ApplyGains.
const (
	ParamMyKp = "my_kp"
	ParamMyKi = "my_ki"
	ParamMzKp = "mz_kp"
	ParamMzKi = "mz_ki"
)

// ApplyGains returns a copy of cfg with the named gains replaced.
func ApplyGains(cfg ipc.Config, params map[string]float64) (ipc.Config, error) {
	for name, v := range params {
		switch name {
		case ParamMyKp:
			cfg.MyControl.Kp = v
		case ParamMyKi:
			cfg.MyControl.Ki = v
		case ParamMzKp:
			cfg.MzControl.Kp = v
		case ParamMzKi:
			cfg.MzControl.Ki = v
		default:
			return cfg, fmt.Errorf("unknown param: %s", name)
		}
	}
	return cfg, nil
}

// Builder creates a fresh simulator for one grid point.
type Builder func(params map[string]float64) (*sim.Simulator, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search runs every grid point and returns the one minimising metricName.
// Points that fail to build or run are skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	build Builder,
	cfg sim.Config,
	metricName string,
) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("got %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64

	g.searchRecursive(ctx, 0, make(map[string]float64), build, cfg, metricName, &best, &bestParams)

	if err := ctx.Err(); err != nil {
		return bestParams, best, err
	}
	if bestParams == nil {
		return nil, best, ErrNoCandidate
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	build Builder,
	cfg sim.Config,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) {
	if ctx.Err() != nil {
		return
	}

	if depth == len(g.paramNames) {
		s, err := build(current)
		if err != nil {
			glog.V(1).Infof("skipping %v: %v", current, err)
			return
		}

		result, err := s.Run(ctx, cfg)
		if err != nil {
			glog.V(1).Infof("skipping %v: %v", current, err)
			return
		}

		val, ok := result.Metrics[metricName]
		if !ok || math.IsNaN(val) {
			return
		}
		glog.V(2).Infof("%v: %s=%g", current, metricName, val)
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(ctx, depth+1, newParams, build, cfg, metricName, best, bestParams)
	}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	return out
}
