// Package car implements the CAR (Cardinal Alternative Ranking) layer
// (spec §4.5): the six ranking-number generators, ordinal-to-interval
// translation for weight/probability/value bases, and the DURENO-II
// partial-hull pairwise trade-off protocol.
package car

import (
	"math"

	"github.com/uneda-cda/UNEDA-sub001/uerr"
)

// Method selects a ranking-number generator (spec §4.5).
type Method int

const (
	MethodRX Method = iota // default, adaptive
	MethodRS
	MethodRR
	MethodROC
	MethodSR
	MethodXR
)

// MaxStepsPW bounds the relation-step vector used by set_W_base (spec
// §4.5's "rel[k] in {0,1,...,MAX_STEPS_PW}").
const MaxStepsPW = 100

// Generate fills a vector crc[0..slots-1] (rank 1..slots) of normalized
// positive weights summing to 1 (spec §4.5, §8 invariant 7: sum=1±1e-9 and
// non-increasing). nAct feeds RX's adaptive exponent; offset>0 generates on
// a stretched range and renormalizes the requested window, per spec's
// offset rule.
func Generate(method Method, slots, offset, nAct int) ([]float64, error) {
	const op = "car.Generate"
	if slots < 1 {
		return nil, uerr.New(uerr.InputError, op, "slots must be >= 1, got %d", slots)
	}
	if offset < 0 {
		return nil, uerr.New(uerr.InputError, op, "offset must be >= 0, got %d", offset)
	}

	steps := slots + 2*offset
	raw, err := rawWeights(op, method, steps, nAct)
	if err != nil {
		return nil, err
	}
	normalize(raw)

	if offset == 0 {
		return raw, nil
	}
	window := raw[offset : offset+slots]
	out := append([]float64(nil), window...)
	normalize(out)
	return out, nil
}

func rawWeights(op string, method Method, steps, nAct int) ([]float64, error) {
	switch method {
	case MethodRX:
		return rawRX(steps, nAct), nil
	case MethodRS:
		return rawRS(steps), nil
	case MethodRR:
		return rawRR(steps), nil
	case MethodROC:
		return rawROC(steps), nil
	case MethodSR:
		return blend(rawRR(steps), rawRS(steps)), nil
	case MethodXR:
		return blend(rawRR(steps), rawRX(steps, nAct)), nil
	default:
		return nil, uerr.New(uerr.InputError, op, "unknown method %d", method)
	}
}

// rxZ computes RX's adaptive exponent z = 1 + min(nAct/60, 0.25).
func rxZ(nAct int) float64 {
	return 1 + math.Min(float64(nAct)/60, 0.25)
}

func rawRX(steps, nAct int) []float64 {
	z := rxZ(nAct)
	out := make([]float64, steps)
	for i := 1; i <= steps; i++ {
		out[i-1] = math.Pow(float64(steps+1-i), z)
	}
	return out
}

func rawRS(steps int) []float64 {
	out := make([]float64, steps)
	denom := float64(steps * (steps + 1))
	for i := 1; i <= steps; i++ {
		out[i-1] = 2 * float64(steps+1-i) / denom
	}
	return out
}

func rawRR(steps int) []float64 {
	out := make([]float64, steps)
	for i := 1; i <= steps; i++ {
		out[i-1] = 1 / float64(i)
	}
	return out
}

func rawROC(steps int) []float64 {
	out := make([]float64, steps)
	for i := 1; i <= steps; i++ {
		sum := 0.0
		for k := i; k <= steps; k++ {
			sum += 1 / float64(k)
		}
		out[i-1] = sum / float64(steps)
	}
	return out
}

// blend additively combines two normalized raw weight vectors (spec §4.5's
// "SR/XR: additive blends of reciprocal and RS/RX").
func blend(a, b []float64) []float64 {
	na, nb := append([]float64(nil), a...), append([]float64(nil), b...)
	normalize(na)
	normalize(nb)
	out := make([]float64, len(a))
	for i := range out {
		out[i] = na[i] + nb[i]
	}
	return out
}

func normalize(v []float64) {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	if sum <= 0 {
		return
	}
	for i := range v {
		v[i] /= sum
	}
}
