package eval

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/uneda-cda/UNEDA-sub001/frame"
	"github.com/uneda-cda/UNEDA-sub001/pbase"
	"github.com/uneda-cda/UNEDA-sub001/vbase"
)

// MomentEps is the round-off snap threshold for NEMO moments (spec §4.4
// "round-off values below ε are snapped to zero").
const MomentEps = 1e-9

// PMoment holds a P-node's generalized-Dirichlet moments plus the
// "covariance term" used to form PV_cov (spec §4.4).
type PMoment struct {
	Mean, Variance, CovTerm float64
}

// VMoment holds a V-node's triangular-distribution moments.
type VMoment struct {
	Mean, Variance, ThirdCentralMoment float64
}

// PGroupMoments computes every sibling's P-node moments in one sibling
// group, treating the group as a generalized Dirichlet with scale
// lambda = (sum of widths) / (1 - sum of lower bounds), falling back to
// lambda=1 when the denominator is negligible (spec §4.4).
func PGroupMoments(lobo, upbo, mid []float64) []PMoment {
	sumT, sumLo := 0.0, 0.0
	for i := range lobo {
		sumT += upbo[i] - lobo[i]
		sumLo += lobo[i]
	}
	denom := 1 - sumLo
	lambda := 1.0
	if denom > MomentEps {
		lambda = sumT / denom
	}
	out := make([]PMoment, len(lobo))
	for i := range lobo {
		t := upbo[i] - lobo[i]
		m := mid[i]
		out[i] = PMoment{
			Mean:     m,
			Variance: snap(t * t * m * (1 - m) / (lambda + 1)),
			CovTerm:  snap(t * t * m * m / (lambda + 1)),
		}
	}
	return out
}

// VNodeMoment computes a leaf's triangular-distribution moments (spec
// §4.4). With V_MID_SNAP in effect, the mean is clipped into the
// geometrically admissible range for a triangular distribution with mode in
// [lo, up], then averaged halfway with the declared mid.
func VNodeMoment(lo, up, declaredMid float64) VMoment {
	t := up - lo
	if t <= MomentEps {
		return VMoment{Mean: declaredMid, Variance: 0, ThirdCentralMoment: 0}
	}
	loClip := (2*lo + up) / 3
	upClip := (lo + 2*up) / 3
	clipped := declaredMid
	if clipped < loClip {
		clipped = loClip
	}
	if clipped > upClip {
		clipped = upClip
	}
	mean := (clipped + declaredMid) / 2

	mode := 3*mean - lo - up
	q := (mode - lo) / t
	variance := t * t * (1 - q + q*q) / 18
	tcm := t * t * t * (2 - 3*q - 3*q*q + 2*q*q*q) / 270
	if math.Abs(tcm) < MomentEps*MomentEps*MomentEps {
		tcm = 0
	}
	return VMoment{Mean: mean, Variance: snap(variance), ThirdCentralMoment: tcm}
}

// ProductMoment combines a P-node and V-node moment pair into the product
// moments used by NEMO's per-leaf contribution (spec §4.4).
type ProductMoment struct {
	Mean, Variance, Cov, ThirdCentralMoment float64
}

func ProductMoments(p PMoment, v VMoment) ProductMoment {
	cov := 0.0
	if p.CovTerm > 0 {
		cov = math.Sqrt(p.CovTerm) * v.Mean
	}
	return ProductMoment{
		Mean:                p.Mean * v.Mean,
		Variance:            snap(p.Variance*v.Variance + p.Variance*v.Mean*v.Mean + p.Mean*p.Mean*v.Variance),
		Cov:                 cov,
		ThirdCentralMoment:  p.Mean * v.ThirdCentralMoment,
	}
}

// AlternativeMoments aggregates every real leaf's product moments into the
// alternative's overall mean/variance/third-central-moment (NEMO, spec
// §4.4). Sibling covariance is the separable model
// covar[i][j] = -cov_i*cov_j; the alternative's variance sums the
// upper-right triangle of that matrix (via gonum's mat.Dense, since this is
// exactly a small dense outer-product accumulation) and doubles it for
// symmetry, per the leaf-pair covariance contribution, on top of each
// leaf's own variance. The third central moment is approximated as the sum
// of leaf contributions divided by the node count rather than by a strict
// cumulant law (spec §9 design note — a documented departure, not a bug).
func AlternativeMoments(f *frame.Frame, pb *pbase.Base, vb *vbase.Base, alt int) (Result3, error) {
	leaves, err := f.RealLeaves(alt)
	if err != nil {
		return Result3{}, err
	}
	n := len(leaves)
	if n == 0 {
		return Result3{}, nil
	}

	lobo, upbo, pmid := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, leaf := range leaves {
		lo, up, err := pb.LocalHull(alt, leaf)
		if err != nil {
			return Result3{}, err
		}
		mp, err := pb.LocalMassPoint(alt, leaf)
		if err != nil {
			return Result3{}, err
		}
		lobo[i], upbo[i], pmid[i] = lo, up, mp
	}
	pmoms := PGroupMoments(lobo, upbo, pmid)

	products := make([]ProductMoment, n)
	covTerms := make([]float64, n)
	mean, tcmSum := 0.0, 0.0
	for i, leaf := range leaves {
		vlo, vup, err := vb.Hull(alt, leaf)
		if err != nil {
			return Result3{}, err
		}
		vmid, err := vb.Mid(alt, leaf)
		if err != nil {
			return Result3{}, err
		}
		vmom := VNodeMoment(vlo, vup, vmid)
		pm := ProductMoments(pmoms[i], vmom)
		products[i] = pm
		covTerms[i] = pm.Cov
		mean += pm.Mean
		tcmSum += pm.ThirdCentralMoment
	}

	covar := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			covar.Set(i, j, -covTerms[i]*covTerms[j])
		}
	}
	crossSum := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			crossSum += covar.At(i, j)
		}
	}
	variance := 0.0
	for _, pm := range products {
		variance += pm.Variance
	}
	variance += 2 * crossSum

	return Result3{
		Mean:               mean,
		Variance:           snap(variance),
		ThirdCentralMoment: snap(tcmSum / float64(n)),
	}, nil
}

// Result3 is a mean/variance/third-central-moment triple, the NEMO output
// shape (spec §4.4, §6 "moments").
type Result3 struct {
	Mean, Variance, ThirdCentralMoment float64
}

// VariableStdDevs returns each real leaf's own standard deviation in
// isolation (spec §4.4, §6 "per-variable standard deviations"): one float
// per leaf, in f.RealLeaves(alt) order, derived from the same
// PGroupMoments/VNodeMoment/ProductMoments pipeline AlternativeMoments uses,
// but without that function's cross-leaf covariance aggregation — each
// entry is sqrt of that single leaf's own product-moment variance.
func VariableStdDevs(f *frame.Frame, pb *pbase.Base, vb *vbase.Base, alt int) ([]float64, error) {
	leaves, err := f.RealLeaves(alt)
	if err != nil {
		return nil, err
	}
	n := len(leaves)
	if n == 0 {
		return nil, nil
	}

	lobo, upbo, pmid := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, leaf := range leaves {
		lo, up, err := pb.LocalHull(alt, leaf)
		if err != nil {
			return nil, err
		}
		mp, err := pb.LocalMassPoint(alt, leaf)
		if err != nil {
			return nil, err
		}
		lobo[i], upbo[i], pmid[i] = lo, up, mp
	}
	pmoms := PGroupMoments(lobo, upbo, pmid)

	out := make([]float64, n)
	for i, leaf := range leaves {
		vlo, vup, err := vb.Hull(alt, leaf)
		if err != nil {
			return nil, err
		}
		vmid, err := vb.Mid(alt, leaf)
		if err != nil {
			return nil, err
		}
		vmom := VNodeMoment(vlo, vup, vmid)
		pm := ProductMoments(pmoms[i], vmom)
		variance := pm.Variance
		if variance < 0 {
			variance = 0
		}
		out[i] = math.Sqrt(variance)
	}
	return out, nil
}

// AlternativeStdDev aggregates an alternative's leaf expected values and
// mass-point weights via gonum/stat's weighted mean/variance into one
// summary standard deviation for the whole alternative — distinct from
// VariableStdDevs' per-leaf figures above — grounded on jndunlap-gohypo's
// use of gonum/stat for the same weighted-aggregate role.
func AlternativeStdDev(f *frame.Frame, pb *pbase.Base, vb *vbase.Base, alt int) (float64, error) {
	leaves, err := f.RealLeaves(alt)
	if err != nil {
		return 0, err
	}
	if len(leaves) == 0 {
		return 0, nil
	}
	data := make([]float64, len(leaves))
	weights := make([]float64, len(leaves))
	for i, leaf := range leaves {
		v, err := vb.Mid(alt, leaf)
		if err != nil {
			return 0, err
		}
		p, err := pb.MassPoint(alt, leaf)
		if err != nil {
			return 0, err
		}
		data[i] = v
		weights[i] = p
	}
	_, variance := stat.MeanVariance(data, weights)
	return math.Sqrt(variance), nil
}

func snap(x float64) float64 {
	if math.Abs(x) < MomentEps {
		return 0
	}
	return x
}
