package predict

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pkbridge/erlab/internal/model"
	"github.com/pkbridge/erlab/internal/posterior"
)

// Simulator turns a fitted model into predictions at new exposures. It reads
// the draws; it never modifies them.
type Simulator struct {
	m *model.Model
	d *posterior.Draws
}

// New pairs a model with its draws, verifying the parameter layout matches.
func New(m *model.Model, d *posterior.Draws) (*Simulator, error) {
	names := m.ParamNames()
	got := d.Params()
	if len(names) != len(got) {
		return nil, fmt.Errorf("predict: draws have %d parameters, model has %d", len(got), len(names))
	}
	for i := range names {
		if names[i] != got[i] {
			return nil, fmt.Errorf("predict: parameter %d is %q in draws but %q in model", i, got[i], names[i])
		}
	}
	return &Simulator{m: m, d: d}, nil
}

// covVector orders a covariate map to match the model spec. Missing
// covariates default to 0 (the reference on centered scales); unknown names
// are an error.
func (s *Simulator) covVector(covs map[string]float64) ([]float64, error) {
	spec := s.m.Spec()
	out := make([]float64, len(spec.Covariates))
	seen := 0
	for i, c := range spec.Covariates {
		if v, ok := covs[c]; ok {
			out[i] = v
			seen++
		}
	}
	if seen != len(covs) {
		for k := range covs {
			found := false
			for _, c := range spec.Covariates {
				if k == c {
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("predict: covariate %q not in model", k)
			}
		}
	}
	return out, nil
}

// Expected returns one expected-value-scale response per posterior draw at
// the given exposure and covariate values.
func (s *Simulator) Expected(exposure float64, covs map[string]float64) ([]float64, error) {
	cv, err := s.covVector(covs)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, s.d.Total())
	s.d.Each(func(theta []float64) {
		out = append(out, s.m.Mean(theta, exposure, cv))
	})
	return out, nil
}

// Linear returns one linear-predictor-scale value per posterior draw.
func (s *Simulator) Linear(exposure float64, covs map[string]float64) ([]float64, error) {
	cv, err := s.covVector(covs)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, s.d.Total())
	s.d.Each(func(theta []float64) {
		out = append(out, s.m.Linear(theta, exposure, cv))
	})
	return out, nil
}

// Predictive returns posterior predictive response draws, including
// observation noise: Bernoulli outcomes for logistic models, Normal noise
// for Emax models. Deterministic for a fixed seed.
func (s *Simulator) Predictive(exposure float64, covs map[string]float64, seed uint64) ([]float64, error) {
	cv, err := s.covVector(covs)
	if err != nil {
		return nil, err
	}
	src := rand.NewSource(seed)
	out := make([]float64, 0, s.d.Total())
	logistic := s.m.Spec().Family == model.Logistic
	s.d.Each(func(theta []float64) {
		mean := s.m.Mean(theta, exposure, cv)
		if logistic {
			out = append(out, distuv.Bernoulli{P: mean, Src: src}.Rand())
			return
		}
		out = append(out, distuv.Normal{Mu: mean, Sigma: s.m.Sigma(theta), Src: src}.Rand())
	})
	return out, nil
}

// Point is a summarized prediction at one exposure.
type Point struct {
	Exposure float64 `json:"exposure"`
	Median   float64 `json:"median"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// Curve summarizes expected-value predictions over an exposure grid to
// median and central interval of mass prob.
func (s *Simulator) Curve(exposures []float64, covs map[string]float64, prob float64) ([]Point, error) {
	return s.curve(exposures, covs, prob, s.Expected)
}

// LinearCurve is Curve on the linear-predictor scale.
func (s *Simulator) LinearCurve(exposures []float64, covs map[string]float64, prob float64) ([]Point, error) {
	return s.curve(exposures, covs, prob, s.Linear)
}

func (s *Simulator) curve(exposures []float64, covs map[string]float64, prob float64,
	eval func(float64, map[string]float64) ([]float64, error)) ([]Point, error) {
	if len(exposures) == 0 {
		return nil, fmt.Errorf("predict: empty exposure grid")
	}
	out := make([]Point, 0, len(exposures))
	for _, x := range exposures {
		draws, err := eval(x, covs)
		if err != nil {
			return nil, err
		}
		iv, err := posterior.QuantileInterval(draws, prob)
		if err != nil {
			return nil, err
		}
		out = append(out, Point{Exposure: x, Median: iv.Median, Lower: iv.Lower, Upper: iv.Upper})
	}
	return out, nil
}

// Grid builds n evenly spaced exposures covering [min, max].
func Grid(min, max float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("predict: grid needs at least 2 points, got %d", n)
	}
	if !(max > min) {
		return nil, fmt.Errorf("predict: grid range [%g, %g] is empty", min, max)
	}
	out := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	return out, nil
}
