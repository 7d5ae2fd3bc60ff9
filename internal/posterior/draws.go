package posterior

import "fmt"

// Draws holds post-warmup MCMC draws: chains × iterations × parameters.
// Immutable after construction; all accessors return copies.
type Draws struct {
	params []string
	chains [][][]float64
}

// NewDraws validates and wraps sampled chains. Every chain must have the
// same length and every row must match the parameter count.
func NewDraws(params []string, chains [][][]float64) (*Draws, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("posterior: no parameters")
	}
	if len(chains) == 0 || len(chains[0]) == 0 {
		return nil, fmt.Errorf("posterior: no draws")
	}
	n := len(chains[0])
	for ci, ch := range chains {
		if len(ch) != n {
			return nil, fmt.Errorf("posterior: chain %d has %d draws, chain 0 has %d", ci, len(ch), n)
		}
		for it, row := range ch {
			if len(row) != len(params) {
				return nil, fmt.Errorf("posterior: chain %d draw %d has %d values for %d parameters",
					ci, it, len(row), len(params))
			}
		}
	}
	return &Draws{params: params, chains: chains}, nil
}

// Params returns the parameter names in theta order.
func (d *Draws) Params() []string {
	out := make([]string, len(d.params))
	copy(out, d.params)
	return out
}

// NumChains returns the chain count.
func (d *Draws) NumChains() int { return len(d.chains) }

// PerChain returns draws per chain.
func (d *Draws) PerChain() int { return len(d.chains[0]) }

// Total returns the pooled draw count.
func (d *Draws) Total() int { return d.NumChains() * d.PerChain() }

// index returns the theta position of the named parameter.
func (d *Draws) index(param string) (int, error) {
	for i, p := range d.params {
		if p == param {
			return i, nil
		}
	}
	return 0, fmt.Errorf("posterior: no parameter %q", param)
}

// Param returns all draws of one parameter pooled across chains.
func (d *Draws) Param(param string) ([]float64, error) {
	idx, err := d.index(param)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, d.Total())
	for _, ch := range d.chains {
		for _, row := range ch {
			out = append(out, row[idx])
		}
	}
	return out, nil
}

// ParamChains returns per-chain draws of one parameter, for diagnostics.
func (d *Draws) ParamChains(param string) ([][]float64, error) {
	idx, err := d.index(param)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(d.chains))
	for ci, ch := range d.chains {
		out[ci] = make([]float64, len(ch))
		for it, row := range ch {
			out[ci][it] = row[idx]
		}
	}
	return out, nil
}

// At returns a copy of one draw's full parameter vector.
func (d *Draws) At(chain, iter int) ([]float64, error) {
	if chain < 0 || chain >= len(d.chains) {
		return nil, fmt.Errorf("posterior: chain %d out of range", chain)
	}
	if iter < 0 || iter >= len(d.chains[chain]) {
		return nil, fmt.Errorf("posterior: iteration %d out of range", iter)
	}
	out := make([]float64, len(d.params))
	copy(out, d.chains[chain][iter])
	return out, nil
}

// Each calls f with every pooled draw in chain order. The slice passed to f
// is reused between calls; f must not retain it.
func (d *Draws) Each(f func(theta []float64)) {
	buf := make([]float64, len(d.params))
	for _, ch := range d.chains {
		for _, row := range ch {
			copy(buf, row)
			f(buf)
		}
	}
}
