// Package fitstore persists fitted model artifacts: a meta.json describing
// the fit and an NDJSON file of posterior draws, one directory per fit ID.
package fitstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/pkbridge/erlab/internal/mcmc"
	"github.com/pkbridge/erlab/internal/model"
	"github.com/pkbridge/erlab/internal/posterior"
)

const (
	metaFile  = "meta.json"
	drawsFile = "draws.ndjson"
	idLength  = 12

	bufSize = 64 * 1024
)

// Meta describes one persisted fit.
type Meta struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	CreatedAt time.Time           `json:"created_at"`
	Dataset   string              `json:"dataset"`
	Rows      int                 `json:"rows"`
	Spec      model.Spec          `json:"spec"`
	Sampler   mcmc.Config         `json:"sampler"`
	Accept    []float64           `json:"accept,omitempty"`
	Params    []string            `json:"params"`
	Summaries []posterior.Summary `json:"summaries,omitempty"`
}

// drawRow is one NDJSON line of the draws file.
type drawRow struct {
	Chain int       `json:"chain"`
	Theta []float64 `json:"theta"`
}

// Save writes the fit under dir, minting a nanoid fit ID when meta.ID is
// empty, and returns the completed Meta.
func Save(dir string, meta Meta, d *posterior.Draws) (Meta, error) {
	if meta.ID == "" {
		id, err := gonanoid.New(idLength)
		if err != nil {
			return Meta{}, fmt.Errorf("fitstore: mint id: %w", err)
		}
		meta.ID = id
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	meta.Params = d.Params()

	fitDir := filepath.Join(dir, meta.ID)
	if err := os.MkdirAll(fitDir, 0o755); err != nil {
		return Meta{}, fmt.Errorf("fitstore: %w", err)
	}

	mb, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return Meta{}, fmt.Errorf("fitstore: marshal meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(fitDir, metaFile), mb, 0o644); err != nil {
		return Meta{}, fmt.Errorf("fitstore: write meta: %w", err)
	}

	f, err := os.Create(filepath.Join(fitDir, drawsFile))
	if err != nil {
		return Meta{}, fmt.Errorf("fitstore: %w", err)
	}
	w := bufio.NewWriterSize(f, bufSize)
	enc := json.NewEncoder(w)
	for c := 0; c < d.NumChains(); c++ {
		for i := 0; i < d.PerChain(); i++ {
			theta, err := d.At(c, i)
			if err != nil {
				f.Close()
				return Meta{}, err
			}
			if err := enc.Encode(drawRow{Chain: c, Theta: theta}); err != nil {
				f.Close()
				return Meta{}, fmt.Errorf("fitstore: write draw: %w", err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return Meta{}, fmt.Errorf("fitstore: flush draws: %w", err)
	}
	if err := f.Close(); err != nil {
		return Meta{}, fmt.Errorf("fitstore: close draws: %w", err)
	}
	return meta, nil
}

// Load reads one fit back.
func Load(dir, id string) (Meta, *posterior.Draws, error) {
	fitDir := filepath.Join(dir, id)
	meta, err := readMeta(fitDir)
	if err != nil {
		return Meta{}, nil, err
	}

	f, err := os.Open(filepath.Join(fitDir, drawsFile))
	if err != nil {
		return Meta{}, nil, fmt.Errorf("fitstore: %w", err)
	}
	defer f.Close()

	byChain := map[int][][]float64{}
	maxChain := -1
	dec := json.NewDecoder(bufio.NewReaderSize(f, bufSize))
	for {
		var row drawRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return Meta{}, nil, fmt.Errorf("fitstore: read draws: %w", err)
		}
		byChain[row.Chain] = append(byChain[row.Chain], row.Theta)
		if row.Chain > maxChain {
			maxChain = row.Chain
		}
	}
	if maxChain < 0 {
		return Meta{}, nil, fmt.Errorf("fitstore: fit %s has no draws", id)
	}
	chains := make([][][]float64, maxChain+1)
	for c := range chains {
		rows, ok := byChain[c]
		if !ok {
			return Meta{}, nil, fmt.Errorf("fitstore: fit %s missing chain %d", id, c)
		}
		chains[c] = rows
	}
	d, err := posterior.NewDraws(meta.Params, chains)
	if err != nil {
		return Meta{}, nil, fmt.Errorf("fitstore: fit %s: %w", id, err)
	}
	return meta, d, nil
}

// List returns metadata for every fit under dir, newest first.
func List(dir string) ([]Meta, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fitstore: %w", err)
	}
	var out []Meta
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := readMeta(filepath.Join(dir, e.Name()))
		if err != nil {
			continue // skip unrelated directories
		}
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func readMeta(fitDir string) (Meta, error) {
	b, err := os.ReadFile(filepath.Join(fitDir, metaFile))
	if err != nil {
		return Meta{}, fmt.Errorf("fitstore: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(b, &meta); err != nil {
		return Meta{}, fmt.Errorf("fitstore: parse meta: %w", err)
	}
	return meta, nil
}
