package curves

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Length is the number of ticks in every game
const Length = 30

// Curve is an ordered sequence of wattage values, one per tick
type Curve []float64

//go:embed curves.yaml
var defaultDataset []byte

type dataset struct {
	Curves map[string][]float64 `yaml:"curves"`
}

// Store serves the precomputed target curves. It is read-only after load
// and safe for concurrent use.
type Store struct {
	targets map[string]Curve
}

// Default loads the dataset compiled into the binary
func Default() (*Store, error) {
	return Load(defaultDataset)
}

// LoadFile loads a YAML dataset from disk
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curve dataset: %w", err)
	}
	return Load(data)
}

// Load parses a YAML dataset. Entries with the wrong length are kept and
// reported at lookup time so one bad entry does not take the others down.
func Load(data []byte) (*Store, error) {
	var ds dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse curve dataset: %w", err)
	}

	targets := make(map[string]Curve, len(ds.Curves))
	for key, values := range ds.Curves {
		if len(values) != Length {
			log.Warn().
				Str("difficulty", key).
				Int("length", len(values)).
				Int("expected", Length).
				Msg("curve dataset entry has wrong length")
		}
		targets[key] = Curve(values)
	}

	return &Store{targets: targets}, nil
}

// Lookup returns copies of the target and tolerance curves for a
// difficulty. A missing or malformed target curve degrades to a flat zero
// curve instead of failing the game.
func (s *Store) Lookup(d Difficulty) (target, tolerance Curve) {
	tolerance = ToleranceFor(d)

	values, ok := s.targets[d.Key()]
	if !ok || len(values) != Length {
		log.Error().
			Str("difficulty", string(d)).
			Bool("found", ok).
			Int("length", len(values)).
			Msg("no valid target curve for difficulty, using zero curve")
		return make(Curve, Length), tolerance
	}

	target = make(Curve, Length)
	copy(target, values)
	return target, tolerance
}
