package simulator

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/okian/pillowbout/internal/domain/model"
)

// Tap is one scoring button press. Taps sharing a Key are the same press
// delivered more than once.
type Tap struct {
	Key     string
	Fighter model.Competitor
	Kind    model.Kind
}

// Metadata is the bout header sent before the first round.
type Metadata struct {
	Judge    string `json:"judge"`
	BoutID   string `json:"bout"`
	FighterA string `json:"fighter_a"`
	FighterB string `json:"fighter_b"`
}

// Generator produces reproducible bout scripts from a seed.
type Generator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewGenerator seeds a generator; seed zero picks one from the clock.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{faker: gofakeit.New(uint64(seed)), seed: seed}
}

// Seed returns the seed in use.
func (g *Generator) Seed() int64 { return g.seed }

// Metadata invents a judge, a bout number and two fighters.
func (g *Generator) Metadata() Metadata {
	return Metadata{
		Judge:    g.faker.Name(),
		BoutID:   g.faker.Numerify("###"),
		FighterA: g.faker.FirstName() + " " + g.faker.LastName(),
		FighterB: g.faker.FirstName() + " " + g.faker.LastName(),
	}
}

// Taps scripts n presses for round r. About ratio of them repeat the key
// of an earlier press in the same round.
func (g *Generator) Taps(r model.Round, n int, ratio float64) []Tap {
	taps := make([]Tap, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 && g.faker.Float64Range(0, 1) < ratio {
			taps = append(taps, taps[g.faker.Number(0, i-1)])
			continue
		}
		taps = append(taps, Tap{
			Key:     fmt.Sprintf("%s-%03d-%s", r.Short(), i, g.faker.UUID()),
			Fighter: model.Competitors[g.faker.Number(0, len(model.Competitors)-1)],
			Kind:    model.Kinds[g.faker.Number(0, len(model.Kinds)-1)],
		})
	}
	return taps
}

// Filler is a fresh single-point style press for fighter, used to level
// the regulation totals.
func (g *Generator) Filler(fighter model.Competitor) Tap {
	return Tap{Key: "fill-" + g.faker.UUID(), Fighter: fighter, Kind: model.KindHead}
}
