package checkout

import (
	"fmt"
	"math/rand/v2"
	"time"

	hashids "github.com/speps/go-hashids/v2"
)

const (
	orderNumberPrefix   = "SF"
	orderNumberLayout   = "060102150405"
	orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	orderSuffixSpace    = 1_000_000
)

// NumberGenerator produces human-readable order numbers: SF-<UTC yymmddhhmmss>-<hashid>.
// Collisions are left to the orders unique index.
type NumberGenerator struct {
	hd   *hashids.HashID
	now  func() time.Time
	rand func() int
}

// NewNumberGenerator salts the suffix encoder.
func NewNumberGenerator(salt string) (*NumberGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 4
	data.Alphabet = orderNumberAlphabet
	hd, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("order number encoder: %w", err)
	}
	return &NumberGenerator{
		hd:   hd,
		now:  time.Now,
		rand: func() int { return rand.IntN(orderSuffixSpace) },
	}, nil
}

func (g *NumberGenerator) Next() (string, error) {
	suffix, err := g.hd.Encode([]int{g.rand()})
	if err != nil {
		return "", fmt.Errorf("encode order suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, g.now().UTC().Format(orderNumberLayout), suffix), nil
}
