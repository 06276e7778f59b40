package domain

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
)

const orderNumberSuffixLen = 4

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// OrderNumberGenerator produces numbers of the form ORD-<unix-ms>-<4 base36 chars>.
// Two numbers generated in the same millisecond differ only by the random suffix,
// so uniqueness is probabilistic; the order store enforces it.
type OrderNumberGenerator struct {
	mu  sync.Mutex
	now func() time.Time
	rnd *rand.Rand
}

func NewOrderNumberGenerator() *OrderNumberGenerator {
	return &OrderNumberGenerator{
		now: time.Now,
		rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NewOrderNumberGeneratorWith is used by tests to pin the clock and random source.
func NewOrderNumberGeneratorWith(now func() time.Time, rnd *rand.Rand) *OrderNumberGenerator {
	return &OrderNumberGenerator{now: now, rnd: rnd}
}

func (g *OrderNumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.WriteString("ORD-")
	b.WriteString(strconv.FormatInt(g.now().UnixMilli(), 10))
	b.WriteByte('-')
	for i := 0; i < orderNumberSuffixLen; i++ {
		b.WriteByte(base36[g.rnd.IntN(len(base36))])
	}
	return b.String()
}
