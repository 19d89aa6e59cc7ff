// Package selgen generates the aspect-selector conformance cases: every
// single aspect, every unordered pair, contiguous prefix subsets, and a
// deterministic batch of randomized accept/deny combinations.
package selgen

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/openpar/cts/internal/minstd"
	"github.com/openpar/cts/par"
)

// Case is one selector conformance case: the aspects a device must have and
// the aspects it must not have. Accept and Deny are always disjoint; Accept
// may contain duplicates when drawn randomly.
type Case struct {
	Accept []par.Aspect
	Deny   []par.Aspect
}

// Label renders the case canonically, e.g. "accept=[cpu gpu] deny=[fp16]".
func (c Case) Label() string {
	var sb strings.Builder
	sb.WriteString("accept=[")
	for i, a := range c.Accept {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(a.String())
	}
	sb.WriteString("] deny=[")
	for i, a := range c.Deny {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(a.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// Fingerprint is a stable 64-bit ID of the case, used in harness case names.
func (c Case) Fingerprint() uint64 {
	return xxh3.HashString(c.Label())
}

// Singles returns one case per aspect, no deny list.
func Singles(aspects []par.Aspect) []Case {
	cases := make([]Case, 0, len(aspects))
	for _, a := range aspects {
		cases = append(cases, Case{Accept: []par.Aspect{a}})
	}
	return cases
}

// Pairs returns one case per unordered pair of distinct aspects.
func Pairs(aspects []par.Aspect) []Case {
	var cases []Case
	for i := 0; i < len(aspects); i++ {
		for j := i + 1; j < len(aspects); j++ {
			cases = append(cases, Case{Accept: []par.Aspect{aspects[i], aspects[j]}})
		}
	}
	return cases
}

// PrefixSubsets returns the prefix subsets of sizes smallest, smallest+1, ...
// up to the full list. smallest must not exceed the list length.
func PrefixSubsets(aspects []par.Aspect, smallest int) []Case {
	if smallest < 1 || smallest > len(aspects) {
		panic(fmt.Sprintf("smallest subset size %d out of range for %d aspects",
			smallest, len(aspects)))
	}
	cases := make([]Case, 0, len(aspects)+1-smallest)
	for size := smallest; size <= len(aspects); size++ {
		accept := make([]par.Aspect, size)
		copy(accept, aspects[:size])
		cases = append(cases, Case{Accept: accept})
	}
	return cases
}

// RandomCases returns count cases with randomly-sized accept lists (between
// 2 and len(aspects)-1 entries, drawn with replacement) and randomly-sampled
// deny lists. Two independent minstd streams seeded identically drive the
// accept and deny draws, so the output is fully determined by seed.
func RandomCases(aspects []par.Aspect, count int, seed uint32) []Case {
	acceptRng := minstd.New(seed)
	denyRng := minstd.New(seed)

	n := uint32(len(aspects))
	cases := make([]Case, 0, count)
	for i := 0; i < count; i++ {
		size := 2 + int(acceptRng.Uintn(n-2))
		accept := make([]par.Aspect, size)
		for j := range accept {
			accept[j] = aspects[acceptRng.Uintn(n)]
		}
		cases = append(cases, Case{
			Accept: accept,
			Deny:   sampleDenied(aspects, accept, denyRng),
		})
	}
	return cases
}

// sampleDenied picks denied aspects from those not in accept. Each candidate
// is taken with probability 1/(#aspects - #accepted), giving an expected deny
// list length of about one.
func sampleDenied(aspects, accept []par.Aspect, rng *minstd.Rand) []par.Aspect {
	nonSelected := uint32(len(aspects) - len(accept))
	if nonSelected == 0 {
		return nil
	}
	var denied []par.Aspect
	for _, a := range aspects {
		if par.ContainsAspect(accept, a) {
			continue
		}
		if rng.Next()-minstd.Min < minstd.Range/nonSelected {
			denied = append(denied, a)
		}
	}
	return denied
}
