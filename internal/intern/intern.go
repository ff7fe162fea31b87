// Package intern provides a shared string-interning pool so that repeated
// references to the same global/local name share one canonical backing
// string. Each Intern call still hashes its argument (spec §9 design note).
package intern

import "github.com/dolthub/swiss"

// Pool interns strings to a single canonical backing value.
type Pool struct {
	strings *swiss.Map[string, string]
}

// New returns an empty Pool sized for roughly size distinct names.
func New(size int) *Pool {
	if size < 8 {
		size = 8
	}
	return &Pool{strings: swiss.NewMap[string, string](uint32(size))}
}

// Intern returns the pool's canonical copy of s, recording s as canonical
// the first time it's seen.
func (p *Pool) Intern(s string) string {
	if existing, ok := p.strings.Get(s); ok {
		return existing
	}
	p.strings.Put(s, s)
	return s
}
