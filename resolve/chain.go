package resolve

import (
	"fmt"
	"strings"
)

// Candidate is one link of a precedence chain: a key looked up in a source.
type Candidate struct {
	Source Source
	Key    string
}

// Resolution records the winning candidate of a chain.
type Resolution struct {
	Value  any
	Source string
	Key    string
}

// String renders the winner as source:key, e.g. "env:PORT".
func (r Resolution) String() string {
	if r.Key == "" {
		return r.Source
	}
	return r.Source + ":" + r.Key
}

// Chain is an ordered list of candidates, highest precedence first.
type Chain []Candidate

// From builds the candidates for several keys of the same source.
func From(src Source, keys ...string) Chain {
	c := make(Chain, 0, len(keys))
	for _, k := range keys {
		c = append(c, Candidate{Source: src, Key: k})
	}
	return c
}

// Then returns a new chain with more appended. The receiver is not modified,
// so one base chain can be extended several ways.
func (c Chain) Then(more ...Candidate) Chain {
	out := make(Chain, 0, len(c)+len(more))
	return append(append(out, c...), more...)
}

// Default returns a candidate that always yields v.
func Default(v any) Candidate {
	return Candidate{Source: SourceFunc("default", func(string) (any, bool) { return v, true })}
}

// Resolve walks the chain and returns the first value accepted by pred.
// Sources after the winner are not consulted.
func (c Chain) Resolve(pred Predicate) (Resolution, bool) {
	for _, cand := range c {
		if cand.Source == nil {
			continue
		}
		v, ok := cand.Source.Lookup(cand.Key)
		if !ok || !pred(v) {
			continue
		}
		return Resolution{Value: v, Source: cand.Source.Name(), Key: cand.Key}, true
	}
	return Resolution{}, false
}

// String lists the chain as source:key entries.
func (c Chain) String() string {
	parts := make([]string, 0, len(c))
	for _, cand := range c {
		name := "<nil>"
		if cand.Source != nil {
			name = cand.Source.Name()
		}
		if cand.Key == "" {
			parts = append(parts, name)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%s", name, cand.Key))
	}
	return strings.Join(parts, " > ")
}
