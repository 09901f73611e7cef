// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/luxfi/metric"
	"google.golang.org/protobuf/proto"
)

var (
	_ MultiGatherer = (*prefixGatherer)(nil)

	errOverlappingNamespaces = errors.New("prefix could create overlapping namespaces")
)

// MultiGatherer extends the Gatherer interface by allowing additional gatherers
// to be registered.
type MultiGatherer interface {
	metric.Gatherer

	// Register adds the outputs of [gatherer] to the results of future calls to
	// Gather with [prefix] prepended to the metric names.
	Register(prefix string, gatherer metric.Gatherer) error

	// Deregister removes the gatherer registered under [prefix]. Returns true
	// if it was found.
	Deregister(prefix string) bool
}

// NewPrefixGatherer returns a MultiGatherer that merges metrics by adding a
// prefix to their names.
func NewPrefixGatherer() MultiGatherer {
	return &prefixGatherer{}
}

type prefixGatherer struct {
	lock      sync.RWMutex
	prefixes  []string
	gatherers []metric.Gatherer
}

func (g *prefixGatherer) Gather() ([]*metric.MetricFamily, error) {
	g.lock.RLock()
	defer g.lock.RUnlock()

	var families []*metric.MetricFamily
	for i, gatherer := range g.gatherers {
		// Gather returns partially filled metrics on error, so they are kept.
		gathered, err := gatherer.Gather()
		for _, family := range gathered {
			family.Name = proto.String(metric.AppendNamespace(g.prefixes[i], family.GetName()))
		}
		families = append(families, gathered...)
		if err != nil {
			return families, err
		}
	}

	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	return families, nil
}

func (g *prefixGatherer) Register(prefix string, gatherer metric.Gatherer) error {
	g.lock.Lock()
	defer g.lock.Unlock()

	for _, existing := range g.prefixes {
		if eitherIsPrefix(prefix, existing) {
			return fmt.Errorf("%w: %q conflicts with %q",
				errOverlappingNamespaces,
				prefix,
				existing,
			)
		}
	}

	g.prefixes = append(g.prefixes, prefix)
	g.gatherers = append(g.gatherers, gatherer)
	return nil
}

func (g *prefixGatherer) Deregister(prefix string) bool {
	g.lock.Lock()
	defer g.lock.Unlock()

	index := slices.Index(g.prefixes, prefix)
	if index == -1 {
		return false
	}
	g.prefixes = slices.Delete(g.prefixes, index, index+1)
	g.gatherers = slices.Delete(g.gatherers, index, index+1)
	return true
}

// MakeAndRegister creates a registry whose metrics are gathered under [prefix].
func MakeAndRegister(gatherer MultiGatherer, prefix string) (metric.Registry, error) {
	reg := metric.NewRegistry()
	if err := gatherer.Register(prefix, reg); err != nil {
		return nil, fmt.Errorf("couldn't register %q metrics: %w", prefix, err)
	}
	return reg, nil
}

// eitherIsPrefix returns true if either [a] is a prefix of [b] or [b] is a
// prefix of [a].
//
// This function accounts for the usage of the namespace boundary, so "hello" is
// not considered a prefix of "helloworld". However, "hello" is considered a
// prefix of "hello_world".
func eitherIsPrefix(a, b string) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	return a == b[:len(a)] &&
		(len(a) == 0 ||
			len(a) == len(b) ||
			b[len(a)] == '_')
}
