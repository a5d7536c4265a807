// Package dedupe finds students who were enrolled more than once under
// different records. It is offline admin tooling: the verification pipeline
// itself never uses the approximate index.
package dedupe

import (
	"fmt"
	"sort"

	"github.com/coder/hnsw"

	"github.com/kbediako/examgate/internal/recognition"
	"github.com/kbediako/examgate/internal/store"
)

const maxNeighbors = 16

// Pair is one suspected duplicate enrollment: two distinct students whose
// descriptors sit closer than the matcher threshold.
type Pair struct {
	StudentA string
	StudentB string
	Distance float64
}

// FindDuplicates scans all enrolled descriptors for pairs below threshold.
// An HNSW graph narrows each student to approximate neighbors; reported
// distances are exact, recomputed with the same metric the matcher uses.
func FindDuplicates(descriptors []store.EnrolledDescriptor, threshold float64, progress func(done, total int)) ([]Pair, error) {
	if len(descriptors) < 2 {
		return nil, nil
	}

	g := hnsw.NewGraph[string]()
	g.M = maxNeighbors
	g.Ml = 1.0 / float64(maxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	byID := make(map[string][]float32, len(descriptors))
	for i := range descriptors {
		d := &descriptors[i]
		if len(d.Descriptor) == 0 {
			continue
		}
		if _, dup := byID[d.StudentID]; dup {
			return nil, fmt.Errorf("student %s appears twice in descriptor set", d.StudentID)
		}
		g.Add(hnsw.MakeNode(d.StudentID, d.Descriptor))
		byID[d.StudentID] = d.Descriptor
	}

	seen := make(map[string]bool)
	var pairs []Pair

	for i := range descriptors {
		d := &descriptors[i]
		if len(d.Descriptor) == 0 {
			continue
		}

		neighbors := g.Search(d.Descriptor, maxNeighbors)
		for _, n := range neighbors {
			if n.Key == d.StudentID {
				continue
			}
			dist := recognition.EuclideanDistance(d.Descriptor, byID[n.Key])
			if dist >= threshold {
				continue
			}

			a, b := d.StudentID, n.Key
			if a > b {
				a, b = b, a
			}
			key := a + "|" + b
			if seen[key] {
				continue
			}
			seen[key] = true
			pairs = append(pairs, Pair{StudentA: a, StudentB: b, Distance: dist})
		}

		if progress != nil {
			progress(i+1, len(descriptors))
		}
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Distance < pairs[j].Distance })
	return pairs, nil
}
