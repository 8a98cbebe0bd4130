package types

import "sort"

// DisjointRegion identifies a maximal set of mesh elements sharing the same
// element type and physical classification. It is assigned by the mesh.
type DisjointRegion int

// SortRegions returns a sorted copy without duplicates.
func SortRegions(regions []DisjointRegion) (sorted []DisjointRegion) {
	sorted = make([]DisjointRegion, 0, len(regions))
	seen := make(map[DisjointRegion]bool, len(regions))
	for _, r := range regions {
		if !seen[r] {
			seen[r] = true
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return
}
