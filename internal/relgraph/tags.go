package relgraph

// TagGraph holds co-occurrence counts between tags: how many catalog
// problems carry both. Symmetric by construction.
type TagGraph map[string]map[string]float64

// Association returns the co-occurrence strength between two tags, 0 when
// they never appear together.
func (tg TagGraph) Association(a, b string) float64 {
	if tg == nil {
		return 0
	}
	return tg[a][b]
}

// BuildTagGraph derives the tag association graph from problem tag sets.
func BuildTagGraph(tagSets [][]string) TagGraph {
	tg := TagGraph{}
	for _, tags := range tagSets {
		for i, a := range tags {
			for _, b := range tags[i+1:] {
				if a == b {
					continue
				}
				tg.bump(a, b)
				tg.bump(b, a)
			}
		}
	}
	return tg
}

func (tg TagGraph) bump(a, b string) {
	if tg[a] == nil {
		tg[a] = map[string]float64{}
	}
	tg[a][b]++
}
