package clusterview

import "sort"

// FallbackColor marks points whose cluster could not be resolved.
const FallbackColor = "#9e9e9e"

// DefaultPalette is the dashboard's cluster palette.
var DefaultPalette = []string{
	"#3498db",
	"#8e44ad",
	"#4CAF50",
	"#F44336",
	"#2c3e50",
	"#e67e22",
	"#16a085",
	"#f1c40f",
	"#d35400",
	"#7f8c8d",
}

// Palette assigns colours to cluster ids. A cluster's slot is its position
// among the response's ids in ascending order, so the same response always
// renders the same way.
type Palette struct {
	colors []string
	slots  map[int]int
}

func newPalette(colors []string, ids []int) Palette {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	slots := make(map[int]int, len(sorted))
	for _, id := range sorted {
		if _, ok := slots[id]; !ok {
			slots[id] = len(slots)
		}
	}
	return Palette{colors: colors, slots: slots}
}

// Color returns the palette colour for id and whether id is known.
func (p Palette) Color(id int) (string, bool) {
	slot, ok := p.slots[id]
	if !ok || len(p.colors) == 0 {
		return FallbackColor, ok
	}
	return p.colors[slot%len(p.colors)], true
}
