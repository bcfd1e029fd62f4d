package nowcast

import (
	"math"
	"sync"

	"github.com/stormdrift/nowcast/internal/grid"
)

// BuildMask constructs the circular sensing footprint for a size×size
// grid: 1.0 where the cell's offset from the grid center is within
// size/2, NaN outside. Deterministic and side-effect free.
func BuildMask(size int) grid.Mask {
	m := grid.New(size, size)
	center := float64(size) / 2
	radius2 := center * center
	for i := 0; i < size; i++ {
		di := float64(i) - center
		for j := 0; j < size; j++ {
			dj := float64(j) - center
			if di*di+dj*dj > radius2 {
				m.Set(i, j, math.NaN())
			} else {
				m.Set(i, j, 1.0)
			}
		}
	}
	return grid.Mask{Grid: m}
}

// Masks are pure functions of grid size, so one per size is enough for
// the process lifetime. Safe to share: a Mask is never mutated.
var maskCache = struct {
	sync.Mutex
	bySize map[int]grid.Mask
}{bySize: make(map[int]grid.Mask)}

// CachedMask returns the mask for the given size, building it on first
// use and reusing it afterwards.
func CachedMask(size int) grid.Mask {
	maskCache.Lock()
	defer maskCache.Unlock()
	if m, ok := maskCache.bySize[size]; ok {
		return m
	}
	m := BuildMask(size)
	maskCache.bySize[size] = m
	return m
}
