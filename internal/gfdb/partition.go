package gfdb

import "fmt"

// Build step identifiers. Step 0 computes the layered-medium response over
// the whole grid in a single solver run; step 1 convolves elementary
// sources block by block.
const (
	StepResponse    = 0
	StepConvolution = 1
	NSteps          = 2
)

// Extent is a half-open index range [First, First+Count) on one grid axis.
type Extent struct {
	First int
	Count int
}

// Last returns the index of the final sample covered by the extent.
func (e Extent) Last() int {
	return e.First + e.Count - 1
}

// Block is one independently computable sub-region of the grid.
type Block struct {
	Step  int
	Index int

	SourceDepths Extent
	Distances    Extent
}

// NSamples returns the number of (depth, distance) grid nodes the block
// covers.
func (b Block) NSamples() int {
	return b.SourceDepths.Count * b.Distances.Count
}

// BlockCount returns the number of blocks the given step partitions into.
// blockSize is the maximum distance-axis chunk per step-1 block; zero or
// negative means the whole distance axis.
func (g Grid) BlockCount(step, blockSize int) int {
	if step == StepResponse {
		return 1
	}
	return g.NSourceDepths() * g.nDistanceChunks(blockSize)
}

func (g Grid) nDistanceChunks(blockSize int) int {
	nx := g.NDistances()
	if blockSize <= 0 || blockSize > nx {
		blockSize = nx
	}
	return (nx + blockSize - 1) / blockSize
}

// Partition tiles the grid for the given step into disjoint blocks.
// Step 0 always yields exactly one block spanning everything; step 1 yields
// one block per source depth per distance chunk, the final chunk possibly
// shorter. The blocks tile the grid with no gap and no overlap.
func (g Grid) Partition(step, blockSize int) []Block {
	n := g.BlockCount(step, blockSize)
	blocks := make([]Block, n)
	for i := range blocks {
		b, err := g.BlockExtents(step, blockSize, i)
		if err != nil {
			panic(err) // unreachable: i < BlockCount
		}
		blocks[i] = b
	}
	return blocks
}

// BlockExtents maps a flat block index to its extents. Indexes outside
// [0, BlockCount) yield an error.
func (g Grid) BlockExtents(step, blockSize, iblock int) (Block, error) {
	n := g.BlockCount(step, blockSize)
	if iblock < 0 || iblock >= n {
		return Block{}, fmt.Errorf(
			"block index %d out of range [0, %d) for step %d", iblock, n, step)
	}

	if step == StepResponse {
		return Block{
			Step:         step,
			SourceDepths: Extent{First: 0, Count: g.NSourceDepths()},
			Distances:    Extent{First: 0, Count: g.NDistances()},
		}, nil
	}

	nx := g.NDistances()
	bs := blockSize
	if bs <= 0 || bs > nx {
		bs = nx
	}
	nchunks := g.nDistanceChunks(blockSize)
	iz := iblock / nchunks
	ic := iblock % nchunks

	first := ic * bs
	count := bs
	if first+count > nx {
		count = nx - first
	}

	return Block{
		Step:         step,
		Index:        iblock,
		SourceDepths: Extent{First: iz, Count: 1},
		Distances:    Extent{First: first, Count: count},
	}, nil
}

// TotalCount returns the number of (depth, distance) grid nodes a step
// visits; the partition of that step covers exactly this many samples.
func (g Grid) TotalCount(step int) int {
	return g.NSourceDepths() * g.NDistances()
}
