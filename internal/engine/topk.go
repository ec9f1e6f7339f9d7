package engine

import (
	"container/heap"
	"sort"
)

type candidate struct {
	row   int
	score float64
}

// better 定义候选顺序：分数高者优先，分数相同时行号小者优先。
func better(a, b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.row < b.row
}

// candidateHeap 是以“最差候选”为堆顶的小顶堆。
type candidateHeap []candidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return better(h[j], h[i]) }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topCandidates 返回分数最高的 k 行，按 better 排序。k 不小于行数时对全部行排序。
func topCandidates(scores []float64, k int) []candidate {
	if k <= 0 {
		return nil
	}
	if k >= len(scores) {
		all := make([]candidate, len(scores))
		for i, s := range scores {
			all[i] = candidate{row: i, score: s}
		}
		sort.Slice(all, func(i, j int) bool { return better(all[i], all[j]) })
		return all
	}

	h := make(candidateHeap, 0, k)
	for i, s := range scores {
		c := candidate{row: i, score: s}
		if h.Len() < k {
			heap.Push(&h, c)
		} else if better(c, h[0]) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	out := make([]candidate, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(candidate)
	}
	return out
}
