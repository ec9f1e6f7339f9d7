package index

// entry 是某一行中的一个非零元素。
type entry struct {
	col int32
	val float32
}

// cscMatrix 是按列压缩存储的稀疏矩阵：每个词项一列，列内为 (行号, 权重) 的倒排表。
// 行号在列内递增。构建后只读。
type cscMatrix struct {
	rows   int
	colPtr []int32
	rowIdx []int32
	vals   []float32
}

// newCSC 由逐行的非零元素构建矩阵。cols 为词表大小。
func newCSC(rowEntries [][]entry, cols int) *cscMatrix {
	m := &cscMatrix{
		rows:   len(rowEntries),
		colPtr: make([]int32, cols+1),
	}

	// 1. 统计每列非零元素数
	nnz := 0
	for _, row := range rowEntries {
		for _, e := range row {
			m.colPtr[e.col+1]++
		}
		nnz += len(row)
	}
	for c := 0; c < cols; c++ {
		m.colPtr[c+1] += m.colPtr[c]
	}

	// 2. 按行顺序填充，保证列内行号递增
	m.rowIdx = make([]int32, nnz)
	m.vals = make([]float32, nnz)
	next := make([]int32, cols)
	copy(next, m.colPtr[:cols])
	for r, row := range rowEntries {
		for _, e := range row {
			p := next[e.col]
			m.rowIdx[p] = int32(r)
			m.vals[p] = e.val
			next[e.col]++
		}
	}
	return m
}

// nnz 返回非零元素个数。
func (m *cscMatrix) nnz() int { return len(m.vals) }

// mulVec 计算矩阵与稀疏查询向量的乘积，结果累加到 out（长度为行数）。
func (m *cscMatrix) mulVec(q Vector, out []float64) {
	for i, col := range q.Terms {
		w := float64(q.Weights[i])
		for p := m.colPtr[col]; p < m.colPtr[col+1]; p++ {
			out[m.rowIdx[p]] += w * float64(m.vals[p])
		}
	}
}
