// Package gen 提供压测用合成数据：正态簇 + 均匀分布离群点
package gen

import "math/rand"

// Dataset 合成数据集，Outliers 为离群点在 Rows 中的下标（升序）
type Dataset struct {
	Rows     [][]float64
	Outliers []int
}

// ClusterWithOutliers 生成 n 个 dim 维点：N(1, 1) 正态簇，其中 outlierFrac 比例替换为 [20, 30) 均匀分布的离群点，随机打散
func ClusterWithOutliers(n, dim int, outlierFrac float64, seed int64) Dataset {
	rng := rand.New(rand.NewSource(seed))
	nOut := int(outlierFrac * float64(n))
	rows := make([][]float64, n)
	isOut := make([]bool, n)
	for i := range rows {
		p := make([]float64, dim)
		if i < nOut {
			for j := range p {
				p[j] = 20 + 10*rng.Float64()
			}
			isOut[i] = true
		} else {
			for j := range p {
				p[j] = 1 + rng.NormFloat64()
			}
		}
		rows[i] = p
	}
	rng.Shuffle(n, func(i, j int) {
		rows[i], rows[j] = rows[j], rows[i]
		isOut[i], isOut[j] = isOut[j], isOut[i]
	})
	var outliers []int
	for i, o := range isOut {
		if o {
			outliers = append(outliers, i)
		}
	}
	return Dataset{Rows: rows, Outliers: outliers}
}

// Cluster 生成 n 个 N(1, 1) 查询点
func Cluster(n, dim int, seed int64) [][]float64 {
	return ClusterWithOutliers(n, dim, 0, seed).Rows
}
