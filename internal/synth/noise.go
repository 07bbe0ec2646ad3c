package synth

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// NewSource 根据种子创建随机源
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// RandomSeed 返回一个非确定性的种子
func RandomSeed() uint64 {
	return rand.Uint64()
}

// addNoise 向序列叠加 N(0, sigma) 高斯扰动
func addNoise(values []float64, sigma float64, src rand.Source) {
	normal := distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
	for i := range values {
		values[i] += normal.Rand()
	}
}

func kmhToMs(v float64) float64 {
	return v * 1000 / 3600
}
