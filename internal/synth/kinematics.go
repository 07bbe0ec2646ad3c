package synth

import "gonum.org/v1/gonum/floats"

// SmoothingWindow 加速度平滑窗口
const SmoothingWindow = 5

// Acceleration 由车速 (km/h) 计算加速度 (m/s²)
// 后向差分，首点为 0，再做窗口为 5 的居中滑动平均；边界只对界内邻点取平均。
func Acceleration(speed []float64) []float64 {
	raw := make([]float64, len(speed))
	for i := 1; i < len(speed); i++ {
		raw[i] = (kmhToMs(speed[i]) - kmhToMs(speed[i-1])) / TimeStep
	}
	return movingAverage(raw, SmoothingWindow)
}

func movingAverage(x []float64, window int) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	prefix := make([]float64, n+1)
	floats.CumSum(prefix[1:], x)

	half := window / 2
	for i := range out {
		lo := max(0, i-half)
		hi := min(n-1, i+half)
		out[i] = (prefix[hi+1] - prefix[lo]) / float64(hi-lo+1)
	}
	return out
}

// Distance 由车速 (km/h) 积分累计里程 (m)
func Distance(speed []float64, timeStep float64) []float64 {
	inc := make([]float64, len(speed))
	for i, v := range speed {
		inc[i] = kmhToMs(v) * timeStep
	}
	return floats.CumSum(make([]float64, len(speed)), inc)
}
