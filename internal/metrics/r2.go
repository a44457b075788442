package metrics

// linregR2 fits y = a + b*x by ordinary least squares and returns the
// coefficient of determination R^2. Resolves Open Question 4: x is the
// zero-based sample index, not a raw millisecond timestamp, since mixing
// units in the fit was flagged as unintentional in the source.
func linregR2(y []float64) float64 {
	n := len(y)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	b := (fn*sumXY - sumX*sumY) / denom
	a := (sumY - b*sumX) / fn

	meanY := sumY / fn
	var ssTot, ssRes float64
	for i, v := range y {
		x := float64(i)
		pred := a + b*x
		ssRes += (v - pred) * (v - pred)
		ssTot += (v - meanY) * (v - meanY)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
