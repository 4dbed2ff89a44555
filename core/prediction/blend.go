package prediction

// BlendEstimator mixes two oracles with a fixed weight. The default
// construction gives 70% weight to business rules, used when an external
// model's history is too thin to trust on its own.
type BlendEstimator struct {
	Primary   Estimator
	Secondary Estimator
	// PrimaryWeight is applied to the primary estimate, in [0,1].
	PrimaryWeight float64
}

// NewBlendEstimator returns a 70/30 rules-over-model blend.
func NewBlendEstimator(rules, modelEst Estimator) *BlendEstimator {
	return &BlendEstimator{Primary: rules, Secondary: modelEst, PrimaryWeight: 0.7}
}

// Estimate implements Estimator by weighting both underlying estimates.
func (b *BlendEstimator) Estimate(f Features) Prediction {
	w := b.PrimaryWeight
	if w < 0 {
		w = 0
	}
	if w > 1 {
		w = 1
	}
	p := b.Primary.Estimate(f)
	s := b.Secondary.Estimate(f)
	return Prediction{
		SuccessProbability: clamp01(w*p.SuccessProbability + (1-w)*s.SuccessProbability),
		EstimatedDuration:  w*p.EstimatedDuration + (1-w)*s.EstimatedDuration,
	}
}
