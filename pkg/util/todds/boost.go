package todds

import (
	"errors"
	"fmt"
	"math"

	"github.com/richard-senior/todds/internal/logger"
)

/**
* Per-query gradient boosted prediction.
* For each head-to-head query we train a small ensemble of depth-one
* regression stumps on the pair's shared match history, using logistic
* loss with second order (gradient and hessian) boosting. The model is
* throwaway, trained in milliseconds on at most a few dozen rows, which
* keeps the pipeline free of any model storage or staleness concerns.
 */

// ErrNoHeadToHead signals that the two queried players share no match
// history and therefore no prediction can be made
var ErrNoHeadToHead = errors.New("players have no head-to-head history")

// Prediction is the outcome of one head-to-head query
type Prediction struct {
	Winner     string  // predicted winner's name
	Confidence float64 // probability of the predicted winner, in (0.5, 1.0]
	Matches    int     // head-to-head matches the model trained on
}

// stump is a single depth-one tree. A feature index of -1 denotes a bias
// stump that applies leftWeight to every sample, which is what boosting
// degenerates to when no split improves the loss.
type stump struct {
	feature     int
	threshold   float64
	leftWeight  float64 // weight when feature value < threshold
	rightWeight float64
}

// boostedClassifier is an additive ensemble of stumps over logistic loss
type boostedClassifier struct {
	stumps []stump
	eta    float64
}

// Predict answers a head-to-head query. Labels are 1 when playerA won
// the historical match, so the returned probability is always playerA's
// before being folded into the winner/confidence pair.
func Predict(d *Dataset, playerA, playerB, surface, level string) (*Prediction, error) {
	history := d.HeadToHead(playerA, playerB)
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: %s vs %s", ErrNoHeadToHead, playerA, playerB)
	}

	encoder := newOneHotEncoder(history)

	features := make([][]float64, len(history))
	labels := make([]float64, len(history))
	for i, m := range history {
		features[i] = encoder.Encode(m.Surface, m.TourneyLevel)
		if m.WinnerName == playerA {
			labels[i] = 1.0
		}
	}

	model := trainBoostedClassifier(features, labels)
	probA := model.PredictProbability(encoder.Encode(surface, level))

	logger.Debug("Head-to-head prediction", playerA, "vs", playerB, probA)

	p := &Prediction{Matches: len(history)}
	if probA >= 0.5 {
		p.Winner = playerA
		p.Confidence = probA
	} else {
		p.Winner = playerB
		p.Confidence = 1.0 - probA
	}
	return p, nil
}

// trainBoostedClassifier fits the ensemble using the configured rounds,
// learning rate and L2 term
func trainBoostedClassifier(features [][]float64, labels []float64) *boostedClassifier {
	model := &boostedClassifier{eta: Config.LearningRate}
	lambda := Config.L2Regularisation

	// Raw additive scores, start at zero (p = 0.5)
	scores := make([]float64, len(labels))

	for round := 0; round < Config.BoostRounds; round++ {
		// Gradients and hessians of logistic loss at the current scores
		grads := make([]float64, len(labels))
		hess := make([]float64, len(labels))
		for i := range labels {
			p := sigmoid(scores[i])
			grads[i] = p - labels[i]
			hess[i] = p * (1.0 - p)
		}

		s := fitStump(features, grads, hess, lambda)
		model.stumps = append(model.stumps, s)

		for i, row := range features {
			scores[i] += model.eta * s.apply(row)
		}
	}

	return model
}

// fitStump finds the single split that maximises loss reduction, falling
// back to a bias stump when nothing beats the no-split score
func fitStump(features [][]float64, grads, hess []float64, lambda float64) stump {
	sumG, sumH := 0.0, 0.0
	for i := range grads {
		sumG += grads[i]
		sumH += hess[i]
	}

	baseScore := gainTerm(sumG, sumH, lambda)
	best := stump{feature: -1, leftWeight: leafWeight(sumG, sumH, lambda)}
	bestGain := 0.0

	if len(features) == 0 {
		return best
	}

	for f := 0; f < len(features[0]); f++ {
		// One-hot columns only ever split at 0.5
		leftG, leftH := 0.0, 0.0
		for i, row := range features {
			if row[f] < 0.5 {
				leftG += grads[i]
				leftH += hess[i]
			}
		}
		rightG := sumG - leftG
		rightH := sumH - leftH

		gain := gainTerm(leftG, leftH, lambda) + gainTerm(rightG, rightH, lambda) - baseScore
		if gain > bestGain {
			bestGain = gain
			best = stump{
				feature:     f,
				threshold:   0.5,
				leftWeight:  leafWeight(leftG, leftH, lambda),
				rightWeight: leafWeight(rightG, rightH, lambda),
			}
		}
	}

	return best
}

func gainTerm(g, h, lambda float64) float64 {
	return (g * g) / (h + lambda)
}

func leafWeight(g, h, lambda float64) float64 {
	return -g / (h + lambda)
}

// apply evaluates one stump on a feature vector
func (s stump) apply(row []float64) float64 {
	if s.feature < 0 {
		return s.leftWeight
	}
	if row[s.feature] < s.threshold {
		return s.leftWeight
	}
	return s.rightWeight
}

// PredictProbability returns the probability of the positive label for
// one feature vector
func (b *boostedClassifier) PredictProbability(row []float64) float64 {
	score := 0.0
	for _, s := range b.stumps {
		score += b.eta * s.apply(row)
	}
	return sigmoid(score)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
