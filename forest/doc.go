// Package forest provides an isolation forest: an ensemble of randomized partition
// trees that scores points by how quickly random axis-aligned splits isolate them.
//
// Quick start:
//
//	cfg := forest.DefaultConfig()
//	cfg.FeatureCount = 2
//	f, err := forest.New(cfg)
//	m, err := forest.MatrixFromRows(rows)
//	err = f.Train(m)
//	score, err := f.Score([]float64{0, 0})
//	defer f.Close()
//
// Scores close to 1 are anomalies, around 0.5 are typical, well below 0.5 are inliers.
package forest
