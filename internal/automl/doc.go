// Package automl searches a whitelist of binomial model families for the best
// classifier of a feature matrix and explains its predictions.
//
// Every family supported here (gradient boosted trees, random forests and
// regularized logistic regression) produces exact per-feature Shapley
// contributions whose sum plus a bias term equals the model's raw score.
package automl
