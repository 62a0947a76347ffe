// Package tagger provides the tagging-model collaborator.
//
// The pipeline depends only on the Predictor interface; the shipped
// implementation (Autotagger) runs a pre-trained ONNX model through
// ONNX Runtime. Model architecture, training, and weight formats are
// out of scope here: the model file is treated as an opaque artifact
// that maps image batches to per-label confidence scores.
package tagger
