// Package triage computes explainable priority scores for incidents. A score
// is the sum of three independently computed components: an uncapped severity
// component, an entity-frequency component capped at a configured maximum,
// and a risk-indicator component capped likewise. Every component records the
// human-readable reasons that produced it, so an analyst can always see why
// an incident landed where it did in the queue.
package triage
