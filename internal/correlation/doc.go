// Package correlation groups related security alerts into incidents. The
// engine is deliberately greedy and input-order-dependent: each unassigned
// alert in a batch pulls in every related alert it can see, and the first
// related alert already belonging to an incident decides the merge target.
// Two alerts that both relate to a third but not to each other may therefore
// land in the same incident or in different ones depending on processing
// order. This matches the production clustering law; a globally consistent
// connected-components variant would change observable behavior.
package correlation
