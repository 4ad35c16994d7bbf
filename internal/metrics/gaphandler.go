package metrics

// GapHandler adapts Registry onto protocol.FatalGapHandler without this
// package importing protocol (metrics stays a leaf dependency; cmd/amfd
// wires the two together).
type GapHandler struct {
	Registry *Registry
}

// FatalMsgIDGap records the gap against the per-node counter.
func (g GapHandler) FatalMsgIDGap(nodeID string, expected, got uint64) {
	g.Registry.ObserveMsgIDGap(nodeID)
}
