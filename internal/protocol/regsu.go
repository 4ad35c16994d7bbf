package protocol

import "amfcore/internal/model"

// ApplyRegSU integrates a REG_SU push on the node-director side: the named
// SUs are ensured present (callers have already populated full config via
// the arena before calling this in practice; here we just decide what to
// prune). When msg.IsFailover is true, any SU currently hosted on the node
// but not named in msg.SUNames is removed from node.ApplicationSUs and
// returned as pruned; the SU and its components stay in the arena.
func ApplyRegSU(arena *model.Arena, node *model.Node, msg RegSU) (pruned []string) {
	if !msg.IsFailover {
		return nil
	}

	wanted := make(map[string]bool, len(msg.SUNames))
	for _, n := range msg.SUNames {
		wanted[n] = true
	}

	keep := node.ApplicationSUs[:0]
	for _, idx := range node.ApplicationSUs {
		su, ok := arena.SU(idx)
		if !ok {
			continue
		}
		if wanted[su.Name] {
			keep = append(keep, idx)
			continue
		}
		pruned = append(pruned, su.Name)
	}
	node.ApplicationSUs = keep
	return pruned
}
