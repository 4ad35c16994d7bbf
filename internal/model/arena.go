package model

import (
	"sync"
)

// Index is a stable handle into an Arena. It survives map rehashing and
// avoids raw pointers in the cyclic SU<->SUSI<->SI graph.
type Index uint64

// Arena owns every Node/SG/SU/SI/CSI/Component/SUSI by stable Index. Callers
// navigate relationships by looking up indices through the Arena rather than
// holding pointers across any lock release: release the lock, re-fetch by
// id, the way the director and node director event loops do.
type Arena struct {
	mu sync.RWMutex

	nodes      map[Index]*Node
	sgs        map[Index]*ServiceGroup
	sus        map[Index]*ServiceUnit
	sis        map[Index]*ServiceInstance
	components map[Index]*Component
	susis      map[Index]*SUSI
	csis       map[Index]*CSI

	next Index
}

// NewArena creates an empty Arena.
func NewArena() *Arena {
	return &Arena{
		nodes:      make(map[Index]*Node),
		sgs:        make(map[Index]*ServiceGroup),
		sus:        make(map[Index]*ServiceUnit),
		sis:        make(map[Index]*ServiceInstance),
		components: make(map[Index]*Component),
		susis:      make(map[Index]*SUSI),
		csis:       make(map[Index]*CSI),
	}
}

func (a *Arena) allocIndex() Index {
	a.next++
	return a.next
}

// AddNode inserts n and assigns its Index.
func (a *Arena) AddNode(n *Node) Index {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.allocIndex()
	n.Idx = idx
	a.nodes[idx] = n
	return idx
}

// Node looks up a Node by Index.
func (a *Arena) Node(idx Index) (*Node, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n, ok := a.nodes[idx]
	return n, ok
}

// Nodes returns a snapshot slice of all nodes.
func (a *Arena) Nodes() []*Node {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*Node, 0, len(a.nodes))
	for _, n := range a.nodes {
		out = append(out, n)
	}
	return out
}

// AddSG inserts sg and assigns its Index.
func (a *Arena) AddSG(sg *ServiceGroup) Index {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.allocIndex()
	sg.Idx = idx
	a.sgs[idx] = sg
	return idx
}

// SG looks up a ServiceGroup by Index.
func (a *Arena) SG(idx Index) (*ServiceGroup, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	sg, ok := a.sgs[idx]
	return sg, ok
}

// SGs returns a snapshot slice of all service groups.
func (a *Arena) SGs() []*ServiceGroup {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*ServiceGroup, 0, len(a.sgs))
	for _, sg := range a.sgs {
		out = append(out, sg)
	}
	return out
}

// AddSU inserts su and assigns its Index.
func (a *Arena) AddSU(su *ServiceUnit) Index {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.allocIndex()
	su.Idx = idx
	a.sus[idx] = su
	return idx
}

// SU looks up a ServiceUnit by Index.
func (a *Arena) SU(idx Index) (*ServiceUnit, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	su, ok := a.sus[idx]
	return su, ok
}

// SUs returns a snapshot slice of all service units.
func (a *Arena) SUs() []*ServiceUnit {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*ServiceUnit, 0, len(a.sus))
	for _, su := range a.sus {
		out = append(out, su)
	}
	return out
}

// AddSI inserts si and assigns its Index.
func (a *Arena) AddSI(si *ServiceInstance) Index {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.allocIndex()
	si.Idx = idx
	a.sis[idx] = si
	return idx
}

// SI looks up a ServiceInstance by Index.
func (a *Arena) SI(idx Index) (*ServiceInstance, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	si, ok := a.sis[idx]
	return si, ok
}

// SIs returns a snapshot slice of all service instances.
func (a *Arena) SIs() []*ServiceInstance {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*ServiceInstance, 0, len(a.sis))
	for _, si := range a.sis {
		out = append(out, si)
	}
	return out
}

// AddComponent inserts c and assigns its Index.
func (a *Arena) AddComponent(c *Component) Index {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.allocIndex()
	c.Idx = idx
	a.components[idx] = c
	return idx
}

// Component looks up a Component by Index.
func (a *Arena) Component(idx Index) (*Component, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.components[idx]
	return c, ok
}

// Components returns a snapshot slice of all components.
func (a *Arena) Components() []*Component {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*Component, 0, len(a.components))
	for _, c := range a.components {
		out = append(out, c)
	}
	return out
}

// AddCSI inserts csi and assigns its Index.
func (a *Arena) AddCSI(csi *CSI) Index {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.allocIndex()
	csi.Idx = idx
	a.csis[idx] = csi
	return idx
}

// CSI looks up a CSI by Index.
func (a *Arena) CSI(idx Index) (*CSI, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.csis[idx]
	return c, ok
}

// CSIs returns a snapshot slice of all CSIs.
func (a *Arena) CSIs() []*CSI {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*CSI, 0, len(a.csis))
	for _, c := range a.csis {
		out = append(out, c)
	}
	return out
}

// AddSUSI inserts s and assigns its Index.
func (a *Arena) AddSUSI(s *SUSI) Index {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.allocIndex()
	s.Idx = idx
	a.susis[idx] = s
	return idx
}

// SUSI looks up a SUSI assignment record by Index.
func (a *Arena) SUSI(idx Index) (*SUSI, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.susis[idx]
	return s, ok
}

// RemoveSUSI frees a SUSI record. It is the only object freed at a
// successful DEL-ack.
func (a *Arena) RemoveSUSI(idx Index) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.susis, idx)
}

// SUSIs returns a snapshot slice of all SUSI assignment records.
func (a *Arena) SUSIs() []*SUSI {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*SUSI, 0, len(a.susis))
	for _, s := range a.susis {
		out = append(out, s)
	}
	return out
}
