// Package snapshot provides a YAML export/import of the model arena's
// topology, used only by the amfadm debug fixture commands (export,
// load-fixture) and by tests that need a starting topology — not a
// configuration subsystem (§A.3 keeps process bootstrap/config-file
// parsing explicitly out of scope).
package snapshot

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"amfcore/internal/model"
)

// Snapshot is the on-disk shape: every entity referenced by name rather
// than by model.Index, since indices are only stable within one arena's
// lifetime and are reassigned on Load.
type Snapshot struct {
	Nodes      []NodeDoc      `yaml:"nodes"`
	SGs        []SGDoc        `yaml:"service_groups"`
	SUs        []SUDoc        `yaml:"service_units"`
	SIs        []SIDoc        `yaml:"service_instances"`
	Components []ComponentDoc `yaml:"components"`
	CSIs       []CSIDoc       `yaml:"csis"`
}

type NodeDoc struct {
	NodeID              string `yaml:"node_id"`
	Name                string `yaml:"name"`
	AdminState          string `yaml:"admin_state"`
	SaAmfNodeAutoRepair bool   `yaml:"auto_repair"`
}

type SGDoc struct {
	Name            string `yaml:"name"`
	RedundancyModel string `yaml:"redundancy_model"`
	AdminState      string `yaml:"admin_state"`
	ActiveMaxSU     int    `yaml:"active_max_su"`
}

type SUDoc struct {
	Name             string `yaml:"name"`
	SG               string `yaml:"sg"`
	Node             string `yaml:"node"`
	AdminState       string `yaml:"admin_state"`
	PreInstantiable  bool   `yaml:"pre_instantiable"`
	SUFailoverEnable bool   `yaml:"su_failover"`
}

type SIDoc struct {
	Name                string `yaml:"name"`
	SG                  string `yaml:"sg"`
	Rank                int    `yaml:"rank"`
	MaxNumCSI           int    `yaml:"max_num_csi"`
	PreferredActiveSUs  int    `yaml:"preferred_active_sus"`
	PreferredStandbySUs int    `yaml:"preferred_standby_sus"`
}

type ComponentDoc struct {
	Name            string `yaml:"name"`
	SU              string `yaml:"su"`
	Type            string `yaml:"type"`
	PreInstantiable bool   `yaml:"pre_instantiable"`
	Capability      string `yaml:"capability"`
}

type CSIDoc struct {
	Name       string            `yaml:"name"`
	SI         string            `yaml:"si"`
	CSType     string            `yaml:"cs_type"`
	Attributes map[string]string `yaml:"attributes"`
}

// Export walks arena and marshals its topology to YAML.
func Export(arena *model.Arena) ([]byte, error) {
	snap := Snapshot{}

	nodeName := make(map[model.Index]string)
	for _, n := range arena.Nodes() {
		nodeName[n.Idx] = n.NodeID
		snap.Nodes = append(snap.Nodes, NodeDoc{
			NodeID:              n.NodeID,
			Name:                n.Name,
			AdminState:          n.AdminState.String(),
			SaAmfNodeAutoRepair: n.SaAmfNodeAutoRepair,
		})
	}

	sgName := make(map[model.Index]string)
	for _, sg := range arena.SGs() {
		sgName[sg.Idx] = sg.Name
		snap.SGs = append(snap.SGs, SGDoc{
			Name:            sg.Name,
			RedundancyModel: sg.RedundancyModel.String(),
			AdminState:      sg.AdminState.String(),
			ActiveMaxSU:     sg.ActiveMaxSU,
		})
	}

	suName := make(map[model.Index]string)
	for _, su := range arena.SUs() {
		suName[su.Idx] = su.Name
		snap.SUs = append(snap.SUs, SUDoc{
			Name:             su.Name,
			SG:               sgName[su.SG],
			Node:             nodeName[su.Node],
			AdminState:       su.AdminState.String(),
			PreInstantiable:  su.SaAmfSUPreInstantiable,
			SUFailoverEnable: su.SUFailover == model.SUFailoverEnabled,
		})
	}

	siName := make(map[model.Index]string)
	for _, si := range arena.SIs() {
		siName[si.Idx] = si.Name
		snap.SIs = append(snap.SIs, SIDoc{
			Name:                si.Name,
			SG:                  sgName[si.SG],
			Rank:                si.Rank,
			MaxNumCSI:           si.MaxNumCSI,
			PreferredActiveSUs:  si.PreferredActiveSUs,
			PreferredStandbySUs: si.PreferredStandbySUs,
		})
	}

	for _, c := range arena.Components() {
		snap.Components = append(snap.Components, ComponentDoc{
			Name:            c.Name,
			SU:              suName[c.SU],
			Type:            c.Type,
			PreInstantiable: c.PreInstantiable,
			Capability:      c.Capability,
		})
	}

	for _, csi := range arena.CSIs() {
		attrs := make(map[string]string, len(csi.Attributes))
		for _, a := range csi.Attributes {
			attrs[a.Name] = a.Value
		}
		snap.CSIs = append(snap.CSIs, CSIDoc{
			Name:       csi.Name,
			SI:         siName[csi.SI],
			CSType:     csi.CSType,
			Attributes: attrs,
		})
	}

	return yaml.Marshal(snap)
}

// Load parses data and populates a fresh arena from it, resolving the
// name-based cross references recorded at Export time. Admin-state /
// redundancy-model strings are parsed with the package's own small
// lookup tables rather than round-tripping through the model package's
// String() methods, since those are one-directional by design.
func Load(data []byte) (*model.Arena, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}

	arena := model.NewArena()

	nodeIdx := make(map[string]model.Index, len(snap.Nodes))
	for _, nd := range snap.Nodes {
		n := &model.Node{
			NodeID:              nd.NodeID,
			Name:                nd.Name,
			AdminState:          parseAdminState(nd.AdminState),
			SaAmfNodeAutoRepair: nd.SaAmfNodeAutoRepair,
		}
		nodeIdx[nd.NodeID] = arena.AddNode(n)
	}

	sgIdx := make(map[string]model.Index, len(snap.SGs))
	for _, sgd := range snap.SGs {
		sg := &model.ServiceGroup{
			Name:            sgd.Name,
			RedundancyModel: parseRedundancyModel(sgd.RedundancyModel),
			AdminState:      parseAdminState(sgd.AdminState),
			FSMState:        model.SGStable,
			ActiveMaxSU:     sgd.ActiveMaxSU,
		}
		sgIdx[sgd.Name] = arena.AddSG(sg)
	}

	suIdx := make(map[string]model.Index, len(snap.SUs))
	for _, sud := range snap.SUs {
		failover := model.SUFailoverDisabled
		if sud.SUFailoverEnable {
			failover = model.SUFailoverEnabled
		}
		su := &model.ServiceUnit{
			Name:                   sud.Name,
			SG:                     sgIdx[sud.SG],
			Node:                   nodeIdx[sud.Node],
			AdminState:             parseAdminState(sud.AdminState),
			SaAmfSUPreInstantiable: sud.PreInstantiable,
			SUFailover:             failover,
		}
		idx := arena.AddSU(su)
		suIdx[sud.Name] = idx
		if sg, ok := arena.SG(su.SG); ok {
			sg.SUs = append(sg.SUs, idx)
		}
		if node, ok := arena.Node(su.Node); ok {
			node.ApplicationSUs = append(node.ApplicationSUs, idx)
		}
	}

	siIdx := make(map[string]model.Index, len(snap.SIs))
	for _, sid := range snap.SIs {
		si := &model.ServiceInstance{
			Name:                sid.Name,
			SG:                  sgIdx[sid.SG],
			Rank:                sid.Rank,
			MaxNumCSI:           sid.MaxNumCSI,
			PreferredActiveSUs:  sid.PreferredActiveSUs,
			PreferredStandbySUs: sid.PreferredStandbySUs,
			AdminState:          model.AdminUnlocked,
		}
		idx := arena.AddSI(si)
		siIdx[sid.Name] = idx
		if sg, ok := arena.SG(si.SG); ok {
			sg.SIs = append(sg.SIs, idx)
		}
	}

	for _, cd := range snap.Components {
		c := &model.Component{
			Name:            cd.Name,
			SU:              suIdx[cd.SU],
			Type:            cd.Type,
			PreInstantiable: cd.PreInstantiable,
			Capability:      cd.Capability,
			Timeouts:        make(map[model.CLCCommand]int),
		}
		idx := arena.AddComponent(c)
		if su, ok := arena.SU(c.SU); ok {
			su.Components = append(su.Components, idx)
		}
	}

	for _, csid := range snap.CSIs {
		attrs := make([]model.Attribute, 0, len(csid.Attributes))
		for name, value := range csid.Attributes {
			attrs = append(attrs, model.Attribute{Name: name, Value: value})
		}
		csi := &model.CSI{
			Name:       csid.Name,
			SI:         siIdx[csid.SI],
			CSType:     csid.CSType,
			Attributes: attrs,
		}
		idx := arena.AddCSI(csi)
		if si, ok := arena.SI(csi.SI); ok {
			si.CSIs = append(si.CSIs, idx)
			si.NumCSI++
		}
	}

	return arena, nil
}

func parseAdminState(s string) model.AdminState {
	switch s {
	case "LOCKED":
		return model.AdminLocked
	case "LOCKED_INSTANTIATION":
		return model.AdminLockedInstantiation
	case "SHUTTING_DOWN":
		return model.AdminShuttingDown
	default:
		return model.AdminUnlocked
	}
}

func parseRedundancyModel(s string) model.RedundancyModel {
	switch s {
	case "N_PLUS_M":
		return model.RedNPlusM
	case "N_WAY":
		return model.RedNWay
	case "N_WAY_ACTIVE":
		return model.RedNWayActive
	case "NO_REDUNDANCY":
		return model.RedNoRedundancy
	default:
		return model.Red2N
	}
}
