package admincli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"amfcore/internal/model"
)

func TestSURows_JoinsSGAndNodeNames(t *testing.T) {
	arena := model.NewArena()
	node := &model.Node{NodeID: "node1"}
	arena.AddNode(node)
	sg := &model.ServiceGroup{Name: "sg1"}
	arena.AddSG(sg)
	su := &model.ServiceUnit{Name: "su1", SG: sg.Idx, Node: node.Idx, AdminState: model.AdminUnlocked}
	arena.AddSU(su)

	rows := SURows(arena)
	assert.Len(t, rows, 1)
	assert.Equal(t, "su1", rows[0].Name)
	assert.Equal(t, "sg1", rows[0].SG)
	assert.Equal(t, "node1", rows[0].Node)
}

func TestWriteSUReport_RendersHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	WriteSUReport(&buf, []SUReportRow{{Name: "su1", SG: "sg1", Node: "node1", AdminState: "UNLOCKED"}})

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "su1")
	assert.Contains(t, out, "UNLOCKED")
}

func TestWriteSUSIReport_RendersHAState(t *testing.T) {
	var buf bytes.Buffer
	WriteSUSIReport(&buf, []SUSIReportRow{{SU: "su1", SI: "si1", HAState: "ACTIVE"}})

	assert.Contains(t, buf.String(), "ACTIVE")
}

func TestFormatInvocation_IncludesOpAndTarget(t *testing.T) {
	msg := formatInvocation(model.AdminOpLock, "su1")
	assert.Equal(t, "LOCK accepted for su1", msg)
}

func TestWriteSUReport_TruncatesLongNames(t *testing.T) {
	longName := "SU-with-an-implausibly-long-configured-name-that-overruns-the-column"
	var buf bytes.Buffer
	WriteSUReport(&buf, []SUReportRow{{Name: longName, SG: "sg1", Node: "node1", AdminState: "UNLOCKED"}})

	out := buf.String()
	assert.NotContains(t, out, longName)
	assert.Contains(t, out, truncateName(longName))
}
