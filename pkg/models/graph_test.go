package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(nodes ...*Node) *Graph {
	g := &Graph{ID: "g1", Name: "test", Nodes: nodes}
	g.Index()

	return g
}

func TestGraph_CommandTable_RegistersCommandAndSynonyms(t *testing.T) {
	g := buildGraph(
		&Node{ID: "n1", Kind: NodeKindCommand, Message: &MessageConfig{
			Command:  "help",
			Synonyms: []string{"info", "About"},
		}},
	)

	for _, command := range []string{"help", "/help", "HELP", "info", "about", "/About"} {
		node, ok := g.CommandNode(command)
		require.True(t, ok, "expected command %q to resolve", command)
		assert.Equal(t, "n1", node.ID)
	}

	_, ok := g.CommandNode("unknown")
	assert.False(t, ok)
}

func TestGraph_CommandTable_StartNodeBindsStartCommand(t *testing.T) {
	g := buildGraph(
		&Node{ID: "entry", Kind: NodeKindStart, Message: &MessageConfig{Text: "hi"}},
	)

	node, ok := g.CommandNode("/start")
	require.True(t, ok)
	assert.Equal(t, "entry", node.ID)

	start, ok := g.StartNode()
	require.True(t, ok)
	assert.Equal(t, "entry", start.ID)
}

func TestGraph_Commands_ReturnsCopy(t *testing.T) {
	g := buildGraph(
		&Node{ID: "n1", Kind: NodeKindCommand, Message: &MessageConfig{Command: "help"}},
	)

	table := g.Commands()
	table["injected"] = "n1"

	assert.False(t, g.HasCommand("injected"))
}

func TestGraph_InboundDegree_CountsAllReferenceKinds(t *testing.T) {
	g := buildGraph(
		&Node{ID: "a", Kind: NodeKindMessage, Message: &MessageConfig{
			Text: "pick",
			Buttons: []Button{
				{Text: "Go", Action: ActionGoto, Target: "b"},
			},
		}},
		&Node{ID: "ask", Kind: NodeKindUserInput, Input: &InputSpec{
			ResponseType: ResponseTypeButtons,
			NextNodeID:   "b",
			Options: []ResponseOption{
				{Text: "One", Action: ActionGoto, Target: "c"},
			},
		}},
		&Node{ID: "b", Kind: NodeKindMessage, Message: &MessageConfig{Text: "b"}},
		&Node{ID: "c", Kind: NodeKindMessage, Message: &MessageConfig{Text: "c"}},
	)
	g.Connections = []*Connection{{Source: "a", Target: "ask"}}

	inbound := g.InboundDegree()

	assert.Equal(t, 2, inbound["b"])
	assert.Equal(t, 1, inbound["c"])
	assert.Equal(t, 1, inbound["ask"])
	assert.Equal(t, 0, inbound["a"])
}

func TestNode_Accessors_DefaultWhenUnset(t *testing.T) {
	node := &Node{ID: "n", Kind: NodeKindMessage}

	assert.Equal(t, "", node.Text())
	assert.Equal(t, KeyboardNone, node.KeyboardType())
	assert.Equal(t, FormatNone, node.FormatMode())
	assert.Empty(t, node.Buttons())
}

func TestNode_Text_FallsBackToMediaCaption(t *testing.T) {
	node := &Node{ID: "n", Kind: NodeKindPhoto, Media: &MediaConfig{
		SourceRef: "https://example.com/p.png",
		Caption:   "A photo",
	}}

	assert.Equal(t, "A photo", node.Text())
	assert.True(t, node.Kind.IsMedia())
}

func TestInputSpec_EffectiveSkipToken(t *testing.T) {
	spec := &InputSpec{ResponseType: ResponseTypeText, AllowSkip: true}
	assert.Equal(t, DefaultSkipToken, spec.EffectiveSkipToken())

	spec.SkipToken = "skip it"
	assert.Equal(t, "skip it", spec.EffectiveSkipToken())
}

func TestButtonAction_RequestsAttachment(t *testing.T) {
	assert.True(t, ActionContact.RequestsAttachment())
	assert.True(t, ActionLocation.RequestsAttachment())
	assert.False(t, ActionGoto.RequestsAttachment())
}

func TestResponseOption_StoredValue_FallsBackToText(t *testing.T) {
	assert.Equal(t, "tw", ResponseOption{Text: "Twitter", Value: "tw"}.StoredValue())
	assert.Equal(t, "Twitter", ResponseOption{Text: "Twitter"}.StoredValue())
}
