package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowbotio/flowbot/pkg/models"
)

const onboardingDocument = `{
  "id": "onboarding",
  "name": "Onboarding Bot",
  "nodes": [
    {
      "id": "start",
      "kind": "start",
      "position": {"x": 0, "y": 0},
      "config": {
        "text": "Welcome, {{first_name}}!",
        "keyboardType": "inline",
        "buttons": [
          {"text": "Get started", "action": "goto", "target": "ask-name"}
        ]
      }
    },
    {
      "id": "ask-name",
      "kind": "user-input",
      "position": {"x": 0, "y": 200},
      "config": {
        "text": "What should we call you?",
        "input": {
          "responseType": "text",
          "inputType": "text",
          "minLength": "2",
          "maxLength": 50,
          "variableName": "name",
          "successMessage": "Nice to meet you, {{name}}!",
          "nextNodeId": "ask-source"
        }
      }
    },
    {
      "id": "ask-source",
      "kind": "user-input",
      "position": {"x": 0, "y": 400},
      "config": {
        "text": "How did you hear about us?",
        "keyboardType": "inline",
        "input": {
          "responseType": "buttons",
          "variableName": "discovery_source",
          "saveToDatabase": true,
          "options": [
            {"text": "Twitter", "value": "twitter"},
            {"text": "A friend", "value": "friend"},
            {"text": "Other", "value": "other", "action": "goto", "target": "start"}
          ]
        }
      }
    }
  ],
  "connections": [
    {"source": "start", "target": "ask-name"},
    {"source": "ask-name", "target": "ask-source"}
  ]
}`

func TestLoad_ValidDocument(t *testing.T) {
	g, errs := Load([]byte(onboardingDocument))

	require.NotNil(t, g)
	assert.False(t, HasFatal(errs), "unexpected findings: %v", errs)

	assert.Equal(t, "Onboarding Bot", g.Name)
	require.Len(t, g.Nodes, 3)

	start, ok := g.NodeByID("start")
	require.True(t, ok)
	assert.Equal(t, models.NodeKindStart, start.Kind)
	assert.Equal(t, models.KeyboardInline, start.KeyboardType())
	require.Len(t, start.Buttons(), 1)
	assert.Equal(t, models.ActionGoto, start.Buttons()[0].Action)

	askName, ok := g.NodeByID("ask-name")
	require.True(t, ok)
	require.NotNil(t, askName.Input)
	assert.True(t, askName.Input.CollectsText())
	// minLength arrives as a string in the document; weak typing accepts it.
	assert.Equal(t, 2, askName.Input.MinLength)
	assert.Equal(t, 50, askName.Input.MaxLength)
	assert.Equal(t, "ask-source", askName.Input.NextNodeID)

	askSource, ok := g.NodeByID("ask-source")
	require.True(t, ok)
	require.NotNil(t, askSource.Input)
	assert.True(t, askSource.Input.CollectsButtons())
	assert.True(t, askSource.Input.SaveToDatabase)
	require.Len(t, askSource.Input.Options, 3)
	assert.Equal(t, "twitter", askSource.Input.Options[0].StoredValue())
}

func TestLoad_CommandSynonyms_Indexed(t *testing.T) {
	doc := `{
		"name": "Commands",
		"nodes": [
			{"id": "help", "kind": "command", "config": {
				"text": "Here is how it works.",
				"command": "help",
				"synonyms": ["info"]
			}}
		]
	}`

	g, errs := Load([]byte(doc))

	require.NotNil(t, g)
	assert.False(t, HasFatal(errs))
	assert.True(t, g.HasCommand("/help"))
	assert.True(t, g.HasCommand("INFO"))
}

func TestLoad_NotJSON(t *testing.T) {
	g, errs := Load([]byte("not json at all"))

	assert.Nil(t, g)
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrInvalidDocument, errs[0].Kind)
}

func TestLoad_UnknownNodeKind_RejectedBySchema(t *testing.T) {
	doc := `{"name": "Bad", "nodes": [{"id": "x", "kind": "teleport", "config": {}}]}`

	g, errs := Load([]byte(doc))

	assert.Nil(t, g)
	require.NotEmpty(t, errs)

	for _, err := range errs {
		assert.Equal(t, ErrInvalidDocument, err.Kind)
	}
}

func TestLoad_UnnamedDocument_Accepted(t *testing.T) {
	doc := `{"nodes": [{"id": "start", "kind": "start", "config": {"text": "Hello!"}}], "connections": []}`

	g, errs := Load([]byte(doc))

	require.NotNil(t, g)
	assert.False(t, HasFatal(errs), "unexpected findings: %v", errs)
	assert.Empty(t, g.Name)

	start, ok := g.StartNode()
	require.True(t, ok)
	assert.Equal(t, "start", start.ID)
}

func TestLoad_DanglingButtonTarget_SurfacesFinding(t *testing.T) {
	doc := `{
		"name": "Dangling",
		"nodes": [
			{"id": "start", "kind": "start", "config": {
				"text": "hi",
				"keyboardType": "inline",
				"buttons": [{"text": "Go", "action": "goto", "target": "nowhere"}]
			}}
		]
	}`

	g, errs := Load([]byte(doc))

	require.NotNil(t, g)
	assert.Contains(t, findingKinds(errs), ErrDanglingTarget)
	assert.True(t, HasFatal(errs))
}
