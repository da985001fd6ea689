package flow

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowbotio/flowbot/pkg/models"
	"github.com/flowbotio/flowbot/pkg/platform"
	"github.com/flowbotio/flowbot/pkg/session"
	"github.com/flowbotio/flowbot/pkg/testutil"
)

const (
	testUser = "u1"
	testChat = int64(99)
)

func newTestEngine(t *testing.T, graph *models.Graph) (*Engine, *platform.Recorder, session.Store) {
	t.Helper()

	recorder := platform.NewRecorder()
	sessions := session.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine := NewEngine(graph, sessions, recorder, nil, logger)

	return engine, recorder, sessions
}

func ops(recorder *platform.Recorder) []string {
	sent := recorder.Sent()
	out := make([]string, 0, len(sent))

	for _, msg := range sent {
		out = append(out, msg.Op)
	}

	return out
}

func TestEngine_Command_RendersStartNode(t *testing.T) {
	engine, recorder, _ := newTestEngine(t, testutil.CreateTestGraph())

	err := engine.HandleEvent(context.Background(), testutil.CommandInbound(testUser, testChat, "/start"))
	require.NoError(t, err)

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, "text", last.Op)
	assert.Equal(t, "Welcome!", last.Text)
	assert.Equal(t, testChat, last.ChatID)
}

func TestEngine_UnknownCommand_Ignored(t *testing.T) {
	engine, recorder, _ := newTestEngine(t, testutil.CreateTestGraph())

	err := engine.HandleEvent(context.Background(), testutil.CommandInbound(testUser, testChat, "/frobnicate"))
	require.NoError(t, err)
	assert.Empty(t, recorder.Sent())
}

func TestEngine_Command_BotSuffixAndArgumentsStripped(t *testing.T) {
	engine, recorder, _ := newTestEngine(t, testutil.CreateTestGraph())

	err := engine.HandleEvent(context.Background(), testutil.CommandInbound(testUser, testChat, "/start@my_bot deep-link-arg"))
	require.NoError(t, err)

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, "Welcome!", last.Text)
}

func TestEngine_TextInput_RetryThenAccept(t *testing.T) {
	graph := testutil.CreateTestGraph(
		testutil.CreateTestNode(
			testutil.WithID("ask-name"),
			testutil.WithCommand("name"),
			testutil.WithText("What should we call you?"),
			testutil.WithInput(&models.InputSpec{
				ResponseType:   models.ResponseTypeText,
				MinLength:      2,
				VariableName:   "name",
				RetryMessage:   "Name is too short, try again.",
				SuccessMessage: "Nice to meet you, {{name}}!",
				NextNodeID:     "done",
			}),
		),
		testutil.CreateTestNode(testutil.WithID("done"), testutil.WithText("All set, {{name}}.")),
	)
	engine, recorder, sessions := newTestEngine(t, graph)
	ctx := context.Background()

	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/name")))

	sess, err := sessions.Get(ctx, testUser)
	require.NoError(t, err)
	require.NotNil(t, sess.Pending, "command render must arm the input")

	// Too short: retry message, still armed.
	require.NoError(t, engine.HandleEvent(ctx, testutil.TextInbound(testUser, testChat, "A")))

	last, _ := recorder.Last()
	assert.Equal(t, "Name is too short, try again.", last.Text)

	sess, err = sessions.Get(ctx, testUser)
	require.NoError(t, err)
	assert.NotNil(t, sess.Pending)

	// Accepted: success message interpolated, next node rendered, disarmed.
	recorder.Reset()
	require.NoError(t, engine.HandleEvent(ctx, testutil.TextInbound(testUser, testChat, "Ana")))

	sent := recorder.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Nice to meet you, Ana!", sent[0].Text)
	assert.Equal(t, "All set, Ana.", sent[1].Text)

	sess, err = sessions.Get(ctx, testUser)
	require.NoError(t, err)
	assert.Nil(t, sess.Pending)
	assert.Equal(t, "Ana", sess.Vars["name"])
}

func TestEngine_TextInput_SkipToken(t *testing.T) {
	graph := testutil.CreateTestGraph(
		testutil.CreateTestNode(
			testutil.WithID("ask-email"),
			testutil.WithCommand("email"),
			testutil.WithText("Your email?"),
			testutil.WithInput(&models.InputSpec{
				ResponseType: models.ResponseTypeText,
				InputType:    models.InputTypeEmail,
				AllowSkip:    true,
				VariableName: "email",
				NextNodeID:   "done",
			}),
		),
		testutil.CreateTestNode(testutil.WithID("done"), testutil.WithText("Moving on.")),
	)
	engine, recorder, sessions := newTestEngine(t, graph)
	ctx := context.Background()

	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/email")))
	require.NoError(t, engine.HandleEvent(ctx, testutil.TextInbound(testUser, testChat, "/skip")))

	last, _ := recorder.Last()
	assert.Equal(t, "Moving on.", last.Text)

	sess, err := sessions.Get(ctx, testUser)
	require.NoError(t, err)
	assert.Nil(t, sess.Pending)
	assert.NotContains(t, sess.Vars, "email", "skipped input must store nothing")
}

func TestEngine_SingleSelect_OptionCallback(t *testing.T) {
	graph := testutil.CreateTestGraph(
		testutil.CreateTestNode(
			testutil.WithID("ask-source"),
			testutil.WithCommand("source"),
			testutil.WithText("How did you hear about us?"),
			testutil.WithInput(&models.InputSpec{
				ResponseType:   models.ResponseTypeButtons,
				VariableName:   "discovery_source",
				SuccessMessage: "Got it: {{discovery_source}}",
				Options: []models.ResponseOption{
					{Text: "Twitter", Value: "twitter"},
					{Text: "A friend", Value: "friend"},
				},
			}),
		),
	)
	engine, recorder, sessions := newTestEngine(t, graph)
	ctx := context.Background()

	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/source")))
	recorder.Reset()

	require.NoError(t, engine.HandleEvent(ctx, testutil.CallbackInbound(testUser, testChat, OptionKey("ask-source", 0))))

	assert.Equal(t, []string{"callback", "text"}, ops(recorder))

	last, _ := recorder.Last()
	assert.Equal(t, "Got it: twitter", last.Text)

	sess, err := sessions.Get(ctx, testUser)
	require.NoError(t, err)
	assert.Nil(t, sess.Pending)
	assert.Equal(t, "twitter", sess.Vars["discovery_source"])
}

func TestEngine_SingleSelect_ReplyOptionAnswersAsText(t *testing.T) {
	graph := testutil.CreateTestGraph(
		testutil.CreateTestNode(
			testutil.WithID("ask-source"),
			testutil.WithCommand("source"),
			testutil.WithText("How did you hear about us?"),
			testutil.WithKeyboard(models.KeyboardReply),
			testutil.WithInput(&models.InputSpec{
				ResponseType: models.ResponseTypeButtons,
				VariableName: "discovery_source",
				Options: []models.ResponseOption{
					{Text: "Twitter", Value: "twitter"},
					{Text: "A friend", Value: "friend"},
				},
			}),
		),
	)
	engine, _, sessions := newTestEngine(t, graph)
	ctx := context.Background()

	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/source")))
	require.NoError(t, engine.HandleEvent(ctx, testutil.TextInbound(testUser, testChat, "A friend")))

	sess, err := sessions.Get(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "friend", sess.Vars["discovery_source"])
}

func TestEngine_MultiSelect_ToggleAndDone(t *testing.T) {
	graph := testutil.CreateTestGraph(
		testutil.CreateTestNode(
			testutil.WithID("skills"),
			testutil.WithCommand("skills"),
			testutil.WithText("Pick your skills"),
			testutil.WithInput(&models.InputSpec{
				ResponseType:  models.ResponseTypeButtons,
				AllowMultiple: true,
				VariableName:  "skills",
				Options: []models.ResponseOption{
					{Text: "Python", Value: "python"},
					{Text: "React", Value: "react"},
					{Text: "Node.js", Value: "nodejs"},
					{Text: "Done", Done: true},
				},
			}),
		),
	)
	engine, recorder, sessions := newTestEngine(t, graph)
	ctx := context.Background()

	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/skills")))
	recorder.Reset()

	// Done with nothing selected: warning, still armed.
	require.NoError(t, engine.HandleEvent(ctx, testutil.CallbackInbound(testUser, testChat, OptionKey("skills", 3))))

	last, _ := recorder.Last()
	assert.Equal(t, "callback", last.Op)
	assert.NotEmpty(t, last.Text, "empty-selection done must warn")

	sess, err := sessions.Get(ctx, testUser)
	require.NoError(t, err)
	require.NotNil(t, sess.Pending)

	// Each toggle refreshes the keyboard on the rendered message.
	recorder.Reset()
	require.NoError(t, engine.HandleEvent(ctx, testutil.CallbackInbound(testUser, testChat, OptionKey("skills", 0))))
	require.NoError(t, engine.HandleEvent(ctx, testutil.CallbackInbound(testUser, testChat, OptionKey("skills", 1))))
	require.NoError(t, engine.HandleEvent(ctx, testutil.CallbackInbound(testUser, testChat, OptionKey("skills", 2))))

	assert.Equal(t, []string{"edit", "callback", "edit", "callback", "edit", "callback"}, ops(recorder))

	sess, err = sessions.Get(ctx, testUser)
	require.NoError(t, err)
	require.NotNil(t, sess.Pending)
	assert.Equal(t, []int{0, 1, 2}, sess.Pending.Selected)

	// Done completes with the selections in order.
	recorder.Reset()
	require.NoError(t, engine.HandleEvent(ctx, testutil.CallbackInbound(testUser, testChat, OptionKey("skills", 3))))

	sess, err = sessions.Get(ctx, testUser)
	require.NoError(t, err)
	assert.Nil(t, sess.Pending)

	values, ok := sess.Vars["skills"].([]SelectedValue)
	require.True(t, ok, "multi-select must store ordered value/label pairs")
	require.Len(t, values, 3)
	assert.Equal(t, "python", values[0].Value)
	assert.Equal(t, "react", values[1].Value)
	assert.Equal(t, "nodejs", values[2].Value)
}

func TestEngine_MultiSelect_TextToggle_SkipsKeyboardRefresh(t *testing.T) {
	graph := testutil.CreateTestGraph(
		testutil.CreateTestNode(
			testutil.WithID("skills"),
			testutil.WithCommand("skills"),
			testutil.WithText("Pick your skills"),
			testutil.WithInput(&models.InputSpec{
				ResponseType:  models.ResponseTypeButtons,
				AllowMultiple: true,
				VariableName:  "skills",
				Options: []models.ResponseOption{
					{Text: "Python", Value: "python"},
					{Text: "Done", Done: true},
				},
			}),
		),
	)
	engine, recorder, sessions := newTestEngine(t, graph)
	ctx := context.Background()

	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/skills")))
	recorder.Reset()

	// The toggle arrives as a plain text reply. Its message id is the user's
	// own message, so no keyboard refresh can target it.
	evt := testutil.TextInbound(testUser, testChat, "Python")
	evt.MessageID = 42
	require.NoError(t, engine.HandleEvent(ctx, evt))

	assert.Empty(t, ops(recorder))

	sess, err := sessions.Get(ctx, testUser)
	require.NoError(t, err)
	require.NotNil(t, sess.Pending)
	assert.Equal(t, []int{0}, sess.Pending.Selected)
}

func TestEngine_StaleOptionCallback_AnsweredAndIgnored(t *testing.T) {
	engine, recorder, sessions := newTestEngine(t, testutil.CreateTestGraph())
	ctx := context.Background()

	// No pending input at all.
	require.NoError(t, engine.HandleEvent(ctx, testutil.CallbackInbound(testUser, testChat, OptionKey("skills", 0))))

	assert.Equal(t, []string{"callback"}, ops(recorder))

	sess, err := sessions.Get(ctx, testUser)
	require.NoError(t, err)
	assert.Nil(t, sess.Pending)
}

func TestEngine_MalformedCallback_Answered(t *testing.T) {
	engine, recorder, _ := newTestEngine(t, testutil.CreateTestGraph())

	require.NoError(t, engine.HandleEvent(context.Background(), testutil.CallbackInbound(testUser, testChat, "garbage")))
	assert.Equal(t, []string{"callback"}, ops(recorder))
}

func TestEngine_ButtonCallback_Navigates(t *testing.T) {
	graph := testutil.CreateTestGraph(
		testutil.CreateTestNode(
			testutil.WithID("menu"),
			testutil.WithCommand("menu"),
			testutil.WithText("Pick one"),
			testutil.WithKeyboard(models.KeyboardInline, testutil.GotoButton("Next", "next")),
		),
		testutil.CreateTestNode(testutil.WithID("next"), testutil.WithText("You made it.")),
	)
	engine, recorder, _ := newTestEngine(t, graph)
	ctx := context.Background()

	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/menu")))
	recorder.Reset()

	require.NoError(t, engine.HandleEvent(ctx, testutil.CallbackInbound(testUser, testChat, ButtonKey("menu", 0))))

	assert.Equal(t, []string{"callback", "text"}, ops(recorder))

	last, _ := recorder.Last()
	assert.Equal(t, "You made it.", last.Text)
}

func TestEngine_ReplyButtonText_Navigates(t *testing.T) {
	graph := testutil.CreateTestGraph(
		testutil.CreateTestNode(
			testutil.WithID("menu"),
			testutil.WithCommand("menu"),
			testutil.WithText("Pick one"),
			testutil.WithKeyboard(models.KeyboardReply, testutil.GotoButton("Show help", "help")),
		),
		testutil.CreateTestNode(testutil.WithID("help"), testutil.WithText("Help text.")),
	)
	engine, recorder, _ := newTestEngine(t, graph)
	ctx := context.Background()

	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/menu")))

	// Reply keyboard presses arrive as ordinary text messages.
	require.NoError(t, engine.HandleEvent(ctx, testutil.TextInbound(testUser, testChat, "Show help")))

	last, _ := recorder.Last()
	assert.Equal(t, "Help text.", last.Text)
}

func TestEngine_FreeText_CommandSynonym(t *testing.T) {
	graph := testutil.CreateTestGraph(
		testutil.CreateTestNode(
			testutil.WithID("help"),
			testutil.WithCommand("help", "how does this work"),
			testutil.WithText("Here is how."),
		),
	)
	engine, recorder, _ := newTestEngine(t, graph)

	require.NoError(t, engine.HandleEvent(context.Background(), testutil.TextInbound(testUser, testChat, "how does this work")))

	last, _ := recorder.Last()
	assert.Equal(t, "Here is how.", last.Text)
}

func TestEngine_UnmatchedText_Ignored(t *testing.T) {
	engine, recorder, _ := newTestEngine(t, testutil.CreateTestGraph())

	require.NoError(t, engine.HandleEvent(context.Background(), testutil.TextInbound(testUser, testChat, "random chatter")))
	assert.Empty(t, recorder.Sent())
}

func TestEngine_Contact_CompletesPhoneInput(t *testing.T) {
	graph := testutil.CreateTestGraph(
		testutil.CreateTestNode(
			testutil.WithID("ask-phone"),
			testutil.WithCommand("phone"),
			testutil.WithText("Your number?"),
			testutil.WithInput(&models.InputSpec{
				ResponseType: models.ResponseTypeText,
				InputType:    models.InputTypePhone,
				VariableName: "phone",
			}),
		),
	)
	engine, _, sessions := newTestEngine(t, graph)
	ctx := context.Background()

	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/phone")))
	require.NoError(t, engine.HandleEvent(ctx, testutil.ContactInbound(testUser, testChat, "+15551234567")))

	sess, err := sessions.Get(ctx, testUser)
	require.NoError(t, err)
	assert.Nil(t, sess.Pending)
	assert.Equal(t, "+15551234567", sess.Vars["phone"])
}

func TestEngine_ReplyKeyboardRemovedOnNextPlainMessage(t *testing.T) {
	graph := testutil.CreateTestGraph(
		testutil.CreateTestNode(
			testutil.WithID("menu"),
			testutil.WithCommand("menu"),
			testutil.WithText("Pick one"),
			testutil.WithKeyboard(models.KeyboardReply, testutil.GotoButton("Plain", "plain")),
		),
		testutil.CreateTestNode(testutil.WithID("plain"), testutil.WithText("No keyboard here.")),
	)
	engine, recorder, _ := newTestEngine(t, graph)
	ctx := context.Background()

	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/menu")))

	last, _ := recorder.Last()
	assert.Equal(t, platform.KeyboardKindReply, last.Keyboard.Kind)

	require.NoError(t, engine.HandleEvent(ctx, testutil.TextInbound(testUser, testChat, "Plain")))

	last, _ = recorder.Last()
	assert.Equal(t, platform.KeyboardKindRemove, last.Keyboard.Kind)

	// A further plain render sends no keyboard action at all.
	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/menu")))
	recorder.Reset()
	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/start")))
	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/start")))

	sent := recorder.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, platform.KeyboardKindRemove, sent[0].Keyboard.Kind)
	assert.Equal(t, platform.KeyboardKindNone, sent[1].Keyboard.Kind)
}

func TestEngine_StaleButtonCallback_AnsweredAndIgnored(t *testing.T) {
	graph := testutil.CreateTestGraph(
		testutil.CreateTestNode(
			testutil.WithID("menu"),
			testutil.WithCommand("menu"),
			testutil.WithText("Pick one"),
			testutil.WithKeyboard(models.KeyboardInline,
				models.Button{Text: "Open site", Action: models.ActionURL, URL: "https://example.com"},
			),
		),
	)
	engine, recorder, _ := newTestEngine(t, graph)
	ctx := context.Background()

	require.NoError(t, engine.HandleEvent(ctx, testutil.CommandInbound(testUser, testChat, "/menu")))
	recorder.Reset()

	// URL buttons render natively and have no callback key, so the only
	// callback data a menu like this can produce is a stale button key.
	require.NoError(t, engine.HandleEvent(ctx, testutil.CallbackInbound(testUser, testChat, ButtonKey("menu", 5))))
	assert.Equal(t, []string{"callback"}, ops(recorder))
}
