package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"realtychat/internal/model"
)

func TestParseCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"parse", "3BR", "apartments", "in", "Galle", "under", "80M"})
	require.NoError(t, cmd.Execute())

	var got model.ParseResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, model.IntentBrowse, got.Intent.Name)
	assert.Equal(t, "Galle", *got.Slots.City)
	assert.Equal(t, int64(80_000_000), *got.Slots.PriceMax)
}

func TestParseCmd_NeedsText(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"parse"})
	assert.Error(t, cmd.Execute())
}

type scriptedChat struct {
	sessions []string
}

func (s *scriptedChat) HandleTurn(_ context.Context, sessionID, text string) (*model.TurnResult, error) {
	s.sessions = append(s.sessions, sessionID)
	price := int64(75_000_000)
	if text == "hi" {
		return &model.TurnResult{SessionID: "abc", Reply: model.Reply{Type: model.ReplyText, Content: "Hello"}}, nil
	}
	return &model.TurnResult{SessionID: "abc", Reply: model.Reply{
		Type:    model.ReplyCards,
		Preface: "Nothing under LKR 60,000,000.",
		Items:   []model.ListingCard{{ID: 1, Title: "House in Matara", Subtitle: "3 BR · 2 Bath · Matara", Price: &price, Badge: "Similar"}},
	}}, nil
}

func TestRunREPL(t *testing.T) {
	chat := &scriptedChat{}
	in := strings.NewReader("hi\nhouses in matara under 60m\nexit\nnever read\n")
	var out bytes.Buffer

	require.NoError(t, runREPL(context.Background(), chat, "", in, &out, zap.NewNop()))
	assert.Equal(t, []string{"", "abc"}, chat.sessions)

	text := out.String()
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "Nothing under LKR 60,000,000.")
	assert.Contains(t, text, "#1 House in Matara | 3 BR · 2 Bath · Matara | LKR 75,000,000 [Similar]")
}

func TestRenderReply_Investments(t *testing.T) {
	var out bytes.Buffer
	renderReply(&out, model.Reply{
		Type:        model.ReplyInvestments,
		Content:     "Here are the open investment plans.",
		Investments: []model.Investment{{Name: "Income Fund A"}},
	})
	assert.Equal(t, "Here are the open investment plans.\n  - Income Fund A\n", out.String())
}
