package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niranjanisuresh/YouConnect/internal/bot"
	"github.com/niranjanisuresh/YouConnect/internal/config"
	"github.com/niranjanisuresh/YouConnect/internal/domain"
	"github.com/niranjanisuresh/YouConnect/internal/hub"
	"github.com/niranjanisuresh/YouConnect/internal/identity"
	"github.com/niranjanisuresh/YouConnect/internal/store"
)

var testWSCfg = config.WebSocketConfig{SendBuffer: 32}

// newTestService wires a full in-process stack with an instant,
// deterministic bot.
func newTestService(replyProbability float64) (ChatService, *hub.Hub) {
	wsHub := hub.NewHub(testWSCfg)
	go wsHub.Run()

	svc := NewChatService(
		wsHub,
		store.NewMessageStore(0),
		identity.NewResolver(nil),
		bot.NewResponder(rand.New(rand.NewSource(1))),
		bot.NewScheduler(0, 0, replyProbability, rand.New(rand.NewSource(1))),
		config.BotConfig{Name: "StudyBot", Avatar: "https://example.com/bot.png"},
		config.ChatConfig{},
	)
	return svc, wsHub
}

func connect(t *testing.T, svc ChatService, h *hub.Hub, id string) *hub.Client {
	t.Helper()
	c := hub.NewClient(id, h, nil, testWSCfg)
	h.Register(c)
	require.NoError(t, svc.HandleConnect(context.Background(), c, ""))

	ev := recv(t, c)
	require.Equal(t, domain.EventUserConnected, ev["type"])
	return c
}

func recv(t *testing.T, c *hub.Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.Send:
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func assertSilent(t *testing.T, c *hub.Client) {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		if ok {
			t.Fatalf("unexpected event: %s", data)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestConnectResolvesEphemeralIdentity(t *testing.T) {
	svc, h := newTestService(0)

	c := hub.NewClient("conn-1", h, nil, testWSCfg)
	h.Register(c)
	require.NoError(t, svc.HandleConnect(context.Background(), c, ""))

	ev := recv(t, c)
	assert.Equal(t, domain.EventUserConnected, ev["type"])
	user := ev["user"].(map[string]interface{})
	assert.Equal(t, "temp_conn-1", user["id"])
	assert.NotEmpty(t, user["username"])
}

func TestJoinEmptyRoomReplaysHistoryThenWelcome(t *testing.T) {
	svc, h := newTestService(0)
	ctx := context.Background()

	a := connect(t, svc, h, "a")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))

	history := recv(t, a)
	assert.Equal(t, domain.EventChatHistory, history["type"])
	assert.Empty(t, history["messages"])

	welcome := recv(t, a)
	assert.Equal(t, domain.EventNewMessage, welcome["type"])
	assert.Equal(t, true, welcome["is_bot"])
	assert.NotEmpty(t, welcome["text"])
}

func TestSecondJoinerSeesWelcomeInHistory(t *testing.T) {
	svc, h := newTestService(0)
	ctx := context.Background()

	a := connect(t, svc, h, "a")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a) // history
	recv(t, a) // welcome

	b := connect(t, svc, h, "b")
	require.NoError(t, svc.HandleJoinVideo(ctx, b, "v1"))

	// B: history containing the first welcome, then B's own welcome.
	history := recv(t, b)
	require.Equal(t, domain.EventChatHistory, history["type"])
	msgs := history["messages"].([]interface{})
	require.Len(t, msgs, 1)
	assert.Equal(t, true, msgs[0].(map[string]interface{})["is_bot"])

	welcome := recv(t, b)
	assert.Equal(t, domain.EventNewMessage, welcome["type"])

	// A: presence notice for B, then B's welcome broadcast.
	joined := recv(t, a)
	assert.Equal(t, domain.EventUserJoined, joined["type"])
	assert.NotEmpty(t, joined["username"])

	assert.Equal(t, domain.EventNewMessage, recv(t, a)["type"])
}

func TestRejoinReplaysHistoryWithoutSecondWelcome(t *testing.T) {
	svc, h := newTestService(0)
	ctx := context.Background()

	a := connect(t, svc, h, "a")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a) // history
	recv(t, a) // welcome

	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))

	history := recv(t, a)
	assert.Equal(t, domain.EventChatHistory, history["type"])
	assert.Len(t, history["messages"], 1)

	assertSilent(t, a)
}

func TestJoinSwitchesRooms(t *testing.T) {
	svc, h := newTestService(0)
	ctx := context.Background()

	a := connect(t, svc, h, "a")
	b := connect(t, svc, h, "b")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a)
	recv(t, a)
	require.NoError(t, svc.HandleJoinVideo(ctx, b, "v1"))
	recv(t, b)
	recv(t, b)
	recv(t, a) // user_joined
	recv(t, a) // welcome for b

	require.NoError(t, svc.HandleJoinVideo(ctx, b, "v2"))

	left := recv(t, a)
	assert.Equal(t, domain.EventUserLeft, left["type"])
	assert.Contains(t, left["text"], "left the chat")

	assert.Equal(t, 1, h.RoomClientCount("v1"))
	assert.Equal(t, 1, h.RoomClientCount("v2"))
}

func TestSendMessageEchoesToAllIncludingSender(t *testing.T) {
	svc, h := newTestService(1)
	ctx := context.Background()

	a := connect(t, svc, h, "a")
	b := connect(t, svc, h, "b")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a)
	recv(t, a)
	require.NoError(t, svc.HandleJoinVideo(ctx, b, "v1"))
	recv(t, b)
	recv(t, b)
	recv(t, a)
	recv(t, a)

	require.NoError(t, svc.HandleSendMessage(ctx, a, "v1", "hi"))

	for _, c := range []*hub.Client{a, b} {
		msg := recv(t, c)
		assert.Equal(t, domain.EventNewMessage, msg["type"])
		assert.Equal(t, "hi", msg["text"])
		assert.Equal(t, "temp_a", msg["user_id"])
		assert.Equal(t, false, msg["is_bot"])
	}

	// The scheduled bot reply reaches both participants identically.
	for _, c := range []*hub.Client{a, b} {
		reply := recv(t, c)
		assert.Equal(t, domain.EventNewMessage, reply["type"])
		assert.Equal(t, true, reply["is_bot"])
		assert.NotEmpty(t, reply["text"])
		assert.NotEmpty(t, reply["parent_id"])
	}
}

func TestSendMessageValidation(t *testing.T) {
	svc, h := newTestService(1)
	ctx := context.Background()

	a := connect(t, svc, h, "a")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a)
	recv(t, a)

	// Blank text and a missing room id degrade to silent no-ops.
	require.NoError(t, svc.HandleSendMessage(ctx, a, "v1", "   "))
	require.NoError(t, svc.HandleSendMessage(ctx, a, "", "hello"))
	assertSilent(t, a)

	// Sending into a room the sender has not joined is answered with an
	// error event and nothing is published.
	require.NoError(t, svc.HandleSendMessage(ctx, a, "v2", "hello"))
	errEv := recv(t, a)
	assert.Equal(t, domain.EventError, errEv["type"])
	assert.Equal(t, domain.ErrCodeNotInRoom, errEv["code"])

	assert.Len(t, svc.History("v1", 0, 0), 1) // welcome only
	assert.Empty(t, svc.History("v2", 0, 0))
}

func TestLikeMessageBroadcastsNewCount(t *testing.T) {
	svc, h := newTestService(0)
	ctx := context.Background()

	a := connect(t, svc, h, "a")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a)
	welcome := recv(t, a)
	messageID := welcome["id"].(string)

	require.NoError(t, svc.HandleLikeMessage(ctx, a, "v1", messageID))

	liked := recv(t, a)
	assert.Equal(t, domain.EventMessageLiked, liked["type"])
	assert.Equal(t, messageID, liked["message_id"])
	assert.Equal(t, float64(1), liked["likes"])

	require.NoError(t, svc.HandleLikeMessage(ctx, a, "v1", messageID))
	assert.Equal(t, float64(2), recv(t, a)["likes"])
}

func TestLikeUnknownMessageIsSilent(t *testing.T) {
	svc, h := newTestService(0)
	ctx := context.Background()

	a := connect(t, svc, h, "a")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a)
	recv(t, a)

	require.NoError(t, svc.HandleLikeMessage(ctx, a, "v1", "no-such-id"))
	require.NoError(t, svc.HandleLikeMessage(ctx, a, "no-such-room", "m1"))

	assertSilent(t, a)
}

func TestTypingNoticesExcludeOriginatorAndAreNotLogged(t *testing.T) {
	svc, h := newTestService(0)
	ctx := context.Background()

	a := connect(t, svc, h, "a")
	b := connect(t, svc, h, "b")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a)
	recv(t, a)
	require.NoError(t, svc.HandleJoinVideo(ctx, b, "v1"))
	recv(t, b)
	recv(t, b)
	recv(t, a)
	recv(t, a)

	// Both joins have produced their welcomes by now; the log must not
	// grow past this point.
	logged := len(svc.History("v1", 0, 0))
	require.Equal(t, 2, logged)

	require.NoError(t, svc.HandleTyping(ctx, a, "v1", true))

	typing := recv(t, b)
	assert.Equal(t, domain.EventUserTyping, typing["type"])
	assert.NotEmpty(t, typing["username"])
	assertSilent(t, a)

	require.NoError(t, svc.HandleTyping(ctx, a, "v1", false))
	assert.Equal(t, domain.EventUserStopTyping, recv(t, b)["type"])

	assert.Len(t, svc.History("v1", 0, 0), logged, "typing notices must not be logged")
}

func TestStatementGatedByZeroProbabilityGetsNoReply(t *testing.T) {
	svc, h := newTestService(0)
	ctx := context.Background()

	a := connect(t, svc, h, "a")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a)
	recv(t, a)

	require.NoError(t, svc.HandleSendMessage(ctx, a, "v1", "nice weather today"))
	recv(t, a) // own message echo
	assertSilent(t, a)
}

func TestQuestionAlwaysGetsReplyEvenWithZeroProbability(t *testing.T) {
	svc, h := newTestService(0)
	ctx := context.Background()

	a := connect(t, svc, h, "a")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a)
	recv(t, a)

	require.NoError(t, svc.HandleSendMessage(ctx, a, "v1", "what is a closure?"))
	recv(t, a) // own message echo

	reply := recv(t, a)
	assert.Equal(t, true, reply["is_bot"])
}

func TestTopicReplyUsesVideoTitleContext(t *testing.T) {
	svc, h := newTestService(0)
	ctx := context.Background()

	svc.SetVideoTitle("v1", "Learn React.js - Full Course for Beginners")

	a := connect(t, svc, h, "a")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a)
	recv(t, a)

	require.NoError(t, svc.HandleSendMessage(ctx, a, "v1", "what does this part do?"))
	recv(t, a)

	reply := recv(t, a)
	assert.Equal(t, true, reply["is_bot"])
	assert.NotEmpty(t, reply["text"])
}

func TestDisconnectNotifiesRemainingMembers(t *testing.T) {
	svc, h := newTestService(0)
	ctx := context.Background()

	a := connect(t, svc, h, "a")
	b := connect(t, svc, h, "b")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a)
	recv(t, a)
	require.NoError(t, svc.HandleJoinVideo(ctx, b, "v1"))
	recv(t, b)
	recv(t, b)
	recv(t, a)
	recv(t, a)

	h.Unregister(a)
	require.Eventually(t, func() bool {
		return h.RoomClientCount("v1") == 1
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, svc.HandleDisconnect(ctx, a))

	left := recv(t, b)
	assert.Equal(t, domain.EventUserLeft, left["type"])

	// Subsequent publishes reach only B.
	require.NoError(t, svc.HandleSendMessage(ctx, b, "v1", "still here"))
	assert.Equal(t, "still here", recv(t, b)["text"])
}

func TestJoinReplayHonorsHistoryLimit(t *testing.T) {
	wsHub := hub.NewHub(testWSCfg)
	go wsHub.Run()

	svc := NewChatService(
		wsHub,
		store.NewMessageStore(0),
		identity.NewResolver(nil),
		bot.NewResponder(rand.New(rand.NewSource(1))),
		bot.NewScheduler(0, 0, 0, rand.New(rand.NewSource(1))),
		config.BotConfig{Name: "StudyBot"},
		config.ChatConfig{HistoryLimit: 2},
	)
	ctx := context.Background()

	a := connect(t, svc, wsHub, "a")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a) // history
	recv(t, a) // welcome
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, svc.HandleSendMessage(ctx, a, "v1", text))
		recv(t, a)
	}

	b := connect(t, svc, wsHub, "b")
	require.NoError(t, svc.HandleJoinVideo(ctx, b, "v1"))

	// The log holds four entries; the replay carries only the newest two.
	history := recv(t, b)
	require.Equal(t, domain.EventChatHistory, history["type"])
	msgs := history["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "two", msgs[0].(map[string]interface{})["text"])
	assert.Equal(t, "three", msgs[1].(map[string]interface{})["text"])
}

func TestHistoryPagination(t *testing.T) {
	svc, h := newTestService(0)
	ctx := context.Background()

	a := connect(t, svc, h, "a")
	require.NoError(t, svc.HandleJoinVideo(ctx, a, "v1"))
	recv(t, a)
	recv(t, a)
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, svc.HandleSendMessage(ctx, a, "v1", text))
		recv(t, a)
	}

	all := svc.History("v1", 0, 0)
	require.Len(t, all, 4) // welcome + three messages
	assert.Equal(t, "one", all[1].Text)
	assert.Equal(t, "three", all[3].Text)

	page := svc.History("v1", 2, 1)
	require.Len(t, page, 2)
	assert.Equal(t, "one", page[0].Text)
	assert.Equal(t, "two", page[1].Text)

	assert.Empty(t, svc.History("v1", 10, 99))
}
