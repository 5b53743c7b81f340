package services

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"peerchat/domain"
	apperrors "peerchat/errors"
	"peerchat/mocks"
	"peerchat/moderation"
)

func TestMessageLog_Append(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chatsMock := mocks.NewMockIChatRepository(ctrl)
	messagesMock := mocks.NewMockIMessageRepository(ctrl)
	usersMock := mocks.NewMockIUserRepository(ctrl)
	log := NewMessageLog(chatsMock, messagesMock, usersMock, slog.Default())

	chat := domain.Chat{ID: "chat-1", Participants: [2]string{"alice", "bob"}}

	t.Run("should refuse blank content", func(t *testing.T) {
		req := require.New(t)

		// Storage is never touched
		_, err := log.Append("chat-1", "alice", "   \t ")

		req.ErrorIs(err, apperrors.ErrInvalidMessage)
	})

	t.Run("should refuse a sender outside the chat", func(t *testing.T) {
		req := require.New(t)

		chatsMock.EXPECT().FindChatByID("chat-1").Return(chat, nil).Times(1)

		_, err := log.Append("chat-1", "mallory", "hello")

		req.ErrorIs(err, apperrors.ErrUnauthorized)
	})

	t.Run("should stamp and persist the message", func(t *testing.T) {
		req := require.New(t)

		chatsMock.EXPECT().FindChatByID("chat-1").Return(chat, nil).Times(1)
		messagesMock.EXPECT().
			StoreMessage(gomock.Any()).
			DoAndReturn(func(message domain.Message) error {
				req.Equal("chat-1", message.ChatID)
				req.Equal("alice", message.SenderID)
				req.Equal("hello bob", message.Content)
				req.False(message.CreatedAt.IsZero())
				req.False(message.IsRead)
				return nil
			}).
			Times(1)

		message, err := log.Append("chat-1", "alice", "hello bob")

		req.NoError(err)
		req.NotEqual(uuid.Nil, message.ID)
	})

	t.Run("should retry the chat lookup once after a storage failure", func(t *testing.T) {
		req := require.New(t)

		first := chatsMock.EXPECT().
			FindChatByID("chat-1").
			Return(domain.Chat{}, fmt.Errorf("transient badger failure")).
			Times(1)
		chatsMock.EXPECT().
			FindChatByID("chat-1").
			Return(chat, nil).
			Times(1).
			After(first)
		messagesMock.EXPECT().StoreMessage(gomock.Any()).Return(nil).Times(1)

		_, err := log.Append("chat-1", "alice", "still there?")

		req.NoError(err)
	})

	t.Run("should censor flagged words before storing", func(t *testing.T) {
		req := require.New(t)

		moderator, err := moderation.NewModerator([]string{"noob"}, '*', slog.Default())
		req.NoError(err)
		moderated := log.WithModerator(&moderator)

		chatsMock.EXPECT().FindChatByID("chat-1").Return(chat, nil).Times(1)
		messagesMock.EXPECT().
			StoreMessage(gomock.Any()).
			DoAndReturn(func(message domain.Message) error {
				req.NotContains(message.Content, "noob")
				return nil
			}).
			Times(1)

		_, err = moderated.Append("chat-1", "alice", "what a noob")

		req.NoError(err)
	})
}

func TestMessageLog_History(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chatsMock := mocks.NewMockIChatRepository(ctrl)
	messagesMock := mocks.NewMockIMessageRepository(ctrl)
	usersMock := mocks.NewMockIUserRepository(ctrl)
	log := NewMessageLog(chatsMock, messagesMock, usersMock, slog.Default())

	t.Run("should enrich messages with display names", func(t *testing.T) {
		req := require.New(t)
		at := time.Now().UTC()
		stored := []domain.Message{
			{ID: uuid.New(), ChatID: "chat-1", SenderID: "alice", Content: "hi", CreatedAt: at},
			{ID: uuid.New(), ChatID: "chat-1", SenderID: "bob", Content: "hey", CreatedAt: at.Add(time.Second)},
			{ID: uuid.New(), ChatID: "chat-1", SenderID: "alice", Content: "ça va ?", CreatedAt: at.Add(2 * time.Second)},
		}

		messagesMock.EXPECT().GetMessages("chat-1", DefaultHistoryLimit).Return(stored, nil).Times(1)
		// The sender cache makes one lookup per distinct sender
		usersMock.EXPECT().FindUser("alice").Return(domain.User{ID: "alice", DisplayName: "Alice"}, nil).Times(1)
		usersMock.EXPECT().FindUser("bob").Return(domain.User{ID: "bob", DisplayName: "Bob"}, nil).Times(1)

		history, err := log.History("chat-1", 0)

		req.NoError(err)
		req.Len(history, 3)
		req.Equal("Alice", history[0].SenderName)
		req.Equal("Bob", history[1].SenderName)
		req.Equal("Alice", history[2].SenderName)
	})

	t.Run("should name a deleted sender Unknown", func(t *testing.T) {
		req := require.New(t)
		stored := []domain.Message{
			{ID: uuid.New(), ChatID: "chat-1", SenderID: "ghost", Content: "boo", CreatedAt: time.Now().UTC()},
		}

		messagesMock.EXPECT().GetMessages("chat-1", 10).Return(stored, nil).Times(1)
		usersMock.EXPECT().FindUser("ghost").Return(domain.User{}, apperrors.ErrNotFound).Times(1)

		history, err := log.History("chat-1", 10)

		req.NoError(err)
		req.Len(history, 1)
		req.Equal(UnknownSender, history[0].SenderName)
	})

	t.Run("should retry the read once after a storage failure", func(t *testing.T) {
		req := require.New(t)

		first := messagesMock.EXPECT().
			GetMessages("chat-1", DefaultHistoryLimit).
			Return(nil, fmt.Errorf("transient badger failure")).
			Times(1)
		messagesMock.EXPECT().
			GetMessages("chat-1", DefaultHistoryLimit).
			Return([]domain.Message{}, nil).
			Times(1).
			After(first)

		history, err := log.History("chat-1", 0)

		req.NoError(err)
		req.Empty(history)
	})
}

func TestMessageLog_MarkRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chatsMock := mocks.NewMockIChatRepository(ctrl)
	messagesMock := mocks.NewMockIMessageRepository(ctrl)
	usersMock := mocks.NewMockIUserRepository(ctrl)
	log := NewMessageLog(chatsMock, messagesMock, usersMock, slog.Default())

	chat := domain.Chat{ID: "chat-1", Participants: [2]string{"alice", "bob"}}

	t.Run("should mark peer messages read for a participant", func(t *testing.T) {
		req := require.New(t)

		chatsMock.EXPECT().FindChatByID("chat-1").Return(chat, nil).Times(1)
		messagesMock.EXPECT().MarkRead("chat-1", "alice").Return(nil).Times(1)

		req.NoError(log.MarkRead("chat-1", "alice"))
	})

	t.Run("should refuse a reader outside the chat", func(t *testing.T) {
		req := require.New(t)

		chatsMock.EXPECT().FindChatByID("chat-1").Return(chat, nil).Times(1)

		err := log.MarkRead("chat-1", "mallory")

		req.ErrorIs(err, apperrors.ErrUnauthorized)
	})
}
