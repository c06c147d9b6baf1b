package runtime

import (
	"context"
	stderrors "errors"
	"estate-desk/domain"
	"estate-desk/errors"
	"estate-desk/mocks"
	"estate-desk/observability"
	"estate-desk/runtime/workers"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type shownMessages struct {
	selection domain.Selection
	messages  []domain.Message
}

type recordingView struct {
	mu            sync.Mutex
	conversations [][]domain.Conversation
	messages      []shownMessages
	errors        []error
}

func (v *recordingView) ShowConversations(conversations []domain.Conversation) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.conversations = append(v.conversations, conversations)
}

func (v *recordingView) ShowMessages(selection domain.Selection, messages []domain.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages = append(v.messages, shownMessages{selection: selection, messages: messages})
}

func (v *recordingView) ShowError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, err)
}

func (v *recordingView) Messages() []shownMessages {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]shownMessages{}, v.messages...)
}

func (v *recordingView) Conversations() [][]domain.Conversation {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([][]domain.Conversation{}, v.conversations...)
}

func (v *recordingView) Errors() []error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]error{}, v.errors...)
}

const self = "me@x.com"

func newSynchronizer(store MessageStore, view View) (*Synchronizer, *observability.MonitoringManager) {
	// Long intervals: only explicit refreshes and nudges run during the tests
	return newSynchronizerWithIntervals(store, view, time.Hour)
}

func newSynchronizerWithIntervals(store MessageStore, view View, interval time.Duration) (*Synchronizer, *observability.MonitoringManager) {
	log := slog.Default()
	monitoring := observability.NewMonitoringManager(log, time.Minute)
	synchronizer := NewSynchronizer(log, self, store, view, workers.NewSupervisor(log), monitoring,
		SyncConfig{ListInterval: interval, MessageInterval: interval})
	return synchronizer, monitoring
}

func (v *recordingView) MessagesFor(selection domain.Selection) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	count := 0
	for _, shown := range v.messages {
		if shown.selection == selection {
			count++
		}
	}
	return count
}

func chatMessage(from, to, property, content string) domain.Message {
	return domain.Message{
		ID:            uuid.Must(uuid.NewV7()),
		Content:       content,
		SenderEmail:   from,
		ReceiverEmail: to,
		PropertyID:    property,
		SentAt:        time.Now().UTC(),
	}
}

func TestSynchronizer_Send_Without_Selection(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	synchronizer, _ := newSynchronizer(store, &recordingView{})

	store.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Times(0)

	_, err := synchronizer.Send(context.Background(), "Hello")

	req.ErrorIs(err, errors.ErrNoActiveConversation)
	state, _ := synchronizer.State()
	req.Equal(NoConversationSelected, state)
}

func TestSynchronizer_Select_Before_Start(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	synchronizer, _ := newSynchronizer(mocks.NewMockMessageStore(ctrl), &recordingView{})

	req.ErrorIs(synchronizer.Select("u1@x.com", "P1"), errors.ErrSyncNotStarted)
	req.ErrorIs(synchronizer.Select(self, "P1"), errors.ErrSelfConversation)
}

func TestSynchronizer_Select_Marks_Read_Then_Shows_Messages(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	view := &recordingView{}
	synchronizer, _ := newSynchronizer(store, view)
	selection := domain.NewSelection(self, "u1@x.com", "P1")
	messages := []domain.Message{chatMessage("u1@x.com", self, "P1", "Hello")}

	store.EXPECT().GetConversationsForUser(gomock.Any(), self).Return(nil, nil).AnyTimes()
	gomock.InOrder(
		store.EXPECT().MarkMessagesRead(gomock.Any(), selection).Return(1, nil),
		store.EXPECT().GetMessages(gomock.Any(), selection).Return(messages, nil),
	)

	synchronizer.Start(context.Background())
	defer synchronizer.Stop()

	req.NoError(synchronizer.Select("U1@x.com", "P1"))

	state, active := synchronizer.State()
	req.Equal(ConversationActive, state)
	req.Equal(selection, active)
	shown := view.Messages()
	req.Len(shown, 1)
	req.Equal(selection, shown[0].selection)
	req.Equal(messages, shown[0].messages)
}

func TestSynchronizer_Send_Empty_Content_Never_Writes(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	synchronizer, _ := newSynchronizer(store, &recordingView{})

	store.EXPECT().GetConversationsForUser(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	store.EXPECT().MarkMessagesRead(gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()
	store.EXPECT().GetMessages(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	store.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Times(0)

	synchronizer.Start(context.Background())
	defer synchronizer.Stop()
	req.NoError(synchronizer.Select("u1@x.com", "P1"))

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := synchronizer.Send(context.Background(), content)
		req.ErrorIs(err, errors.ErrEmptyMessageContent)
	}
}

func TestSynchronizer_Send_Fetches_And_Clears_Draft(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	view := &recordingView{}
	synchronizer, monitoring := newSynchronizer(store, view)
	selection := domain.NewSelection(self, "u1@x.com", "P1")
	sent := chatMessage(self, "u1@x.com", "P1", "When can I visit?")

	store.EXPECT().GetConversationsForUser(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	store.EXPECT().MarkMessagesRead(gomock.Any(), selection).Return(0, nil).Times(1)
	gomock.InOrder(
		store.EXPECT().GetMessages(gomock.Any(), selection).Return(nil, nil),
		store.EXPECT().SendMessage(gomock.Any(), domain.SendMessageCommand{
			Content:       "When can I visit?",
			SenderEmail:   self,
			ReceiverEmail: "u1@x.com",
			PropertyID:    "P1",
		}).Return(domain.Message{}, stderrors.New("unavailable")),
		store.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Return(sent, nil),
		store.EXPECT().GetMessages(gomock.Any(), selection).Return([]domain.Message{sent}, nil),
	)

	synchronizer.Start(context.Background())
	defer synchronizer.Stop()
	req.NoError(synchronizer.Select("u1@x.com", "P1"))

	// When the write fails the draft is kept and the error returned
	_, err := synchronizer.Send(context.Background(), "When can I visit?")
	req.Error(err)
	req.Equal("When can I visit?", synchronizer.Draft())
	req.Equal(uint64(1), monitoring.GetLatest().SendFailures)

	// When it succeeds the message is fetched back and the draft cleared
	message, err := synchronizer.Send(context.Background(), "When can I visit?")
	req.NoError(err)
	req.Equal(sent.ID, message.ID)
	req.Empty(synchronizer.Draft())
	shown := view.Messages()
	req.Len(shown, 2)
	req.Equal([]domain.Message{sent}, shown[1].messages)
}

func TestSynchronizer_Discards_Messages_Of_Previous_Selection(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	view := &recordingView{}
	synchronizer, monitoring := newSynchronizer(store, view)
	first := domain.NewSelection(self, "u1@x.com", "P1")
	second := domain.NewSelection(self, "u2@x.com", "P1")
	release := make(chan struct{})
	fetching := make(chan struct{})

	store.EXPECT().GetConversationsForUser(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	store.EXPECT().MarkMessagesRead(gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()
	// The first conversation answers late
	store.EXPECT().GetMessages(gomock.Any(), first).DoAndReturn(
		func(ctx context.Context, _ domain.Selection) ([]domain.Message, error) {
			close(fetching)
			<-release
			return []domain.Message{chatMessage("u1@x.com", self, "P1", "late")}, nil
		}).Times(1)
	store.EXPECT().GetMessages(gomock.Any(), second).
		Return([]domain.Message{chatMessage("u2@x.com", self, "P1", "fresh")}, nil).Times(1)

	synchronizer.Start(context.Background())
	defer synchronizer.Stop()

	done := make(chan error)
	go func() { done <- synchronizer.Select("u1@x.com", "P1") }()
	<-fetching

	// When another conversation is selected while the first fetch is in flight
	req.NoError(synchronizer.Select("u2@x.com", "P1"))
	close(release)
	req.NoError(<-done)

	// Then only the second conversation reached the view
	shown := view.Messages()
	req.Len(shown, 1)
	req.Equal(second, shown[0].selection)
	req.Equal("fresh", shown[0].messages[0].Content)
	req.Equal(uint64(1), monitoring.GetLatest().StaleDiscards)
	_, active := synchronizer.State()
	req.Equal(second, active)
}

func TestSynchronizer_Last_Issued_Conversation_List_Wins(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	view := &recordingView{}
	synchronizer, monitoring := newSynchronizer(store, view)
	release := make(chan struct{})
	fetching := make(chan struct{})
	older := []domain.Conversation{{UnreadCount: 5}}
	newer := []domain.Conversation{{UnreadCount: 0}}

	gomock.InOrder(
		store.EXPECT().GetConversationsForUser(gomock.Any(), self).DoAndReturn(
			func(ctx context.Context, _ string) ([]domain.Conversation, error) {
				close(fetching)
				<-release
				return older, nil
			}),
		store.EXPECT().GetConversationsForUser(gomock.Any(), self).Return(newer, nil),
	)

	done := make(chan struct{})
	go func() {
		synchronizer.refreshConversations(context.Background())
		close(done)
	}()
	<-fetching

	// When a later request answers first
	synchronizer.refreshConversations(context.Background())
	close(release)
	<-done

	// Then the older response is dropped
	req.Equal([][]domain.Conversation{newer}, view.Conversations())
	req.Equal(uint64(1), monitoring.GetLatest().StaleDiscards)
}

func TestSynchronizer_Nudge_Refreshes_List_And_Active_Conversation(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	view := &recordingView{}
	synchronizer, _ := newSynchronizer(store, view)
	selection := domain.NewSelection(self, "u1@x.com", "P1")

	store.EXPECT().GetConversationsForUser(gomock.Any(), self).Return(nil, nil).AnyTimes()
	store.EXPECT().MarkMessagesRead(gomock.Any(), selection).Return(0, nil).AnyTimes()
	store.EXPECT().GetMessages(gomock.Any(), selection).Return(nil, nil).AnyTimes()

	synchronizer.Start(context.Background())
	defer synchronizer.Stop()
	req.NoError(synchronizer.Select("u1@x.com", "P1"))
	req.Eventually(func() bool { return len(view.Conversations()) >= 2 }, time.Second, 5*time.Millisecond)

	// A hint about another conversation only refreshes the list
	before := len(view.Messages())
	synchronizer.Nudge(domain.NewConversationKey(self, "u9@x.com", "P9"))
	req.Eventually(func() bool { return len(view.Conversations()) >= 3 }, time.Second, 5*time.Millisecond)
	req.Equal(before, len(view.Messages()))

	// A hint about the active conversation refreshes its messages too
	synchronizer.Nudge(selection.Key())
	req.Eventually(func() bool { return len(view.Messages()) == before+1 }, time.Second, 5*time.Millisecond)
}

func TestSynchronizer_Poll_Failure_Is_Shown(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	view := &recordingView{}
	synchronizer, monitoring := newSynchronizer(store, view)
	failure := stderrors.New("connection refused")

	store.EXPECT().GetConversationsForUser(gomock.Any(), self).Return(nil, failure).Times(1)

	synchronizer.Start(context.Background())
	synchronizer.Stop()

	req.Equal([]error{failure}, view.Errors())
	req.Empty(view.Conversations())
	req.Equal(uint64(1), monitoring.GetLatest().PollFailures)
}

func TestSynchronizer_Deselect(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	synchronizer, _ := newSynchronizer(store, &recordingView{})

	store.EXPECT().GetConversationsForUser(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	store.EXPECT().MarkMessagesRead(gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()
	store.EXPECT().GetMessages(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	synchronizer.Start(context.Background())
	defer synchronizer.Stop()
	req.NoError(synchronizer.Select("u1@x.com", "P1"))

	synchronizer.Deselect()

	state, _ := synchronizer.State()
	req.Equal(NoConversationSelected, state)
	_, err := synchronizer.Send(context.Background(), "Hello")
	req.ErrorIs(err, errors.ErrNoActiveConversation)
}

func TestSynchronizer_Timers_Keep_Polling_While_A_Conversation_Is_Active(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	view := &recordingView{}
	synchronizer, monitoring := newSynchronizerWithIntervals(store, view, 10*time.Millisecond)
	selection := domain.NewSelection(self, "u1@x.com", "P1")
	thirdFetch := make(chan struct{})

	store.EXPECT().GetConversationsForUser(gomock.Any(), self).Return(nil, nil).AnyTimes()
	// Every message tick marks the conversation as read before fetching it
	mark1 := store.EXPECT().MarkMessagesRead(gomock.Any(), selection).Return(1, nil)
	get1 := store.EXPECT().GetMessages(gomock.Any(), selection).Return(nil, nil).After(mark1)
	mark2 := store.EXPECT().MarkMessagesRead(gomock.Any(), selection).Return(0, nil).After(get1)
	get2 := store.EXPECT().GetMessages(gomock.Any(), selection).Return(nil, nil).After(mark2)
	mark3 := store.EXPECT().MarkMessagesRead(gomock.Any(), selection).Return(0, nil).After(get2)
	get3 := store.EXPECT().GetMessages(gomock.Any(), selection).DoAndReturn(
		func(context.Context, domain.Selection) ([]domain.Message, error) {
			close(thirdFetch)
			return nil, nil
		}).After(mark3)
	store.EXPECT().MarkMessagesRead(gomock.Any(), selection).Return(0, nil).After(get3).AnyTimes()
	store.EXPECT().GetMessages(gomock.Any(), selection).Return(nil, nil).After(get3).AnyTimes()

	synchronizer.Start(context.Background())
	defer synchronizer.Stop()
	req.NoError(synchronizer.Select("u1@x.com", "P1"))

	select {
	case <-thirdFetch:
	case <-time.After(time.Second):
		req.FailNow("Message timer should have ticked twice after the selection")
	}

	// The list keeps refreshing on its own timer while the conversation is open
	listed := len(view.Conversations())
	req.Eventually(func() bool { return len(view.Conversations()) >= listed+3 }, time.Second, 5*time.Millisecond)
	state, _ := synchronizer.State()
	req.Equal(ConversationActive, state)
	req.GreaterOrEqual(monitoring.GetLatest().MessagePolls, uint64(3))
}

func TestSynchronizer_Timers_Stop_Reaching_The_View_For_A_Left_Conversation(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	view := &recordingView{}
	synchronizer, _ := newSynchronizerWithIntervals(store, view, 10*time.Millisecond)
	first := domain.NewSelection(self, "u1@x.com", "P1")
	second := domain.NewSelection(self, "u2@x.com", "P1")

	store.EXPECT().GetConversationsForUser(gomock.Any(), self).Return(nil, nil).AnyTimes()
	store.EXPECT().MarkMessagesRead(gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()
	store.EXPECT().GetMessages(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	synchronizer.Start(context.Background())
	defer synchronizer.Stop()

	// Given the first conversation refreshed by its timer
	req.NoError(synchronizer.Select("u1@x.com", "P1"))
	req.Eventually(func() bool { return view.MessagesFor(first) >= 3 }, time.Second, 5*time.Millisecond)

	// When another conversation is selected
	req.NoError(synchronizer.Select("u2@x.com", "P1"))
	shownFirst := view.MessagesFor(first)
	req.Eventually(func() bool { return view.MessagesFor(second) >= 3 }, time.Second, 5*time.Millisecond)

	// Then the first one never reaches the view again
	req.Equal(shownFirst, view.MessagesFor(first))

	// When nothing is selected anymore
	synchronizer.Deselect()
	shownSecond := view.MessagesFor(second)
	listed := len(view.Conversations())
	req.Eventually(func() bool { return len(view.Conversations()) >= listed+3 }, time.Second, 5*time.Millisecond)

	// Then only the list kept refreshing
	req.Equal(shownSecond, view.MessagesFor(second))
	req.Equal(shownFirst, view.MessagesFor(first))
}

func TestSynchronizer_Superseded_List_Failure_Is_Not_Shown(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	view := &recordingView{}
	synchronizer, monitoring := newSynchronizer(store, view)
	release := make(chan struct{})
	fetching := make(chan struct{})
	newer := []domain.Conversation{{UnreadCount: 1}}

	gomock.InOrder(
		store.EXPECT().GetConversationsForUser(gomock.Any(), self).DoAndReturn(
			func(ctx context.Context, _ string) ([]domain.Conversation, error) {
				close(fetching)
				<-release
				return nil, stderrors.New("deadline exceeded")
			}),
		store.EXPECT().GetConversationsForUser(gomock.Any(), self).Return(newer, nil),
	)

	done := make(chan struct{})
	go func() {
		synchronizer.refreshConversations(context.Background())
		close(done)
	}()
	<-fetching

	// When the older request fails after a later one was applied
	synchronizer.refreshConversations(context.Background())
	close(release)
	<-done

	// Then its failure is discarded with it
	req.Empty(view.Errors())
	req.Equal([][]domain.Conversation{newer}, view.Conversations())
	req.Equal(uint64(1), monitoring.GetLatest().StaleDiscards)
	req.Zero(monitoring.GetLatest().PollFailures)
}

func TestSynchronizer_Mark_Read_Failure_Of_A_Left_Conversation_Is_Not_Shown(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	view := &recordingView{}
	synchronizer, monitoring := newSynchronizer(store, view)
	selection := domain.NewSelection(self, "u1@x.com", "P1")

	store.EXPECT().GetConversationsForUser(gomock.Any(), self).Return(nil, nil).AnyTimes()
	gomock.InOrder(
		store.EXPECT().MarkMessagesRead(gomock.Any(), selection).Return(0, nil),
		store.EXPECT().GetMessages(gomock.Any(), selection).Return(nil, nil),
		store.EXPECT().MarkMessagesRead(gomock.Any(), selection).Return(0, stderrors.New("unavailable")),
	)
	store.EXPECT().GetMessages(gomock.Any(), gomock.Any()).Times(0)

	synchronizer.Start(context.Background())
	defer synchronizer.Stop()
	req.NoError(synchronizer.Select("u1@x.com", "P1"))
	synchronizer.mu.Lock()
	generation := synchronizer.generation
	synchronizer.mu.Unlock()

	// When a tick issued for the conversation fails once it was left
	synchronizer.Deselect()
	synchronizer.refreshMessages(context.Background(), generation, selection)

	// Then nothing is shown
	req.Empty(view.Errors())
	req.Len(view.Messages(), 1)
	req.Zero(monitoring.GetLatest().PollFailures)
}
