//go:generate go run go.uber.org/mock/mockgen -source=synchronizer.go -destination=../mocks/mock_synchronizer.go -package=mocks
package runtime

import (
	"context"
	stderrors "errors"
	"estate-desk/contract"
	"estate-desk/domain"
	"estate-desk/errors"
	"estate-desk/observability"
	"estate-desk/projection"
	"estate-desk/runtime/workers"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	DefaultListInterval    = 3 * time.Second
	DefaultMessageInterval = 3 * time.Second
)

// MessageStore is everything the synchronizer reads and writes.
// Satisfied in process by services.MessageService and remotely by the gRPC client.
type MessageStore interface {
	GetConversationsForUser(ctx context.Context, email string) ([]domain.Conversation, error)
	GetMessages(ctx context.Context, selection domain.Selection) ([]domain.Message, error)
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	MarkMessagesRead(ctx context.Context, selection domain.Selection) (int, error)
}

// View receives every applied response. Calls are serialized and made
// while the synchronizer holds its lock: a View must not call back into it.
type View interface {
	ShowConversations(conversations []domain.Conversation)
	ShowMessages(selection domain.Selection, messages []domain.Message)
	ShowError(err error)
}

type SyncState int

const (
	NoConversationSelected SyncState = iota
	ConversationActive
)

func (s SyncState) String() string {
	if s == ConversationActive {
		return "ConversationActive"
	}
	return "NoConversationSelected"
}

type SyncConfig struct {
	ListInterval    time.Duration
	MessageInterval time.Duration
}

// Synchronizer keeps a client view of one user's conversations current by polling.
//
// The conversation list is refreshed on its own timer for the whole session.
// Selecting a conversation starts a second, independent poller for its messages.
// Responses are applied only when still relevant:
//   - a messages response carries the selection generation it was issued for,
//     and the per generation sequence number of its request;
//   - a list response carries the request sequence number, the last issued wins.
type Synchronizer struct {
	log        *slog.Logger
	self       string
	store      MessageStore
	view       View
	supervisor contract.ISupervisor
	monitoring *observability.MonitoringManager
	config     SyncConfig

	mu     sync.Mutex
	runCtx context.Context
	cancel context.CancelFunc

	listTrigger chan struct{}
	listIssued  uint64
	listApplied uint64

	selection       *domain.Selection
	generation      uint64
	messageIssued   uint64
	messageApplied  uint64
	timeline        *projection.Timeline
	messageTrigger  chan struct{}
	cancelSelection context.CancelFunc
	draft           string
}

func NewSynchronizer(log *slog.Logger, self string, store MessageStore, view View,
	supervisor *workers.Supervisor, monitoring *observability.MonitoringManager, config SyncConfig) *Synchronizer {
	if config.ListInterval <= 0 {
		config.ListInterval = DefaultListInterval
	}
	if config.MessageInterval <= 0 {
		config.MessageInterval = DefaultMessageInterval
	}
	return &Synchronizer{
		log:         log,
		self:        domain.NormalizeEmail(self),
		store:       store,
		view:        view,
		supervisor:  supervisor,
		monitoring:  monitoring,
		config:      config,
		listTrigger: make(chan struct{}, 1),
	}
}

// Start loads the conversation list once and keeps refreshing it until Stop.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.runCtx != nil {
		s.mu.Unlock()
		return
	}
	s.runCtx, s.cancel = context.WithCancel(ctx)
	runCtx := s.runCtx
	s.mu.Unlock()

	s.refreshConversations(runCtx)
	s.supervisor.Start(runCtx, workers.NewPoller(s.config.ListInterval, s.listTrigger, s.refreshConversations))
}

// Stop cancels both pollers and waits for them to return.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.runCtx, s.cancel = nil, nil
	s.resetSelection()
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.supervisor.Wait()
}

// Select makes a conversation active: its unread messages are marked as read,
// fetched and shown right away, then refreshed on the message timer.
// Any previous selection is cancelled, its in flight responses are discarded.
func (s *Synchronizer) Select(other, propertyID string) error {
	selection := domain.NewSelection(s.self, other, propertyID)
	if selection.Other == selection.Self {
		return fmt.Errorf("%w: %s", errors.ErrSelfConversation, selection.Self)
	}

	s.mu.Lock()
	if s.runCtx == nil {
		s.mu.Unlock()
		return errors.ErrSyncNotStarted
	}
	s.resetSelection()
	s.selection = &selection
	s.timeline = projection.NewTimeline(selection)
	trigger := make(chan struct{}, 1)
	s.messageTrigger = trigger
	ctx, cancel := context.WithCancel(s.runCtx)
	s.cancelSelection = cancel
	generation := s.generation
	s.mu.Unlock()

	s.log.Debug("Conversation selected", "conversation", selection.Key().String(), "generation", generation)
	s.refreshMessages(ctx, generation, selection)
	s.nudgeList()
	s.supervisor.Start(ctx, workers.NewPoller(s.config.MessageInterval, trigger, func(ctx context.Context) {
		s.refreshMessages(ctx, generation, selection)
	}))
	return nil
}

// Deselect goes back to NoConversationSelected.
func (s *Synchronizer) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetSelection()
}

// resetSelection must be called with the lock held.
func (s *Synchronizer) resetSelection() {
	if s.cancelSelection != nil {
		s.cancelSelection()
		s.cancelSelection = nil
	}
	s.generation++
	s.messageIssued = 0
	s.messageApplied = 0
	s.selection = nil
	s.timeline = nil
	s.messageTrigger = nil
	s.draft = ""
}

// State returns the current state and, when active, the selection.
func (s *Synchronizer) State() (SyncState, domain.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return NoConversationSelected, domain.Selection{}
	}
	return ConversationActive, *s.selection
}

// Draft returns the content kept after a failed send.
func (s *Synchronizer) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Send writes a message to the active conversation then fetches the conversation
// so the view shows it. The draft is kept until the write succeeded.
func (s *Synchronizer) Send(ctx context.Context, content string) (domain.Message, error) {
	s.mu.Lock()
	if s.selection == nil {
		s.mu.Unlock()
		return domain.Message{}, errors.ErrNoActiveConversation
	}
	selection, generation := *s.selection, s.generation
	s.draft = content
	s.mu.Unlock()

	if strings.TrimSpace(content) == "" {
		return domain.Message{}, errors.ErrEmptyMessageContent
	}

	message, err := s.store.SendMessage(ctx, domain.SendMessageCommand{
		Content:       content,
		SenderEmail:   selection.Self,
		ReceiverEmail: selection.Other,
		PropertyID:    selection.PropertyID,
	})
	if err != nil {
		s.monitoring.IncrSendFailures()
		s.log.Warn("Message not sent", "conversation", selection.Key().String(), "error", err)
		return domain.Message{}, err
	}

	s.mu.Lock()
	if s.generation == generation {
		s.draft = ""
	}
	s.mu.Unlock()

	s.fetchMessages(ctx, generation, selection)
	s.nudgeList()
	return message, nil
}

// Nudge asks for an immediate refresh, typically after a push hint.
// The list is always refreshed, the messages only when key is the active conversation.
func (s *Synchronizer) Nudge(key domain.ConversationKey) {
	s.nudgeList()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil || s.selection.Key() != key {
		return
	}
	select {
	case s.messageTrigger <- struct{}{}:
	default:
	}
}

func (s *Synchronizer) nudgeList() {
	select {
	case s.listTrigger <- struct{}{}:
	default:
	}
}

func (s *Synchronizer) refreshConversations(ctx context.Context) {
	s.monitoring.IncrListPolls()

	s.mu.Lock()
	s.listIssued++
	seq := s.listIssued
	s.mu.Unlock()

	conversations, err := s.store.GetConversationsForUser(ctx, s.self)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.listApplied {
		s.monitoring.IncrStaleDiscards()
		s.log.Debug("Stale conversation list discarded", "seq", seq, "applied", s.listApplied)
		return
	}
	if err != nil {
		s.reportPollFailure(ctx, "conversations", err)
		return
	}
	s.listApplied = seq
	s.view.ShowConversations(conversations)
}

// refreshMessages marks the conversation as read before fetching it.
func (s *Synchronizer) refreshMessages(ctx context.Context, generation uint64, selection domain.Selection) {
	s.monitoring.IncrMessagePolls()
	if _, err := s.store.MarkMessagesRead(ctx, selection); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if generation != s.generation {
			s.monitoring.IncrStaleDiscards()
			return
		}
		s.reportPollFailure(ctx, "mark read", err)
		return
	}
	s.fetchMessages(ctx, generation, selection)
}

func (s *Synchronizer) fetchMessages(ctx context.Context, generation uint64, selection domain.Selection) {
	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		return
	}
	s.messageIssued++
	seq := s.messageIssued
	s.mu.Unlock()

	messages, err := s.store.GetMessages(ctx, selection)

	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation || seq <= s.messageApplied {
		s.monitoring.IncrStaleDiscards()
		s.log.Debug("Stale messages discarded", "conversation", selection.Key().String(), "generation", generation)
		return
	}
	if err != nil {
		s.reportPollFailure(ctx, "messages", err)
		return
	}
	s.messageApplied = seq
	if added := s.timeline.Replace(messages); added > 0 {
		s.log.Debug("New messages", "conversation", selection.Key().String(), "count", added)
	}
	s.view.ShowMessages(selection, messages)
}

// reportPollFailure must be called with the lock held.
// Failures caused by our own cancellation are not reported.
func (s *Synchronizer) reportPollFailure(ctx context.Context, what string, err error) {
	if ctx.Err() != nil || stderrors.Is(err, context.Canceled) {
		return
	}
	s.monitoring.IncrPollFailures()
	s.log.Warn("Poll failed", "what", what, "error", err)
	s.view.ShowError(err)
}
