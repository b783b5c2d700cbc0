package chat

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/chuongle2003/chorus-cli/internal/api"
	"github.com/chuongle2003/chorus-cli/internal/models"
	"github.com/chuongle2003/chorus-cli/internal/shared"
)

// ChatAPI is the REST surface a session depends on. *api.Client
// satisfies it.
type ChatAPI interface {
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	StartConversation(ctx context.Context, partnerID string) (models.Conversation, error)
	MarkRead(ctx context.Context, conversationID string) error
	ConversationMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	CreateMessage(ctx context.Context, input api.CreateMessageInput) (models.Message, error)
	DeleteMessage(ctx context.Context, messageID int64) error
	SearchUsers(ctx context.Context, term string) ([]models.User, error)
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Identity supplies the signed-in user and their access token.
// *api.TokenStore satisfies it.
type Identity interface {
	AccessToken() (string, error)
	User() (models.User, error)
}

// CacheWriter is the optional write-through to the offline cache.
// Failures are logged, never surfaced; the cache is best effort.
type CacheWriter interface {
	SaveConversation(conv models.Conversation) error
	SaveMessage(msg models.Message) error
	ResetUnread(conversationID string) error
}

// SessionOpts configures a session.
type SessionOpts struct {
	API      ChatAPI
	Identity Identity
	// WSBase is the socket endpoint root, e.g. "wss://host/ws/chat".
	WSBase         string
	ReconnectDelay time.Duration
	SearchDebounce time.Duration
	// SendRate throttles outbound sends; SendBurst is the bucket size.
	SendRate  float64
	SendBurst int
	Cache     CacheWriter
	Logger    *log.Logger
}

// Session ties the connection, stores and directory together and fans
// everything out on a single event channel.
type Session struct {
	api       ChatAPI
	identity  Identity
	conn      *Conn
	store     *MessageStore
	roster    *RosterCache
	directory *Directory
	limiter   *rate.Limiter
	cache     CacheWriter
	logger    *log.Logger
	events    chan Event

	mu      sync.Mutex
	user    models.User
	active  string
	loading bool
	pending []models.Message
}

// NewSession wires a session from its options.
func NewSession(opts SessionOpts) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if opts.SendRate <= 0 {
		opts.SendRate = 5
	}
	if opts.SendBurst <= 0 {
		opts.SendBurst = 10
	}

	s := &Session{
		api:      opts.API,
		identity: opts.Identity,
		store:    NewMessageStore(),
		roster:   NewRosterCache(),
		limiter:  rate.NewLimiter(rate.Limit(opts.SendRate), opts.SendBurst),
		cache:    opts.Cache,
		logger:   logger,
		events:   make(chan Event, 64),
	}
	s.directory = NewDirectory(opts.API, opts.SearchDebounce, func(users []models.User) {
		s.emit(Event{Kind: EventSearchResults, Users: users})
	}, logger)
	s.conn = NewConn(opts.WSBase, opts.Identity, opts.ReconnectDelay, ConnCallbacks{
		OnMessage:     s.handleMessage,
		OnServerError: func(text string) { s.emit(Event{Kind: EventServerError, Text: text}) },
		OnState:       func(st State) { s.emit(Event{Kind: EventConnState, State: st}) },
		OnNotice:      func(text string) { s.emit(Event{Kind: EventNotice, Text: text}) },
		OnTerminal: func(code int, text string) {
			s.emit(Event{Kind: EventTerminal, Code: code, Text: text})
		},
	}, logger)
	return s
}

// Start resolves the signed-in user and loads the roster.
func (s *Session) Start(ctx context.Context) error {
	user, err := s.identity.User()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	return s.RefreshRoster(ctx)
}

// Stop unbinds the socket and cancels pending searches. The event
// channel stays open; readers stop on their own context.
func (s *Session) Stop() {
	s.conn.Unbind()
	s.directory.Cancel()
}

// Events is the session's notification stream.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Store returns the active conversation's message store.
func (s *Session) Store() *MessageStore { return s.store }

// Roster returns the conversation cache.
func (s *Session) Roster() *RosterCache { return s.roster }

// Directory returns the debounced user search.
func (s *Session) Directory() *Directory { return s.directory }

// ConnState returns the socket lifecycle state.
func (s *Session) ConnState() State { return s.conn.State() }

// CurrentUser returns the signed-in user captured at Start.
func (s *Session) CurrentUser() models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// ActiveConversation returns the open conversation id, or "".
func (s *Session) ActiveConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// RefreshRoster reloads the conversation list over REST.
func (s *Session) RefreshRoster(ctx context.Context) error {
	convs, err := s.api.ListConversations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load conversations: %w", err)
	}
	s.roster.ReplaceAll(convs)
	s.cacheConversations(convs)
	s.emit(Event{Kind: EventRosterUpdated})
	return nil
}

// Open makes a conversation active: binds the socket and loads history.
// Frames arriving while the load is in flight are buffered and replayed
// after the wholesale replace so none are dropped.
func (s *Session) Open(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	s.active = conversationID
	s.loading = true
	s.pending = nil
	s.mu.Unlock()

	s.store.Replace(conversationID, nil)
	s.conn.Bind(conversationID)

	msgs, err := s.api.ConversationMessages(ctx, conversationID)

	s.mu.Lock()
	if s.active != conversationID {
		// a later Open superseded this load
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.pending = nil
		s.loading = false
		s.mu.Unlock()
		return fmt.Errorf("failed to load history: %w", err)
	}
	// Replace and replay before clearing the loading gate: a frame racing
	// the replace either buffers into pending or appends after it.
	s.store.Replace(conversationID, msgs)
	for _, m := range s.pending {
		s.store.Append(m)
	}
	s.pending = nil
	s.loading = false
	s.mu.Unlock()

	s.cacheMessages(msgs)

	s.emit(Event{Kind: EventHistoryLoaded})
	return nil
}

// handleMessage is the Conn inbound callback.
func (s *Session) handleMessage(msg models.Message) {
	s.mu.Lock()
	active := s.active
	user := s.user
	buffered := false
	if s.loading && s.belongsToActiveLocked(msg) {
		s.pending = append(s.pending, msg)
		buffered = true
	}
	s.mu.Unlock()

	if !buffered && (msg.ConversationID == "" || msg.ConversationID == active) {
		if s.store.Append(msg) {
			local := msg
			s.emit(Event{Kind: EventMessageReceived, Message: &local})
		}
	}

	entry := s.roster.UpsertFromMessage(msg, user.ID, active)
	s.cacheConversations([]models.Conversation{entry})
	s.cacheMessages([]models.Message{msg})
	s.emit(Event{Kind: EventRosterUpdated})
}

func (s *Session) belongsToActiveLocked(msg models.Message) bool {
	return msg.ConversationID == "" || msg.ConversationID == s.active
}

// SendText sends a plain text message over the socket.
func (s *Session) SendText(ctx context.Context, content string) error {
	if content == "" {
		return fmt.Errorf("%w: empty message", shared.ErrInvalidInput)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.conn.Send(content, models.TypeText, nil)
}

// ShareSong sends a song share with an optional note.
func (s *Session) ShareSong(ctx context.Context, songID, note string) error {
	if songID == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrInvalidInput)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.conn.Send(note, models.TypeSong, &SendExtra{SongID: songID})
}

// SharePlaylist sends a playlist share with an optional note.
func (s *Session) SharePlaylist(ctx context.Context, playlistID, note string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.conn.Send(note, models.TypePlaylist, &SendExtra{PlaylistID: playlistID})
}

// SendVoiceNote uploads a recording and sends it over REST. Media
// messages go through the create endpoint; the socket echoes them back.
func (s *Session) SendVoiceNote(ctx context.Context, receiverID, filename string, r io.Reader) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	url, err := s.api.Upload(ctx, filename, r)
	if err != nil {
		return fmt.Errorf("failed to upload voice note: %w", err)
	}

	msg, err := s.api.CreateMessage(ctx, api.CreateMessageInput{
		ReceiverID: receiverID,
		Type:       models.TypeVoiceNote,
		VoiceNote:  url,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if msg.ConversationID == "" || msg.ConversationID == active {
		if s.store.Append(msg) {
			local := msg
			s.emit(Event{Kind: EventMessageReceived, Message: &local})
		}
	}
	s.cacheMessages([]models.Message{msg})
	return nil
}

// DeleteMessage removes a message on the server and in the local store.
func (s *Session) DeleteMessage(ctx context.Context, messageID int64) error {
	if err := s.api.DeleteMessage(ctx, messageID); err != nil {
		return err
	}
	if s.store.Remove(messageID) {
		s.emit(Event{Kind: EventMessageDeleted, MessageID: messageID})
	}
	return nil
}

// MarkRead clears the unread state of the active conversation, server
// and local stores both.
func (s *Session) MarkRead(ctx context.Context) error {
	s.mu.Lock()
	active := s.active
	user := s.user
	s.mu.Unlock()
	if active == "" {
		return shared.ErrConversationNotFound
	}

	if err := s.api.MarkRead(ctx, active); err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	s.store.MarkAllRead(user.ID)
	s.roster.ResetUnread(active)
	if s.cache != nil {
		if err := s.cache.ResetUnread(active); err != nil {
			s.logger.Warn("cache write failed", "error", err)
		}
	}
	s.emit(Event{Kind: EventRosterUpdated})
	return nil
}

// StartConversation opens (or reuses) a conversation with a partner.
func (s *Session) StartConversation(ctx context.Context, partnerID string) (models.Conversation, error) {
	conv, err := s.roster.StartOrReuse(ctx, partnerID, s.api.StartConversation)
	if err != nil {
		return models.Conversation{}, fmt.Errorf("failed to start conversation: %w", err)
	}
	s.cacheConversations([]models.Conversation{conv})
	s.emit(Event{Kind: EventRosterUpdated})
	return conv, nil
}

// Search runs the debounced user search.
func (s *Session) Search(ctx context.Context, term string) {
	s.directory.Search(ctx, term)
}

// emit never blocks: when the channel is full the event is dropped, and
// readers resynchronize from the stores.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Debug("event channel full, dropping", "kind", ev.Kind)
	}
}

func (s *Session) cacheConversations(convs []models.Conversation) {
	if s.cache == nil {
		return
	}
	for _, c := range convs {
		if err := s.cache.SaveConversation(c); err != nil {
			s.logger.Warn("cache write failed", "conversation", c.ID, "error", err)
		}
	}
}

func (s *Session) cacheMessages(msgs []models.Message) {
	if s.cache == nil {
		return
	}
	for _, m := range msgs {
		if err := s.cache.SaveMessage(m); err != nil {
			s.logger.Warn("cache write failed", "message", m.ID, "error", err)
		}
	}
}
