package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/gembot/internal/config"
	"github.com/set-night/gembot/internal/domain"
	"github.com/set-night/gembot/internal/service"
	"github.com/set-night/gembot/internal/telegram"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu      sync.Mutex
	sent    []*bot.SendMessageParams
	copies  []*bot.CopyMessageParams
	files   map[string]string
	fileErr error
}

func (c *fakeClient) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, params)
	return &models.Message{ID: len(c.sent)}, nil
}

func (c *fakeClient) SendChatAction(context.Context, *bot.SendChatActionParams) (bool, error) {
	return true, nil
}

func (c *fakeClient) CopyMessage(_ context.Context, params *bot.CopyMessageParams) (*models.MessageID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.copies = append(c.copies, params)
	return &models.MessageID{ID: 1}, nil
}

func (c *fakeClient) GetFile(_ context.Context, params *bot.GetFileParams) (*models.File, error) {
	if c.fileErr != nil {
		return nil, c.fileErr
	}
	return &models.File{FileID: params.FileID, FilePath: c.files[params.FileID]}, nil
}

func (c *fakeClient) FileDownloadLink(f *models.File) string {
	return "https://files.test/" + f.FilePath
}

func (c *fakeClient) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	for i, p := range c.sent {
		out[i] = p.Text
	}
	return out
}

func (c *fakeClient) last() string {
	texts := c.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type chatCall struct {
	apiKey  string
	history []domain.Turn
	text    string
}

type analyzeCall struct {
	apiKey string
	media  domain.MediaInput
	prompt string
}

type fakeGenerator struct {
	mu       sync.Mutex
	answer   string
	err      error
	chats    []chatCall
	analyses []analyzeCall
}

func (g *fakeGenerator) Chat(_ context.Context, apiKey string, history []domain.Turn, text string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.chats = append(g.chats, chatCall{apiKey: apiKey, history: history, text: text})
	return g.answer, g.err
}

func (g *fakeGenerator) Analyze(_ context.Context, apiKey string, media domain.MediaInput, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.analyses = append(g.analyses, analyzeCall{apiKey: apiKey, media: media, prompt: prompt})
	return g.answer, g.err
}

type fakeFetcher struct {
	data []byte
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, fileURL string) ([]byte, error) {
	f.urls = append(f.urls, fileURL)
	return f.data, f.err
}

type fakeValidator struct {
	valid bool
	err   error
	calls int
}

func (v *fakeValidator) Validate(context.Context, string) (bool, error) {
	v.calls++
	return v.valid, v.err
}

type memoryStore struct {
	mu          sync.Mutex
	credentials map[string]string
	events      []string
	users       map[string]struct{}
	latest      *time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		credentials: make(map[string]string),
		users:       make(map[string]struct{}),
	}
}

func (s *memoryStore) GetCredential(_ context.Context, userHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentials[userHash]
	if !ok {
		return "", domain.ErrCredentialNotFound
	}
	return c, nil
}

func (s *memoryStore) UpsertCredential(_ context.Context, userHash, encrypted string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[userHash] = encrypted
	return nil
}

func (s *memoryStore) RecordUsage(_ context.Context, userHash, event string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	s.users[userHash] = struct{}{}
	s.latest = &at
	return nil
}

func (s *memoryStore) UsageStats(context.Context) (domain.UsageStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.UsageStats{
		TotalEvents: int64(len(s.events)),
		UniqueUsers: int64(len(s.users)),
		LatestAt:    s.latest,
	}, nil
}

func (s *memoryStore) Close() {}

const (
	testChatID  int64 = 100
	testUserID  int64 = 200
	testAdminID int64 = 999
)

type testEnv struct {
	h         *Handler
	cfg       *config.Config
	client    *fakeClient
	gen       *fakeGenerator
	fetcher   *fakeFetcher
	validator *fakeValidator
	store     *memoryStore
	creds     *service.CredentialService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cipher, err := service.NewCipher("test-secret", "test-salt")
	require.NoError(t, err)

	env := &testEnv{
		cfg: &config.Config{
			AdminIDs:           []int64{testAdminID},
			StatsCommand:       "/stats",
			RateLimitPerMinute: 5,
			HistoryMaxTurns:    40,
		},
		client:    &fakeClient{files: make(map[string]string)},
		gen:       &fakeGenerator{answer: "model answer"},
		fetcher:   &fakeFetcher{data: []byte("file-bytes")},
		validator: &fakeValidator{valid: true},
		store:     newMemoryStore(),
	}
	env.creds = service.NewCredentialService(env.store, cipher, env.validator, service.NewValidationCache(config.ValidationCacheDuration))

	env.h = New(Deps{
		Client:        env.client,
		Cfg:           env.cfg,
		Credentials:   env.creds,
		Generator:     env.gen,
		Fetcher:       env.fetcher,
		Conversations: service.NewConversationStore(),
		History:       service.NewHistoryStore(env.cfg.HistoryMaxTurns),
		RateLimiter:   service.NewRateLimiter(env.cfg.RateLimitPerMinute, config.RateLimitWindow),
		TgLogger:      telegram.NewTelegramLogger(env.client, 0, 0, 0),
		BotUsername:   "GemBot",
	})
	return env
}

func (e *testEnv) withCredential(t *testing.T) *testEnv {
	t.Helper()
	require.NoError(t, e.creds.Save(context.Background(), testUserID, "stored-key"))
	return e
}

func (e *testEnv) dispatch(msg *models.Message) {
	if msg.From == nil {
		msg.From = &models.User{ID: testUserID}
	}
	if msg.Chat.ID == 0 {
		msg.Chat = models.Chat{ID: testChatID}
	}
	e.h.Dispatch(context.Background(), nil, &models.Update{Message: msg})
}

func (e *testEnv) send(text string) {
	e.dispatch(&models.Message{Text: text})
}

func (e *testEnv) mode() domain.Mode {
	return e.h.conversations.Get(testChatID)
}
