package relaycmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hollyfell/vaultrelay/internal/configutil"
	"github.com/hollyfell/vaultrelay/internal/keymutex"
	"github.com/hollyfell/vaultrelay/internal/logutil"
	"github.com/hollyfell/vaultrelay/internal/relay"
	"github.com/hollyfell/vaultrelay/internal/runtimestate"
	"github.com/hollyfell/vaultrelay/internal/sessionstore"
	"github.com/hollyfell/vaultrelay/internal/statepaths"
	"github.com/hollyfell/vaultrelay/internal/vault"
)

const (
	setupPromptText    = "Please, send me your Obsidian Webhook link"
	capturedReplyText  = "Thank you! Your webhook link is saved. Further messages will be re-sent to your Obsidian vault."
	forwardedReplyText = "Message sent to your Obsidian vault"
)

type relayJob struct {
	EventID  string
	ChatID   int64
	ChatType string
	Msg      *telegramMessage
}

type chatWorker struct {
	Jobs chan relayJob
}

// botAPI is the slice of the Telegram client the runtime needs. Tests
// substitute a fake.
type botAPI interface {
	sendMessage(ctx context.Context, chatID int64, text string, replyToMessageID int64) (int64, error)
	deleteMessage(ctx context.Context, chatID, messageID int64) error
}

// New returns the serve command: long-poll Telegram, route each message
// through the per-sender session machine, and forward notes to the sender's
// Obsidian webhook.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram to Obsidian relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(configutil.FlagOrViperString(cmd, "telegram-bot-token", "telegram.bot_token"))
			if token == "" {
				return fmt.Errorf("missing telegram.bot_token (set via --telegram-bot-token or VAULTRELAY_TELEGRAM_BOT_TOKEN)")
			}

			baseURL := strings.TrimSpace(configutil.FlagOrViperString(cmd, "telegram-base-url", "telegram.base_url"))
			if baseURL == "" {
				baseURL = "https://api.telegram.org"
			}

			allowed := make(map[int64]bool)
			for _, s := range configutil.FlagOrViperStringArray(cmd, "telegram-allowed-chat-id", "telegram.allowed_chat_ids") {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				id, err := strconv.ParseInt(s, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid telegram.allowed_chat_ids entry %q: %w", s, err)
				}
				allowed[id] = true
			}

			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			pollTimeout := configutil.FlagOrViperDuration(cmd, "telegram-poll-timeout", "telegram.poll_timeout")
			if pollTimeout <= 0 {
				pollTimeout = 30 * time.Second
			}
			forwardTimeout := configutil.FlagOrViperDuration(cmd, "forward-timeout", "telegram.forward_timeout")
			if forwardTimeout <= 0 {
				forwardTimeout = 30 * time.Second
			}
			maxConc := configutil.FlagOrViperInt(cmd, "max-concurrency", "telegram.max_concurrency")
			if maxConc <= 0 {
				maxConc = 3
			}
			sem := make(chan struct{}, maxConc)

			trailer := strings.TrimSpace(configutil.FlagOrViperString(cmd, "vault-trailer", "vault.trailer"))
			if trailer == "" {
				trailer = vault.DefaultTrailer
			}
			confirmDeleteAfter := configutil.FlagOrViperDuration(cmd, "confirm-delete-after", "vault.confirm_delete_after")
			if confirmDeleteAfter <= 0 {
				confirmDeleteAfter = 3 * time.Second
			}

			var store sessionstore.Store
			if configutil.FlagOrViperBool(cmd, "ephemeral", "") {
				store = sessionstore.NewMem()
			} else {
				bolt, err := sessionstore.OpenBolt(statepaths.SessionDBPath())
				if err != nil {
					return fmt.Errorf("open session store: %w", err)
				}
				store = bolt
			}
			defer func() { _ = store.Close() }()

			runtimeStore, err := runtimestate.NewStore(statepaths.RuntimeDir())
			if err != nil {
				return fmt.Errorf("init runtime state store: %w", err)
			}
			snapshot, snapshotFound, err := runtimeStore.Load()
			if err != nil {
				return fmt.Errorf("load runtime state: %w", err)
			}
			offset := int64(0)
			if snapshotFound {
				offset = snapshot.TelegramOffset
				logger.Info("relay_runtime_state_loaded", "offset", offset)
			}

			httpClient := &http.Client{Timeout: 60 * time.Second}
			api := newTelegramAPI(httpClient, baseURL, token)

			me, err := api.getMe(cmd.Context())
			if err != nil {
				return err
			}

			rt := &relayRuntime{
				logger:             logger,
				bot:                api,
				store:              store,
				forwarder:          vault.NewForwarder(&http.Client{}, trailer),
				locks:              keymutex.New(),
				botUser:            me.Username,
				botID:              me.ID,
				forwardTimeout:     forwardTimeout,
				confirmDeleteAfter: confirmDeleteAfter,
			}

			var (
				mu       sync.Mutex
				workers  = make(map[int64]*chatWorker)
				inFlight sync.WaitGroup
			)
			getOrStartWorkerLocked := func(chatID int64) *chatWorker {
				if w, ok := workers[chatID]; ok && w != nil {
					return w
				}
				w := &chatWorker{Jobs: make(chan relayJob, 16)}
				workers[chatID] = w

				go func(w *chatWorker) {
					for job := range w.Jobs {
						// Global concurrency limit.
						sem <- struct{}{}
						rt.handleMessage(context.Background(), job)
						<-sem
						inFlight.Done()
					}
				}(w)

				return w
			}
			// Accepted jobs still finish after the poll loop stops.
			drain := func() {
				inFlight.Wait()
				rt.timers.Wait()
			}

			logger.Info("relay_start",
				"base_url", baseURL,
				"bot_username", me.Username,
				"bot_id", me.ID,
				"poll_timeout", pollTimeout.String(),
				"forward_timeout", forwardTimeout.String(),
				"max_concurrency", maxConc,
				"confirm_delete_after", confirmDeleteAfter.String(),
				"allowed_chats", len(allowed),
			)

			baseCtx := cmd.Context()
			if baseCtx == nil {
				baseCtx = context.Background()
			}
			pollCtx, stop := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			for {
				updates, nextOffset, err := api.getUpdates(pollCtx, offset, pollTimeout)
				if err != nil {
					if errors.Is(err, context.Canceled) || pollCtx.Err() != nil {
						logger.Info("relay_stop", "reason", "context_canceled")
						drain()
						return nil
					}
					if isTelegramPollTimeoutError(err) {
						logger.Debug("telegram_get_updates_timeout", "error", err.Error())
					} else {
						logger.Warn("telegram_get_updates_error", "error", err.Error())
					}
					time.Sleep(1 * time.Second)
					continue
				}
				offsetChanged := nextOffset != offset
				offset = nextOffset

				for _, u := range updates {
					msg := u.Message
					if msg == nil || msg.Chat == nil {
						continue
					}
					chatID := msg.Chat.ID
					if len(allowed) > 0 && !allowed[chatID] {
						logger.Warn("relay_unauthorized_chat", "chat_id", chatID)
						if isDirectChat(msg.Chat.Type) {
							_, _ = api.sendMessage(context.Background(), chatID, "unauthorized", 0)
						}
						continue
					}
					if msg.From != nil && msg.From.IsBot {
						continue
					}

					mu.Lock()
					w := getOrStartWorkerLocked(chatID)
					mu.Unlock()

					job := relayJob{
						EventID:  uuid.NewString(),
						ChatID:   chatID,
						ChatType: strings.ToLower(strings.TrimSpace(msg.Chat.Type)),
						Msg:      msg,
					}
					logger.Info("relay_enqueued",
						"event_id", job.EventID,
						"chat_id", chatID,
						"type", job.ChatType,
						"message_id", msg.MessageID,
						"from", telegramDisplayName(msg.From),
						"text_len", len(messageTextOrCaption(msg)),
					)
					inFlight.Add(1)
					select {
					case <-pollCtx.Done():
						inFlight.Done()
						logger.Info("relay_stop", "reason", "context_canceled")
						drain()
						return nil
					case w.Jobs <- job:
					}
				}

				if offsetChanged {
					snap := runtimestate.Snapshot{
						TelegramOffset: offset,
						UpdatedAt:      time.Now().UTC(),
					}
					if err := runtimeStore.Save(snap); err != nil {
						return fmt.Errorf("persist runtime state: %w", err)
					}
				}
			}
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token.")
	cmd.Flags().String("telegram-base-url", "", "Telegram API base URL (for tests and proxies).")
	cmd.Flags().StringArray("telegram-allowed-chat-id", nil, "Allowed chat id(s). If empty, allows all.")
	cmd.Flags().Duration("telegram-poll-timeout", 30*time.Second, "Long polling timeout for getUpdates.")
	cmd.Flags().Duration("forward-timeout", 30*time.Second, "Per-note webhook delivery timeout.")
	cmd.Flags().Int("max-concurrency", 3, "Max number of chats processed concurrently.")
	cmd.Flags().String("vault-trailer", "", "Tag line appended to every forwarded note.")
	cmd.Flags().Duration("confirm-delete-after", 3*time.Second, "How long group forward confirmations stay before deletion.")
	cmd.Flags().Bool("ephemeral", false, "Keep sessions in memory instead of the bolt file.")
	return cmd
}

// relayRuntime carries everything one message needs to be routed. It is
// shared by all chat workers; per-sender ordering comes from the key mutex.
type relayRuntime struct {
	logger             *slog.Logger
	bot                botAPI
	store              sessionstore.Store
	forwarder          *vault.Forwarder
	locks              *keymutex.KeyMutex
	botUser            string
	botID              int64
	forwardTimeout     time.Duration
	confirmDeleteAfter time.Duration

	// timers tracks detached confirmation-deletion timers so tests can
	// wait for them.
	timers sync.WaitGroup
}

func (r *relayRuntime) handleMessage(ctx context.Context, job relayJob) {
	msg := job.Msg
	if msg == nil {
		return
	}
	text := strings.TrimSpace(messageTextOrCaption(msg))

	fromUserID := int64(0)
	if msg.From != nil && !msg.From.IsBot {
		fromUserID = msg.From.ID
	}
	key, err := relay.IdentityKey(fromUserID, job.ChatID)
	if err != nil {
		r.logger.Warn("relay_identity_unresolved", "event_id", job.EventID, "chat_id", job.ChatID, "error", err.Error())
		return
	}

	unlock := r.locks.Lock(key)
	rec, err := r.store.Get(ctx, key)
	if err != nil {
		unlock()
		r.logger.Error("relay_session_load_error", "event_id", job.EventID, "identity", key, "error", err.Error())
		return
	}
	dirty := observeSender(&rec, msg.From)

	in := buildInbound(msg, job.ChatType, r.botUser, r.botID)
	dec := relay.Classify(rec, in)
	next, action := relay.Transition(rec, dec, text)
	if next != rec {
		dirty = true
		rec = next
	}
	if dirty {
		if err := r.store.Put(ctx, key, rec); err != nil {
			unlock()
			r.logger.Error("relay_session_save_error", "event_id", job.EventID, "identity", key, "error", err.Error())
			return
		}
	}
	unlock()

	r.logger.Debug("relay_routed",
		"event_id", job.EventID,
		"identity", key,
		"decision", string(dec),
		"action", string(action),
		"state", string(rec.State()),
	)

	isGroup := isGroupChat(job.ChatType)
	replyTo := int64(0)
	if isGroup {
		replyTo = msg.MessageID
	}

	switch action {
	case relay.ActionReplySetup:
		r.reply(ctx, job, setupPromptText, replyTo)
	case relay.ActionReplyCaptured:
		r.reply(ctx, job, capturedReplyText, replyTo)
	case relay.ActionForward:
		r.forward(ctx, job, rec.WebhookLink, forwardText(msg, r.botUser), replyTo, isGroup)
	}
}

func (r *relayRuntime) reply(ctx context.Context, job relayJob, text string, replyTo int64) int64 {
	id, err := r.bot.sendMessage(ctx, job.ChatID, text, replyTo)
	if err != nil {
		r.logger.Warn("telegram_send_error", "event_id", job.EventID, "chat_id", job.ChatID, "error", err.Error())
		return 0
	}
	return id
}

func (r *relayRuntime) forward(ctx context.Context, job relayJob, link, text string, replyTo int64, isGroup bool) {
	if strings.TrimSpace(text) == "" {
		r.logger.Debug("relay_forward_skipped", "event_id", job.EventID, "chat_id", job.ChatID, "reason", "empty_text")
		return
	}

	fwdCtx, cancel := context.WithTimeout(ctx, r.forwardTimeout)
	err := r.forwarder.Forward(fwdCtx, link, text)
	cancel()
	if err != nil {
		r.logger.Warn("relay_forward_error", "event_id", job.EventID, "chat_id", job.ChatID, "error", err.Error())
		r.reply(ctx, job, "Request error: "+err.Error(), replyTo)
		return
	}
	r.logger.Info("relay_forwarded", "event_id", job.EventID, "chat_id", job.ChatID, "title", vault.NoteTitle(text))

	confirmationID := r.reply(ctx, job, forwardedReplyText, replyTo)
	if !isGroup || confirmationID == 0 {
		return
	}
	// In groups the confirmation is noise; delete it after a short delay.
	r.timers.Add(1)
	go func() {
		defer r.timers.Done()
		time.Sleep(r.confirmDeleteAfter)
		delCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.bot.deleteMessage(delCtx, job.ChatID, confirmationID); err != nil {
			r.logger.Debug("telegram_delete_error", "event_id", job.EventID, "chat_id", job.ChatID, "message_id", confirmationID, "error", err.Error())
		}
	}()
}

// observeSender refreshes the profile fields stored with the session so the
// vault side can attribute notes. Returns true when anything changed.
func observeSender(rec *relay.SessionRecord, from *telegramUser) bool {
	if from == nil || from.IsBot || from.ID == 0 {
		return false
	}
	changed := false
	if rec.UserID != from.ID {
		rec.UserID = from.ID
		changed = true
	}
	if u := strings.TrimSpace(from.Username); u != "" && rec.Username != u {
		rec.Username = u
		changed = true
	}
	if f := strings.TrimSpace(from.FirstName); f != "" && rec.FirstName != f {
		rec.FirstName = f
		changed = true
	}
	if l := strings.TrimSpace(from.LastName); l != "" && rec.LastName != l {
		rec.LastName = l
		changed = true
	}
	return changed
}
