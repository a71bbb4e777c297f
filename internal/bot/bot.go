package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/mindscope/internal/advice"
	"github.com/xaenox/mindscope/internal/models"
	"github.com/xaenox/mindscope/internal/voice"
	"github.com/xaenox/mindscope/internal/wellness"
	"go.uber.org/zap"
)

const maxDownloadBytes = 20 << 20

type Bot struct {
	api       *tgbotapi.BotAPI
	svc       *wellness.Service
	sessions  *wellness.Sessions
	client    *http.Client
	breathing sync.Map
	logger    *zap.Logger
}

func New(token string, svc *wellness.Service, sessions *wellness.Sessions, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:      api,
		svc:      svc,
		sessions: sessions,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
	}, nil
}

// Start long-polls Telegram until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Telegram bot started", zap.String("username", b.api.Self.UserName))

	queue := newChatQueue(b.handleMessage)
	defer queue.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			queue.Push(ctx, update.Message)
		}
	}
}

func sessionID(chatID int64) string {
	return "tg-" + strconv.FormatInt(chatID, 10)
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	sess := b.sessions.Get(sessionID(message.Chat.ID))

	switch {
	case message.IsCommand():
		b.handleCommand(ctx, sess, message)
	case message.Voice != nil:
		b.handleVoice(ctx, sess, message)
	case len(message.Photo) > 0:
		b.handlePhoto(ctx, sess, message)
	case sess.AwaitingJournal() && strings.TrimSpace(message.Text) != "":
		b.handleJournalEntry(ctx, sess, message)
	case message.Text != "":
		a, err := b.svc.AnalyzeText(ctx, sess, models.SourceChat, message.Text)
		b.replyAnalysis(message, a, err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, sess *wellness.Session, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "analyze":
		text := message.CommandArguments()
		if strings.TrimSpace(text) == "" {
			b.sendMessage(message.Chat.ID, "Usage: /analyze <how you feel>")
			return
		}
		a, err := b.svc.AnalyzeText(ctx, sess, models.SourceText, text)
		b.replyAnalysis(message, a, err)
	case "journal":
		b.handleJournal(sess, message)
	case "mood":
		b.handleMood(ctx, message)
	case "breathe":
		b.handleBreathe(ctx, message)
	case "support":
		b.sendMessage(message.Chat.ID, formatSupport(advice.SupportResources()))
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to MindScope! 🧠
Tell me how you feel and I'll reflect your emotions back to you, with a small suggestion for the moment.

Send a message, a voice note, or a selfie.
Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/analyze <text> - Analyze a piece of text
/journal - Get a journaling prompt for your last emotion
/mood - Show the mood log summary
/breathe - Guided breathing exercise
/support - Mental health helplines

You can also send:
- Text messages
- Voice notes
- Photos of your face`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleVoice(ctx context.Context, sess *wellness.Session, message *tgbotapi.Message) {
	data, err := b.download(ctx, message.Voice.FileID)
	if err != nil {
		b.logger.Error("Failed to download voice note",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't fetch your voice note. Please try again.")
		return
	}

	a, err := b.svc.AnalyzeVoice(ctx, sess, voice.Clip{Name: "voice.ogg", Data: data})
	if err == nil && a.Empty() {
		b.sendMessage(message.Chat.ID, "I couldn't make out any speech in that voice note.")
		return
	}
	b.replyAnalysis(message, a, err)
}

func (b *Bot) handlePhoto(ctx context.Context, sess *wellness.Session, message *tgbotapi.Message) {
	largest := message.Photo[len(message.Photo)-1]
	data, err := b.download(ctx, largest.FileID)
	if err != nil {
		b.logger.Error("Failed to download photo",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't fetch your photo. Please try again.")
		return
	}

	a, err := b.svc.AnalyzeFace(ctx, sess, data)
	b.replyAnalysis(message, a, err)
}

func (b *Bot) handleJournal(sess *wellness.Session, message *tgbotapi.Message) {
	prompt, err := b.svc.JournalPrompt(sess)
	if errors.Is(err, wellness.ErrNoEmotion) {
		b.sendMessage(message.Chat.ID, "Tell me how you feel first, then I'll give you a journaling prompt.")
		return
	}

	sess.SetAwaitingJournal(true)
	b.sendMessage(message.Chat.ID, "📝 "+prompt+"\n\nYour next message will be saved to your journal.")
}

func (b *Bot) handleJournalEntry(ctx context.Context, sess *wellness.Session, message *tgbotapi.Message) {
	if _, err := b.svc.SaveJournal(ctx, sess, message.Text); err != nil {
		b.logger.Error("Failed to save journal entry",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your journal entry. Please try again.")
		return
	}
	b.sendMessage(message.Chat.ID, "Your journal entry is saved. Thank you for taking a moment for yourself.")
}

func (b *Bot) handleMood(ctx context.Context, message *tgbotapi.Message) {
	report, err := b.svc.MoodReport(ctx)
	if err != nil {
		b.logger.Error("Failed to build mood report",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't read your mood history.")
		return
	}
	if report.Total == 0 {
		b.sendMessage(message.Chat.ID, "No moods logged yet. Tell me how you feel!")
		return
	}
	b.sendMessage(message.Chat.ID, formatMoodReport(report))
}

func (b *Bot) handleBreathe(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if _, running := b.breathing.LoadOrStore(chatID, struct{}{}); running {
		b.sendMessage(chatID, "A breathing exercise is already running.")
		return
	}

	cfg := b.svc.BreathingConfig()
	b.sendMessage(chatID, fmt.Sprintf("Let's breathe together: %d cycles, %s per phase.", cfg.Cycles, cfg.PhaseDuration))

	go func() {
		defer b.breathing.Delete(chatID)

		err := b.svc.Breathe(ctx, func(cycle int, phase wellness.Phase) {
			b.sendMessage(chatID, fmt.Sprintf("%d/%d %s...", cycle, cfg.Cycles, phase))
		})
		if err != nil {
			return
		}
		b.sendMessage(chatID, "Well done. Notice how you feel now.")
	}()
}

func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
}

func (b *Bot) replyAnalysis(message *tgbotapi.Message, a wellness.Analysis, err error) {
	if errors.Is(err, wellness.ErrNotConfigured) {
		b.sendMessage(message.Chat.ID, "Sorry, this kind of input isn't enabled.")
		return
	}
	note, ok := analysisNote(err)
	if !ok {
		b.logger.Error("Analysis failed",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, something went wrong. Please try again.")
		return
	}
	if err != nil {
		b.logger.Warn("Analysis degraded",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, formatAnalysis(a, note))
	msg.ParseMode = "MarkdownV2"
	msg.ReplyToMessageID = message.MessageID

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send analysis",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
