package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"news-detector/cache"
	"news-detector/config"
	"news-detector/database"
	"news-detector/logger"
	"news-detector/models"
	"news-detector/services"
	"news-detector/session"
)

var (
	bot      *tgbotapi.BotAPI
	analyzer *services.AnalyzerService
	sessions *session.Manager
)

func main() {
	log.SetOutput(logger.GetWriter())

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("[bot] config: ", err)
	}
	if cfg.TelegramToken == "" {
		log.Fatal("[bot] TELEGRAM_TOKEN is not set")
	}

	database.InitDB(cfg.DbUrl)

	var store session.Store
	if rdb := cache.InitRedis(cfg.RedisUrl); rdb != nil {
		store = session.NewRedisStore(rdb, cfg.SessionTTL)
	} else {
		store = session.NewMemoryStore(cfg.SessionTTL)
	}
	analyzer = services.BuildAnalyzer(cfg)
	sessions = session.NewManager(store, analyzer)

	bot, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("[bot] init: %v", err)
	}
	log.Printf("[bot] running as @%s", bot.Self.UserName)

	if webhookURL := os.Getenv("WEBHOOK_URL"); webhookURL != "" {
		runWebhook(webhookURL)
	} else {
		runPolling()
	}
}

// ── Polling mode (dev / no public URL) ───────────────────────────

func runPolling() {
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false}); err != nil {
		log.Printf("[bot] DeleteWebhook: %v", err)
	}

	log.Println("[bot] mode: POLLING")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	for update := range bot.GetUpdatesChan(u) {
		if update.Message != nil {
			go handleMessage(update.Message)
		}
	}
}

// ── Webhook mode (production) ─────────────────────────────────────

func runWebhook(baseURL string) {
	port := os.Getenv("WEBHOOK_PORT")
	if port == "" {
		port = "8443"
	}

	// the bot token in the path is the only secret
	path := "/" + bot.Token
	fullURL := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(fullURL)
	if err != nil {
		log.Fatalf("[bot] NewWebhook: %v", err)
	}
	if _, err := bot.Request(wh); err != nil {
		log.Fatalf("[bot] set webhook: %v", err)
	}

	info, err := bot.GetWebhookInfo()
	if err != nil {
		log.Fatalf("[bot] GetWebhookInfo: %v", err)
	}
	if info.LastErrorDate != 0 {
		log.Printf("[bot] last webhook error: %s", info.LastErrorMessage)
	}

	log.Printf("[bot] mode: WEBHOOK on :%s", port)

	updates := bot.ListenForWebhook(path)
	go func() {
		if err := http.ListenAndServe(":"+port, nil); err != nil {
			log.Fatalf("[bot] webhook server: %v", err)
		}
	}()

	for update := range updates {
		if update.Message != nil {
			go handleMessage(update.Message)
		}
	}
}

// ── Message handler ──────────────────────────────────────────────

func handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch strings.TrimSpace(msg.Text) {
	case "/start":
		send(chatID, startText())
		return
	case "/help":
		send(chatID, helpText())
		return
	case "/reset":
		if _, err := sessions.Reset(context.Background(), sessionID(chatID)); err != nil {
			log.Printf("[bot] reset %d: %v", chatID, err)
		}
		send(chatID, "🧹 Cleared. Send a new article when ready.")
		return
	}

	req, ok := requestFromMessage(msg)
	if !ok {
		send(chatID, emptyMessageText())
		return
	}
	startAnalysis(chatID, req, forwardSource(msg))
}

// requestFromMessage prefers a link (entity or bare URL) over the message
// text, matching the HTTP API.
func requestFromMessage(msg *tgbotapi.Message) (models.AnalysisRequest, bool) {
	text := strings.TrimSpace(msg.Text)
	entities := msg.Entities
	if text == "" {
		text = strings.TrimSpace(msg.Caption)
		entities = msg.CaptionEntities
	}

	if u := linkFromEntities(text, entities); u != "" {
		return models.AnalysisRequest{Mode: models.ModeURL, Content: u}, true
	}
	if isURL(text) {
		return models.AnalysisRequest{Mode: models.ModeURL, Content: text}, true
	}
	if text == "" {
		return models.AnalysisRequest{}, false
	}
	return models.AnalysisRequest{Mode: models.ModeText, Content: text}, true
}

// linkFromEntities returns the first url/text_link entity. Entity offsets
// are in UTF-16 code units.
func linkFromEntities(text string, entities []tgbotapi.MessageEntity) string {
	for _, e := range entities {
		if e.Type != "url" && e.Type != "text_link" {
			continue
		}
		if e.URL != "" {
			return e.URL
		}
		units := utf16Units(text)
		if e.Offset >= 0 && e.Offset+e.Length <= len(units) {
			return fromUTF16(units[e.Offset : e.Offset+e.Length])
		}
	}
	return ""
}

func forwardSource(msg *tgbotapi.Message) string {
	switch {
	case msg.ForwardFromChat != nil:
		chat := msg.ForwardFromChat
		if chat.UserName != "" {
			return `<a href="https://t.me/` + chat.UserName + `">` + escHTML(chat.Title) + `</a>`
		}
		return escHTML(chat.Title)
	case msg.ForwardFrom != nil:
		u := msg.ForwardFrom
		if u.UserName != "" {
			return "@" + escHTML(u.UserName)
		}
		return escHTML(strings.TrimSpace(u.FirstName + " " + u.LastName))
	case msg.ForwardSenderName != "":
		return escHTML(msg.ForwardSenderName)
	}
	return ""
}

// ── Analysis runner ──────────────────────────────────────────────

func startAnalysis(chatID int64, req models.AnalysisRequest, sourceLabel string) {
	id := sessionID(chatID)
	ctx := context.Background()

	pending, err := sessions.Submit(ctx, id, req)
	if errors.Is(err, session.ErrPending) {
		send(chatID, "⏳ An analysis is already running for this chat. Please wait for it to finish.")
		return
	}
	if err != nil {
		log.Printf("[bot] submit %d: %v", chatID, err)
		send(chatID, FormatFailure())
		return
	}

	progress := sendAndGet(chatID, FormatPending(sourceLabel))

	outcome := analyzer.Analyze(ctx, req)
	snap, err := sessions.Resolve(ctx, id, pending.RequestID, outcome)
	if errors.Is(err, session.ErrStale) {
		// the chat was reset while the call was in flight
		return
	}
	if err != nil {
		log.Printf("[bot] resolve %d: %v", chatID, err)
	}

	text := FormatSnapshot(snap, sourceLabel)
	if progress == nil {
		send(chatID, text)
		return
	}
	edit(chatID, progress.MessageID, text)
}

func sessionID(chatID int64) string {
	return "tg-" + strconv.FormatInt(chatID, 10)
}

// ── Telegram helpers ─────────────────────────────────────────────

func send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := bot.Send(msg); err != nil {
		log.Printf("[bot] send error: %v", err)
	}
}

func sendAndGet(chatID int64, text string) *tgbotapi.Message {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	sent, err := bot.Send(msg)
	if err != nil {
		log.Printf("[bot] send error: %v", err)
		return nil
	}
	return &sent
}

func edit(chatID int64, msgID int, text string) {
	cfg := tgbotapi.NewEditMessageText(chatID, msgID, text)
	cfg.ParseMode = tgbotapi.ModeHTML
	cfg.DisableWebPagePreview = true
	if _, err := bot.Send(cfg); err != nil {
		log.Printf("[bot] edit error: %v", err)
	}
}

// ── Misc ─────────────────────────────────────────────────────────

func isURL(s string) bool {
	return !strings.ContainsAny(s, " \n\t") &&
		(strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://"))
}

func emptyMessageText() string {
	return `🙏 <b>Send me an article to check.</b>

Paste the article text, a link to it, or forward a post that contains a link.`
}

func startText() string {
	return `🔍 <b>Fake News Detector</b>

I check news articles for signs of <b>misinformation</b>: sensational language, source credibility, logical consistency, emotional manipulation, verifiable facts and bias.

<b>How to use:</b>
• Paste the article <b>text</b>
• Send a <b>URL</b> to the article
• <b>Forward</b> a post that links to one

<b>Commands:</b>
/reset — clear the last result
/help — help`
}

func helpText() string {
	return `📖 <b>Help</b>

<b>The result includes:</b>
• Credibility score (0–100)
• Verdict (Real / Suspicious / Fake) and confidence
• Reasoning
• Key indicators and red flags
• Recommendations

Only one analysis runs per chat at a time.

<b>Commands:</b>
/reset — clear the last result
/start — main menu`
}
