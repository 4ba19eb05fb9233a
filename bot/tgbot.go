package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"Mira/core"
	"Mira/lib/sl"
)

const greeting = "Привет! 👋\n\n" +
	"Я MIRA — AI-фотограф.\n" +
	"Пришлите своё фото через «Изменить фото», а потом опишите сцену — " +
	"я сгенерирую снимок, как будто вы там побывали ✨"

const helpText = "Что я умею:\n" +
	"/photo - загрузить или заменить фото-референс\n" +
	"/done - закончить загрузку фото\n" +
	"/style - выбрать стиль снимков\n" +
	"/reset - удалить загруженные фото\n" +
	"/help - показать эту справку\n\n" +
	"Просто напишите, где вы хотите оказаться, или выберите сцену кнопкой."

type TgBot struct {
	conf        *core.Config
	log         *slog.Logger
	api         *tgbotapi.BotAPI
	service     core.PhotoService
	botUsername string
	stop        chan struct{}
}

func NewTgBot(conf *core.Config, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		conf:        conf,
		log:         log.With(sl.Module("tgbot")),
		botUsername: conf.Username,
		stop:        make(chan struct{}),
	}

	api, err := tgbotapi.NewBotAPI(conf.TelegramApiKey)
	if err != nil {
		return nil, err
	}
	tgBot.api = api

	return tgBot, nil
}

// SetService sets the photo service
func (t *TgBot) SetService(service core.PhotoService) {
	t.service = service
}

func (t *TgBot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := t.api.GetUpdatesChan(u)
	if err != nil {
		return err
	}

	for {
		select {
		case <-t.stop:
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.route(update)
		}
	}
}

func (t *TgBot) Stop() {
	close(t.stop)
}

func (t *TgBot) route(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		go t.handleCallback(update.CallbackQuery)
		return
	}

	incoming := update.Message
	if incoming == nil || !incoming.Chat.IsPrivate() {
		return
	}
	chatId := incoming.Chat.ID

	if incoming.IsCommand() {
		go t.handleCommand(chatId, incoming)
		return
	}

	if incoming.Photo != nil && len(*incoming.Photo) > 0 {
		sizes := *incoming.Photo
		fileId := sizes[len(sizes)-1].FileID
		go t.respond(chatId, "upload_photo", nil, func(ctx context.Context) core.Reply {
			data, err := t.downloadFile(fileId)
			if err != nil {
				t.log.Error("downloading photo", slog.Int64("chat", chatId), sl.Err(err))
				return core.Reply{Text: "Не удалось получить фото, пришлите его ещё раз."}
			}
			return t.service.OnPhoto(ctx, chatId, data)
		})
		return
	}

	text := incoming.Text
	logText := text
	if len(logText) > 50 {
		logText = logText[:50] + "..."
	}
	t.log.With(
		slog.String("user", incoming.From.UserName),
		slog.String("text", logText),
	).Info("incoming message")

	go t.respond(chatId, "typing", nil, func(ctx context.Context) core.Reply {
		return t.service.OnText(ctx, chatId, text)
	})
}

func (t *TgBot) handleCommand(chatId int64, incoming *tgbotapi.Message) {
	switch incoming.Command() {
	case "start":
		t.deliver(chatId, core.Reply{Text: greeting}, t.sceneKeyboard())
	case "help":
		t.deliver(chatId, core.Reply{Text: helpText}, nil)
	case "photo":
		t.selectToken(chatId, "upload")
	case "done":
		t.selectToken(chatId, "done")
	case "reset":
		t.selectToken(chatId, "reset")
	case "style":
		t.selectToken(chatId, "styles")
	case "grant":
		t.handleGrant(chatId, incoming)
	default:
		t.deliver(chatId, core.Reply{Text: helpText}, nil)
	}
}

// selectToken forwards a command as the equivalent button selection.
func (t *TgBot) selectToken(chatId int64, token string) {
	var markup interface{}
	if token == "styles" {
		markup = t.styleKeyboard()
	}
	t.respondWithMarkup(chatId, markup, func(ctx context.Context) core.Reply {
		return t.service.OnSelect(ctx, chatId, token)
	})
}

// handleGrant is the trusted-operator entitlement override:
// /grant <user_id> <hours>, accepted only from the configured admin.
func (t *TgBot) handleGrant(chatId int64, incoming *tgbotapi.Message) {
	if t.conf.AdminId == 0 || int64(incoming.From.ID) != t.conf.AdminId {
		t.deliver(chatId, core.Reply{Text: helpText}, nil)
		return
	}

	args := strings.Fields(incoming.CommandArguments())
	if len(args) != 2 {
		t.deliver(chatId, core.Reply{Text: "Использование: /grant <user_id> <часы>"}, nil)
		return
	}
	userId, err1 := strconv.ParseInt(args[0], 10, 64)
	hours, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil || hours <= 0 {
		t.deliver(chatId, core.Reply{Text: "Использование: /grant <user_id> <часы>"}, nil)
		return
	}

	if err := t.service.GrantEntitlement(userId, time.Duration(hours)*time.Hour); err != nil {
		t.log.Error("granting entitlement", slog.Int64("user", userId), sl.Err(err))
		t.deliver(chatId, core.Reply{Text: "Не удалось выдать подписку."}, nil)
		return
	}
	t.deliver(chatId, core.Reply{
		Text: fmt.Sprintf("Подписка выдана пользователю %d на %d ч.", userId, hours),
	}, nil)
}

func (t *TgBot) handleCallback(query *tgbotapi.CallbackQuery) {
	if _, err := t.api.AnswerCallbackQuery(tgbotapi.NewCallback(query.ID, "")); err != nil {
		t.log.Warn("answering callback", sl.Err(err))
	}
	if query.Message == nil {
		return
	}
	chatId := query.Message.Chat.ID
	token := query.Data

	var markup interface{}
	if token == "styles" {
		markup = t.styleKeyboard()
	}
	t.respondWithMarkup(chatId, markup, func(ctx context.Context) core.Reply {
		return t.service.OnSelect(ctx, chatId, token)
	})
}

// respond runs the handler in the background while a chat-action ticker
// keeps the conversation alive, then delivers the reply.
func (t *TgBot) respond(chatId int64, action string, markup interface{}, fn func(ctx context.Context) core.Reply) {
	stopTicker := make(chan bool)
	replyReady := make(chan core.Reply)

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.sendChatAction(chatId, action)
			case <-stopTicker:
				return
			}
		}
	}()

	go func() {
		replyReady <- fn(context.Background())
	}()

	reply := <-replyReady
	stopTicker <- true

	t.deliver(chatId, reply, markup)
}

func (t *TgBot) respondWithMarkup(chatId int64, markup interface{}, fn func(ctx context.Context) core.Reply) {
	t.respond(chatId, "typing", markup, fn)
}

func (t *TgBot) deliver(chatId int64, reply core.Reply, markup interface{}) {
	if reply.ImageURL != "" {
		msg := tgbotapi.NewPhotoShare(chatId, reply.ImageURL)
		msg.Caption = reply.Caption
		if _, err := t.api.Send(msg); err != nil {
			t.log.Error("sending photo", slog.Int64("chat", chatId), sl.Err(err))
			t.plainResponse(chatId, "Не удалось отправить изображение, попробуйте ещё раз.")
		}
		return
	}

	msg := tgbotapi.NewMessage(chatId, reply.Text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("sending message", slog.Int64("chat", chatId), sl.Err(err))
	}
}

func (t *TgBot) plainResponse(chatId int64, text string) {
	msg := tgbotapi.NewMessage(chatId, text)
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("sending message", slog.Int64("chat", chatId), sl.Err(err))
	}
}

func (t *TgBot) sendChatAction(chatId int64, action string) {
	msg := tgbotapi.NewChatAction(chatId, action)
	if _, err := t.api.Send(msg); err != nil {
		t.log.Warn("sending chat action", sl.Err(err))
	}
}

// sceneKeyboard renders the core's preset registry plus control buttons.
func (t *TgBot) sceneKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	presets := t.service.ScenePresets()
	for i := 0; i < len(presets); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(presets[i].Label, presets[i].Token),
		}
		if i+1 < len(presets) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(presets[i+1].Label, presets[i+1].Token))
		}
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📸 Изменить фото", "upload"),
		tgbotapi.NewInlineKeyboardButtonData("✅ Готово", "done"),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🎨 Стили", "styles"),
		tgbotapi.NewInlineKeyboardButtonData("🗑 Сбросить фото", "reset"),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (t *TgBot) styleKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, style := range t.service.Styles() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(style.Label, style.Token),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (t *TgBot) downloadFile(fileId string) ([]byte, error) {
	url, err := t.api.GetFileDirectURL(fileId)
	if err != nil {
		return nil, fmt.Errorf("resolving file url: %w", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching file: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			t.log.Error("closing response body", sl.Err(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching file: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
