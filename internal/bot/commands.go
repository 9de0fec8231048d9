package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/saltspray/heatline/internal/models"
	"github.com/saltspray/heatline/internal/scoring"
)

const (
	viewerHelp = `Available commands:
/token - Get an API token
/leaderboard [n] - Top fantasy owners
/help - Show this message`

	adminHelp = `Available commands:
/token - Get an API token
/score <heat> <surfer> <score> - Submit one wave score
/heats <event> - List an event's heats with their status
/begin <heat> - Flip a heat to LIVE
/finalize <heat> - Settle a heat and pay out fantasy points
/eliminate <surfer> - Knock a surfer out of the event
/advance <surfer> - Send a surfer back to Waiting for the next round
/leaderboard [n] - Top fantasy owners
/help - Show this message

Examples:
/score 4f1c-h3 9a2b-s7 7.83
/finalize 4f1c-h3
/leaderboard 10`
)

type commandHandler func(*tgbotapi.Message) error

func (b *Bot) routeViewerCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start":       b.handleStart,
		"token":       b.handleToken,
		"leaderboard": b.handleLeaderboard,
		"help":        b.handleHelp,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeAdminCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"score":     b.handleScore,
		"heats":     b.handleHeats,
		"begin":     b.handleBeginHeat,
		"finalize":  b.handleFinalize,
		"eliminate": b.handleEliminate,
		"advance":   b.handleAdvance,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	cmd := msg.Command()

	if handler, ok := b.routeViewerCommands(cmd); ok {
		if err := handler(msg); err != nil {
			logger.Error.Printf("Command error: %v", err)
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
		}
		return
	}

	if b.admins[msg.From.ID] {
		if handler, ok := b.routeAdminCommands(cmd); ok {
			if err := handler(msg); err != nil {
				logger.Error.Printf("Command error: %v", err)
				b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
			}
		}
		return
	}

	b.sendHelp(msg.Chat.ID)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	var text string
	if b.admins[msg.From.ID] {
		text = adminHelp
	} else {
		text = viewerHelp
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "Use commands to talk to the bot. Send /help for the list.")
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	text := "Hi! I keep score for the surf fantasy league.\n\n"
	if b.admins[msg.From.ID] {
		text += "You are an event operator. Send /help for the command list."
	} else {
		text += "Send /token to get an API token, or /leaderboard to see the standings."
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleToken(msg *tgbotapi.Message) error {
	if b.tokens == nil {
		return b.sendMessage(msg.Chat.ID, "Token auth is disabled on this deployment")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	operator := msg.From.UserName
	if operator == "" {
		operator = strconv.FormatInt(msg.From.ID, 10)
	}

	info, isNew, err := b.tokens.FetchOrCreateOperatorToken(ctx, operator)
	if err != nil {
		return fmt.Errorf("failed to fetch token: %w", err)
	}

	greeting := "Your token"
	if isNew {
		greeting = "Minted a fresh token"
	}
	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("%s:\n`%s`", greeting, info.Token))
}

// /score <heat> <surfer> <score>
func (b *Bot) handleScore(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 3 {
		return fmt.Errorf("usage: /score <heat> <surfer> <score>")
	}

	score, err := decimal.NewFromString(args[2])
	if err != nil {
		return fmt.Errorf("bad score %q: %v", args[2], err)
	}

	ws := &models.WaveScore{
		HeatID:      args[0],
		SurferID:    args[1],
		Score:       score,
		SubmittedAt: time.Now().UTC().Unix(),
	}
	if err := ws.Validate(); err != nil {
		return err
	}

	if err := b.store.CreateWaveScore(ws); err != nil {
		return fmt.Errorf("failed to save wave score: %v", err)
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("🏄 Wave logged: %s for surfer %s in heat %s",
		scoring.Format(score),
		args[1],
		args[0],
	))
}

// /heats <event>
func (b *Bot) handleHeats(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		return fmt.Errorf("usage: /heats <event>")
	}

	heats, err := b.store.ListHeats(args[0])
	if err != nil {
		return fmt.Errorf("failed to list heats: %v", err)
	}

	if len(heats) == 0 {
		return b.sendMessage(msg.Chat.ID, "No heats found")
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("Heats for event %s:\n\n", args[0]))
	for _, heat := range heats {
		out.WriteString(fmt.Sprintf("📝 R%d H%d [%s]\n%s\n\n",
			heat.RoundNumber,
			heat.HeatNumber,
			heat.Status,
			heat.ID,
		))
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

// /begin <heat>
func (b *Bot) handleBeginHeat(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		return fmt.Errorf("usage: /begin <heat>")
	}

	swapped, err := b.store.SwapHeatStatus(args[0], models.HeatUpcoming, models.HeatLive)
	if err != nil {
		return fmt.Errorf("failed to start heat: %v", err)
	}
	if !swapped {
		return fmt.Errorf("heat %s is not upcoming", args[0])
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("🟢 Heat %s is LIVE", args[0]))
}

// /finalize <heat>
func (b *Bot) handleFinalize(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		return fmt.Errorf("usage: /finalize <heat>")
	}

	result, err := b.engine.FinalizeHeat(args[0])
	if err != nil {
		return err
	}

	var out strings.Builder
	if result.FullySettled() {
		out.WriteString(fmt.Sprintf("✅ Heat %s finalized & points distributed\n\n", args[0]))
	} else {
		out.WriteString(fmt.Sprintf("⚠️ Heat %s settled with %d failed writes\n\n", args[0], result.FailureCount()))
	}

	for _, s := range result.Surfers {
		out.WriteString(fmt.Sprintf("Surfer %s: %s", s.SurferID, scoring.Format(s.HeatTotal)))
		if s.Error != "" {
			out.WriteString(fmt.Sprintf(" ❌ %s failed: %s", s.Step, s.Error))
		} else {
			paid := 0
			for _, p := range s.Payouts {
				if p.OK() {
					paid++
				}
			}
			out.WriteString(fmt.Sprintf(" (%d/%d rosters paid)", paid, len(s.Payouts)))
			for _, p := range s.Payouts {
				if !p.OK() {
					out.WriteString(fmt.Sprintf("\n  ❌ owner %s %s failed: %s", p.OwnerID, p.Step, p.Error))
				}
			}
		}
		out.WriteString("\n")
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

// /eliminate <surfer>
func (b *Bot) handleEliminate(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		return fmt.Errorf("usage: /eliminate <surfer>")
	}

	surfer, err := b.store.GetSurfer(args[0])
	if err != nil {
		return err
	}
	if err := surfer.Status.Transition(models.SurferEliminated); err != nil {
		return err
	}
	if err := b.store.SetSurferStatus(args[0], models.SurferEliminated); err != nil {
		return err
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("🪦 %s is out of the event", surfer.Name))
}

// /advance <surfer>
func (b *Bot) handleAdvance(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		return fmt.Errorf("usage: /advance <surfer>")
	}

	surfer, err := b.store.GetSurfer(args[0])
	if err != nil {
		return err
	}
	if err := surfer.Status.Transition(models.SurferWaiting); err != nil {
		return err
	}
	if err := b.store.SetSurferStatus(args[0], models.SurferWaiting); err != nil {
		return err
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("➡️ %s advances to the next round", surfer.Name))
}

// /leaderboard [n]
func (b *Bot) handleLeaderboard(msg *tgbotapi.Message) error {
	limit := 10
	if args := strings.Fields(msg.CommandArguments()); len(args) == 1 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed <= 0 {
			return fmt.Errorf("bad limit %q", args[0])
		}
		limit = parsed
	}

	rows, err := b.store.FetchLeaderboard(limit)
	if err != nil {
		return fmt.Errorf("failed to fetch leaderboard: %v", err)
	}

	if len(rows) == 0 {
		return b.sendMessage(msg.Chat.ID, "Leaderboard is empty")
	}

	var out strings.Builder
	out.WriteString("🏆 Fantasy leaderboard:\n\n")
	for i, row := range rows {
		out.WriteString(fmt.Sprintf("%d. %s — %s\n", i+1, row.OwnerID, scoring.Format(row.Total)))
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}
