// internal/bot/bot.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/expense"
	val "expense-tracker/internal/validator"

	"golang.org/x/text/encoding/charmap"
)

const (
	monthLayout = "2006-01"
	listLimit   = 20
)

const helpText = "Expense tracker\n\n" +
	"Commands:\n" +
	"/add <amount> <category> <title> - record an expense, e.g. /add 120 Food Lunch\n" +
	"/list [YYYY-MM] - expenses for a month (current by default)\n" +
	"/stats [YYYY-MM] - totals by category\n" +
	"/delete <id> - remove an expense\n" +
	"/categories - allowed categories"

// Bot answers chat commands on top of the expense service.
type Bot struct {
	svc *expense.Service
	now func() time.Time
}

func New(svc *expense.Service) *Bot {
	return &Bot{svc: svc, now: time.Now}
}

// Owner maps a Telegram user to a principal id.
func Owner(telegramUserID int64) string {
	return "telegram:" + strconv.FormatInt(telegramUserID, 10)
}

// Handle runs one command for owner and returns the reply text.
func (b *Bot) Handle(ctx context.Context, owner, text string) string {
	text = SanitizeInput(FixEncoding(text))
	cmd, args := splitCommand(text)

	var (
		reply string
		err   error
	)
	switch cmd {
	case "/start", "/help":
		reply = helpText
	case "/add":
		reply, err = b.add(ctx, owner, args)
	case "/list":
		reply, err = b.list(ctx, owner, args)
	case "/stats":
		reply, err = b.stats(ctx, owner, args)
	case "/delete":
		reply, err = b.delete(ctx, owner, args)
	case "/categories":
		reply = "Categories: " + strings.Join(domain.Categories, ", ")
	default:
		reply = "Unknown command. Send /help"
	}

	if err != nil {
		var verr *val.Error
		if errors.As(err, &verr) {
			return "❌ " + verr.Error()
		}
		slog.Error("bot command failed", "error", err, "user_id", owner, "command", cmd)
		return "❌ Something went wrong, try again later"
	}
	return reply
}

// splitCommand separates "/cmd@botname arg1 arg2" into "/cmd" and its args.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	return cmd, fields[1:]
}

func (b *Bot) add(ctx context.Context, owner string, args []string) (string, error) {
	if len(args) < 3 {
		return "Usage: /add <amount> <category> <title>", nil
	}
	amount, err := domain.ParseAmount(args[0])
	if err != nil {
		return "❌ Amount must be a number", nil
	}
	category, ok := canonicalCategory(args[1])
	if !ok {
		return "❌ Category must be one of " + strings.Join(domain.Categories, ", "), nil
	}

	e, err := b.svc.Create(ctx, owner, domain.Draft{
		Title:    strings.Join(args[2:], " "),
		Amount:   amount,
		Category: category,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Saved #%d: %s %d (%s)", e.ID, e.Title, e.Amount, e.Category), nil
}

func (b *Bot) list(ctx context.Context, owner string, args []string) (string, error) {
	month, year, label, ok := b.period(args)
	if !ok {
		return "Usage: /list [YYYY-MM]", nil
	}
	list, err := b.svc.List(ctx, owner, domain.Filter{Month: month, Year: year})
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "📭 No expenses for " + label, nil
	}

	lines := []string{"Expenses for " + label}
	var total int64
	for i, e := range list {
		total += e.Amount
		if i < listLimit {
			lines = append(lines, fmt.Sprintf("#%d %s %s %d %s",
				e.ID, e.Date.UTC().Format("2006-01-02"), e.Category, e.Amount, e.Title))
		}
	}
	if len(list) > listLimit {
		lines = append(lines, fmt.Sprintf("... and %d more", len(list)-listLimit))
	}
	lines = append(lines, fmt.Sprintf("Total: %d", total))
	return strings.Join(lines, "\n"), nil
}

func (b *Bot) stats(ctx context.Context, owner string, args []string) (string, error) {
	month, year, label, ok := b.period(args)
	if !ok {
		return "Usage: /stats [YYYY-MM]", nil
	}
	s, err := b.svc.Stats(ctx, owner, month, year)
	if err != nil {
		return "", err
	}
	if len(s.ByCategory) == 0 {
		return "📭 No expenses for " + label, nil
	}

	lines := []string{fmt.Sprintf("Stats for %s: %d", label, s.Total)}
	for _, c := range s.ByCategory {
		lines = append(lines, fmt.Sprintf("- %s: %d (%d)", c.Category, c.Amount, c.Count))
	}
	return strings.Join(lines, "\n"), nil
}

func (b *Bot) delete(ctx context.Context, owner string, args []string) (string, error) {
	if len(args) != 1 {
		return "Usage: /delete <id>", nil
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		return "❌ Expense not found", nil
	}
	if err := b.svc.Delete(ctx, owner, id); err != nil {
		return "", err
	}
	return "✅ Deleted", nil
}

// period reads an optional YYYY-MM argument, defaulting to the current UTC month.
func (b *Bot) period(args []string) (month, year int, label string, ok bool) {
	t := b.now().UTC()
	switch len(args) {
	case 0:
	case 1:
		parsed, err := time.Parse(monthLayout, args[0])
		if err != nil {
			return 0, 0, "", false
		}
		t = parsed
	default:
		return 0, 0, "", false
	}
	return int(t.Month()), t.Year(), t.Format(monthLayout), true
}

func canonicalCategory(s string) (string, bool) {
	for _, c := range domain.Categories {
		if strings.EqualFold(c, s) {
			return c, true
		}
	}
	return "", false
}

// SanitizeInput collapses every run of whitespace into a single space.
func SanitizeInput(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// FixEncoding repairs text that arrives as Windows-1251 instead of UTF-8.
func FixEncoding(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	fixed, err := charmap.Windows1251.NewDecoder().String(s)
	if err == nil && utf8.ValidString(fixed) {
		return fixed
	}
	return strings.ToValidUTF8(s, "")
}
