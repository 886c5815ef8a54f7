package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"estate_bot/internal/districts"
	"estate_bot/internal/model"
	"estate_bot/internal/poller"
	"estate_bot/internal/storage"
)

const districtsPerPage = 8

// browseState tracks one chat's progress through the /districts browser.
type browseState struct {
	page     int
	district string // feed URL value, "" until selected
	priceMin *int64
	priceMax *int64
	roomsMin *float64
	roomsMax *float64
	awaiting string // bound currently prompted for, "" if none
}

func (b *Bot) handleDistricts(chatID string) {
	b.mu.Lock()
	b.browses[chatID] = &browseState{}
	b.mu.Unlock()

	b.sendDistrictKeyboard(chatID)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := strconv.FormatInt(cb.Message.Chat.ID, 10)

	ack := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(ack); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	parts := strings.SplitN(cb.Data, ":", 2)
	if len(parts) != 2 {
		return
	}
	action, arg := parts[0], parts[1]

	b.log.Debug("callback", "action", action, "arg", arg, "chat_id", chatID)

	b.mu.Lock()
	state, ok := b.browses[chatID]
	b.mu.Unlock()
	if !ok {
		b.reply(chatID, "Please start again with /districts")
		return
	}

	switch action {
	case "district":
		state.district = arg
		b.sendDistrictKeyboard(chatID)
	case "page":
		if page, err := strconv.Atoi(arg); err == nil && page >= 0 {
			state.page = page
			b.sendDistrictKeyboard(chatID)
		}
	case "bound":
		state.awaiting = arg
		b.reply(chatID, boundPrompt(arg))
	case "search":
		b.runBrowseSearch(ctx, chatID, state)
	}
}

// handleBrowseInput consumes a numeric reply to a bound prompt. Returns
// false when the chat is not waiting for browser input.
func (b *Bot) handleBrowseInput(chatID, text string) bool {
	b.mu.Lock()
	state, ok := b.browses[chatID]
	b.mu.Unlock()
	if !ok || state.awaiting == "" {
		return false
	}

	switch state.awaiting {
	case "price_min", "price_max":
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil || v < 0 {
			b.reply(chatID, "Please enter a valid positive number.")
			return true
		}
		if state.awaiting == "price_min" {
			state.priceMin = &v
		} else {
			state.priceMax = &v
		}
	case "rooms_min", "rooms_max":
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || v < 0 {
			b.reply(chatID, "Please enter a valid positive number.")
			return true
		}
		if state.awaiting == "rooms_min" {
			state.roomsMin = &v
		} else {
			state.roomsMax = &v
		}
	}

	b.reply(chatID, fmt.Sprintf("Filter updated: %s = %s", state.awaiting, text))
	state.awaiting = ""
	b.sendDistrictKeyboard(chatID)
	return true
}

func (b *Bot) sendDistrictKeyboard(chatID string) {
	b.mu.Lock()
	state, ok := b.browses[chatID]
	b.mu.Unlock()
	if !ok {
		b.reply(chatID, "Please start again with /districts")
		return
	}

	all := districts.Browsable()
	totalPages := (len(all) + districtsPerPage - 1) / districtsPerPage
	if state.page >= totalPages {
		state.page = totalPages - 1
	}
	start := state.page * districtsPerPage
	end := min(start+districtsPerPage, len(all))

	var rows [][]tgbotapi.InlineKeyboardButton
	page := all[start:end]
	for i := 0; i < len(page); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(page[i].Label, "district:"+page[i].Value),
		}
		if i+1 < len(page) {
			row = append(row,
				tgbotapi.NewInlineKeyboardButtonData(page[i+1].Label, "district:"+page[i+1].Value))
		}
		rows = append(rows, row)
	}

	var nav []tgbotapi.InlineKeyboardButton
	if state.page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Previous", fmt.Sprintf("page:%d", state.page-1)))
	}
	if state.page < totalPages-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("page:%d", state.page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	text := "🏠 Select a district to browse listings:"
	if state.district != "" {
		text += "\n\nSelected district: " + districts.LabelFor(state.district)
		if state.priceMin != nil || state.priceMax != nil {
			text += "\nPrice: " + formatIntBound(state.priceMin, "0") + " - " + formatIntBound(state.priceMax, "max") + " €"
		}
		if state.roomsMin != nil || state.roomsMax != nil {
			text += "\nRooms: " + formatFloatBound(state.roomsMin, "0") + " - " + formatFloatBound(state.roomsMax, "max")
		}

		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🔍 Price Min", "bound:price_min"),
			tgbotapi.NewInlineKeyboardButtonData("🔍 Price Max", "bound:price_max"),
		})
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🚪 Rooms Min", "bound:rooms_min"),
			tgbotapi.NewInlineKeyboardButtonData("🚪 Rooms Max", "bound:rooms_max"),
		})
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🔎 Search", "search:run"),
		})
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return
	}
	msg := tgbotapi.NewMessage(id, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send district keyboard", "chat_id", chatID, "error", err)
	}
}

// runBrowseSearch does a fresh district-scoped fetch through the pipeline
// and replies with the newest stored match.
func (b *Bot) runBrowseSearch(ctx context.Context, chatID string, state *browseState) {
	if state.district == "" {
		b.reply(chatID, "Please select a district first.")
		return
	}

	b.reply(chatID, "🔍 Searching for listings... This may take a moment.")

	label := districts.LabelFor(state.district)
	sub := model.Subscription{
		Category: model.CategoryFlats,
		District: &label,
		PriceMin: state.priceMin,
		PriceMax: state.priceMax,
		RoomsMin: state.roomsMin,
		RoomsMax: state.roomsMax,
	}

	listing, err := b.poller.LatestListing(ctx, sub)
	if err != nil {
		b.log.Error("browse search", "chat_id", chatID, "error", err)
		b.reply(chatID, "An error occurred while searching. Please try again later.")
		return
	}
	if listing == nil {
		b.reply(chatID, "No listings found matching your criteria.")
		return
	}

	b.reply(chatID, poller.FormatListing(*listing))

	total, err := b.store.CountListings(ctx, storage.ListingFilter{
		Category:     sub.Category,
		District:     sub.District,
		PriceMin:     sub.PriceMin,
		PriceMax:     sub.PriceMax,
		RoomsMin:     sub.RoomsMin,
		RoomsMax:     sub.RoomsMax,
		RequirePrice: true,
	})
	if err != nil {
		b.log.Error("count listings", "error", err)
		return
	}
	if total > 1 {
		b.reply(chatID, fmt.Sprintf("There are %d total listings matching your criteria. Use /latest to see more.", total))
	}
}

func boundPrompt(bound string) string {
	switch bound {
	case "price_min":
		return "Please enter the minimum price in euros (e.g., 50000):"
	case "price_max":
		return "Please enter the maximum price in euros (e.g., 150000):"
	case "rooms_min":
		return "Please enter the minimum number of rooms (e.g., 1):"
	default:
		return "Please enter the maximum number of rooms (e.g., 3):"
	}
}
