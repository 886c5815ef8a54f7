package bot

import (
	"context"
	"strconv"
	"strings"

	"estate_bot/internal/districts"
	"estate_bot/internal/model"
)

// wizardStep identifies a stage of the /addfilter conversation.
type wizardStep int

const (
	stepDistrict wizardStep = iota + 1
	stepPriceMin
	stepPriceMax
	stepRoomsMin
	stepRoomsMax
)

// wizardState is the explicit finite-state object for one chat's filter
// setup conversation.
type wizardState struct {
	step     wizardStep
	district *string
	priceMin *int64
	priceMax *int64
	roomsMin *float64
}

func (b *Bot) handleAddFilter(chatID string) {
	b.mu.Lock()
	b.wizards[chatID] = &wizardState{step: stepDistrict}
	b.mu.Unlock()

	b.reply(chatID, "📝 Adding a new filter for flats.\n\nPlease enter the district (e.g. Teika), or type \"any\" for all districts:")
}

// handleWizardInput advances the filter wizard one step. Text from chats
// with no active wizard is ignored.
func (b *Bot) handleWizardInput(ctx context.Context, chatID, text string) {
	b.mu.Lock()
	state, ok := b.wizards[chatID]
	b.mu.Unlock()
	if !ok {
		return
	}

	switch state.step {
	case stepDistrict:
		if !strings.EqualFold(text, "any") {
			label := districts.CanonicalLabel(strings.TrimSpace(text))
			state.district = &label
		}
		state.step = stepPriceMin
		b.reply(chatID, "💰 Enter the minimum price in € (e.g. 50000), or 0 for no minimum:")

	case stepPriceMin:
		v, ok := parseBoundInt(text)
		if !ok {
			b.reply(chatID, "Please enter a valid number, or 0 for no minimum.")
			return
		}
		state.priceMin = v
		state.step = stepPriceMax
		b.reply(chatID, "💰 Enter the maximum price in € (e.g. 150000), or 0 for no maximum:")

	case stepPriceMax:
		v, ok := parseBoundInt(text)
		if !ok {
			b.reply(chatID, "Please enter a valid number, or 0 for no maximum.")
			return
		}
		state.priceMax = v
		state.step = stepRoomsMin
		b.reply(chatID, "🚪 Enter the minimum number of rooms (e.g. 1), or 0 for no minimum:")

	case stepRoomsMin:
		v, ok := parseBoundFloat(text)
		if !ok {
			b.reply(chatID, "Please enter a valid number, or 0 for no minimum.")
			return
		}
		state.roomsMin = v
		state.step = stepRoomsMax
		b.reply(chatID, "🚪 Enter the maximum number of rooms (e.g. 3), or 0 for no maximum:")

	case stepRoomsMax:
		v, ok := parseBoundFloat(text)
		if !ok {
			b.reply(chatID, "Please enter a valid number, or 0 for no maximum.")
			return
		}

		sub := &model.Subscription{
			UserChatID: chatID,
			Category:   model.CategoryFlats,
			District:   state.district,
			PriceMin:   state.priceMin,
			PriceMax:   state.priceMax,
			RoomsMin:   state.roomsMin,
			RoomsMax:   v,
		}
		err := b.store.CreateSubscription(ctx, sub)

		b.mu.Lock()
		delete(b.wizards, chatID)
		b.mu.Unlock()

		if err != nil {
			b.log.Error("create subscription", "chat_id", chatID, "error", err)
			b.reply(chatID, "❌ Something went wrong adding the filter. Please try /addfilter again.")
			return
		}
		b.reply(chatID, "✅ Filter saved successfully!\n\n"+FormatSubscription(*sub)+
			"\nYou will receive notifications when new listings match these criteria.")
	}
}

// parseBoundInt interprets wizard input as an optional inclusive bound:
// zero and negative values mean "no bound".
func parseBoundInt(text string) (*int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return nil, false
	}
	if v <= 0 {
		return nil, true
	}
	return &v, true
}

func parseBoundFloat(text string) (*float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return nil, false
	}
	if v <= 0 {
		return nil, true
	}
	return &v, true
}
