package model_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		id        string
		recipient bool
		chatID    string
	}{
		{"tg_500", true, "500"},
		{"tg_", false, ""},
		{"g_9", false, ""},
		{"xtg_1", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			id := model.ParseIdentity(tt.id)
			assert.Equal(t, tt.id, id.ID)
			assert.Equal(t, tt.recipient, id.IsRecipient())
			assert.Equal(t, tt.chatID, id.ChatID)
		})
	}
}

func TestRecipientIdentity(t *testing.T) {
	id := model.RecipientIdentity("42")
	assert.Equal(t, "tg_42", id.ID)
	assert.True(t, id.IsRecipient())
	assert.Equal(t, model.ParseIdentity("tg_42"), id)
}

func TestDecodeAccount(t *testing.T) {
	acc, err := model.DecodeAccount(model.Document{ID: "tg_501", Data: map[string]any{"linkedAccountId": " g_9 "}})
	require.NoError(t, err)
	assert.Equal(t, "g_9", acc.LinkedAccountID)

	acc, err = model.DecodeAccount(model.Document{ID: "tg_500"})
	require.NoError(t, err)
	assert.Empty(t, acc.LinkedAccountID)

	_, err = model.DecodeAccount(model.Document{ID: "tg_1", Data: map[string]any{"linkedAccountId": 7}})
	assert.True(t, errors.Is(err, model.ErrMalformed))
}

func TestDecodeCredit_Defaults(t *testing.T) {
	c, err := model.DecodeCredit(model.Document{ID: "c1", Parent: "tg_1", Data: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, "Bank", c.Bank)
	assert.Equal(t, 0.0, c.Amount)
	assert.Empty(t, c.Deadline)
	assert.Equal(t, "tg_1", c.OwnerID)
}

func TestDecodeCredit_AmountForms(t *testing.T) {
	for _, raw := range []any{int64(10000), 10000.0, 10000, "10 000", "10000"} {
		c, err := model.DecodeCredit(model.Document{ID: "c", Data: map[string]any{"amount": raw}})
		require.NoError(t, err)
		assert.Equal(t, 10000.0, c.Amount)
	}

	_, err := model.DecodeCredit(model.Document{ID: "c", Data: map[string]any{"amount": "lots"}})
	assert.True(t, errors.Is(err, model.ErrMalformed))

	_, err = model.DecodeCredit(model.Document{ID: "c", Data: map[string]any{"amount": true}})
	assert.True(t, errors.Is(err, model.ErrMalformed))
}

func TestDecodeCredit_NonFiniteAmount(t *testing.T) {
	for _, raw := range []any{"Inf", "+Inf", "-inf", "NaN", "1e400", math.Inf(1), math.NaN()} {
		_, err := model.DecodeCredit(model.Document{ID: "c", Data: map[string]any{"amount": raw}})
		assert.True(t, errors.Is(err, model.ErrMalformed), "amount %v", raw)
	}
}

func TestDecodeCredit_DeadlineTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	c, err := model.DecodeCredit(model.Document{ID: "c", Data: map[string]any{"deadline": ts}})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", c.Deadline)
}

func TestCivil(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got := model.Civil(time.Date(2026, 10, 17, 1, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), got)
}
