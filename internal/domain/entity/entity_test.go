package entity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
)

func TestParseInvoiceStatus(t *testing.T) {
	st, err := entity.ParseInvoiceStatus("sent")
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusSent, st)

	_, err = entity.ParseInvoiceStatus("ARCHIVED")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecalculateTotals_InvarianteDeTotales(t *testing.T) {
	inv := &entity.Invoice{
		VATRatePercent: decimal.NewFromInt(21),
		LineItems: []entity.LineItem{
			entity.NewLineItem("Ontwikkeling", decimal.RequireFromString("12.5"), 8500),
			entity.NewLineItem("Reiskosten", decimal.NewFromInt(1), 4599),
		},
	}
	inv.RecalculateTotals()

	var sum int64
	for _, li := range inv.LineItems {
		sum += li.TotalCents
	}
	assert.Equal(t, sum, inv.SubtotalCents)
	assert.Equal(t, inv.SubtotalCents+inv.VATAmountCents, inv.TotalCents)
	assert.Equal(t, int64(110849), inv.SubtotalCents)
	assert.Equal(t, int64(23278), inv.VATAmountCents)
	assert.Equal(t, 2, inv.LineItems[1].Position)
}

func TestDecodeNotificationPreferences_ClavesAusentesQuedanActivas(t *testing.T) {
	prefs, err := entity.DecodeNotificationPreferences([]byte(`{"payment_reminder": false}`))
	require.NoError(t, err)
	assert.False(t, prefs.PaymentReminder)
	assert.True(t, prefs.InvoiceOverdue)
	assert.False(t, prefs.Enabled(entity.NotificationPaymentReminder))

	empty, err := entity.DecodeNotificationPreferences(nil)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultNotificationPreferences(), empty)
}

func TestClientRecipientEmail_Fallback(t *testing.T) {
	c := &entity.Client{ContactEmail: "info@klant.nl"}
	assert.Equal(t, "info@klant.nl", c.RecipientEmail())
	c.BillingEmail = "facturen@klant.nl"
	assert.Equal(t, "facturen@klant.nl", c.RecipientEmail())
	assert.Empty(t, (&entity.Client{}).RecipientEmail())
}

func TestClientAccessToken_CheckUsable(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tok := &entity.ClientAccessToken{}
	assert.NoError(t, tok.CheckUsable(now))

	exp := now.Add(-time.Minute)
	tok.ExpiresAt = &exp
	assert.ErrorIs(t, tok.CheckUsable(now), domain.ErrTokenExpired)
}

func TestDaysUntilDue(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	inv := &entity.Invoice{DueDate: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 2, inv.DaysUntilDue(now))
}
