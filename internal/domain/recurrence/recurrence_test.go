package recurrence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/recurrence"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := entity.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestNext_Periodos(t *testing.T) {
	cases := []struct {
		from string
		freq entity.Frequency
		want string
	}{
		{"2024-01-01", entity.FrequencyWeekly, "2024-01-08"},
		{"2024-12-30", entity.FrequencyWeekly, "2025-01-06"},
		{"2024-01-15", entity.FrequencyMonthly, "2024-02-15"},
		{"2024-01-31", entity.FrequencyMonthly, "2024-02-29"}, // bisiesto, día recortado
		{"2023-01-31", entity.FrequencyMonthly, "2023-02-28"},
		{"2024-03-31", entity.FrequencyMonthly, "2024-04-30"},
		{"2024-12-31", entity.FrequencyMonthly, "2025-01-31"},
		{"2024-04-01", entity.FrequencyQuarterly, "2024-07-01"},
		{"2024-11-30", entity.FrequencyQuarterly, "2025-02-28"},
		{"2024-02-29", entity.FrequencyYearly, "2025-02-28"},
		{"2024-06-01", entity.FrequencyYearly, "2025-06-01"},
	}
	for _, tc := range cases {
		got, err := recurrence.Next(date(t, tc.from), tc.freq)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Format(entity.DateFormat), "%s + %s", tc.from, tc.freq)
	}
}

func TestNext_FrecuenciaDesconocida(t *testing.T) {
	_, err := recurrence.Next(date(t, "2024-01-01"), "DAILY")
	assert.Error(t, err)
}

// La cadencia avanza desde nextInvoiceDate, no desde el momento en que corre el barrido.
func TestAdvance_CadenciaFijaAunqueElBarridoLlegueTarde(t *testing.T) {
	s := &entity.RecurringInvoice{
		Frequency:       entity.FrequencyMonthly,
		StartDate:       date(t, "2023-10-31"),
		NextInvoiceDate: date(t, "2024-01-31"),
		IsActive:        true,
	}
	late := time.Date(2024, 2, 10, 6, 0, 0, 0, time.UTC)
	require.NoError(t, recurrence.Advance(s, late))

	assert.Equal(t, "2024-02-29", s.NextInvoiceDate.Format(entity.DateFormat))
	require.NotNil(t, s.LastGeneratedAt)
	assert.Equal(t, late, *s.LastGeneratedAt)
	assert.True(t, s.IsActive)
}

func TestAdvance_DesactivaAlSuperarEndDate(t *testing.T) {
	end := date(t, "2024-06-01")
	s := &entity.RecurringInvoice{
		Frequency:       entity.FrequencyQuarterly,
		StartDate:       date(t, "2024-01-01"),
		EndDate:         &end,
		NextInvoiceDate: date(t, "2024-04-01"),
		IsActive:        true,
	}
	require.NoError(t, recurrence.Advance(s, date(t, "2024-04-01")))

	assert.Equal(t, "2024-07-01", s.NextInvoiceDate.Format(entity.DateFormat))
	assert.False(t, s.IsActive)
}

func TestAdvance_EndDateIgualANextSigueActivo(t *testing.T) {
	end := date(t, "2024-02-01")
	s := &entity.RecurringInvoice{
		Frequency:       entity.FrequencyMonthly,
		EndDate:         &end,
		NextInvoiceDate: date(t, "2024-01-01"),
		IsActive:        true,
	}
	require.NoError(t, recurrence.Advance(s, date(t, "2024-01-01")))
	assert.True(t, s.IsActive, "2024-02-01 no es posterior a endDate")
}

func TestFirstOnOrAfter(t *testing.T) {
	got, err := recurrence.FirstOnOrAfter(date(t, "2024-01-01"), date(t, "2024-01-20"), entity.FrequencyWeekly)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-22", got.Format(entity.DateFormat))

	got, err = recurrence.FirstOnOrAfter(date(t, "2024-05-01"), date(t, "2024-01-20"), entity.FrequencyMonthly)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", got.Format(entity.DateFormat), "un inicio futuro se respeta")
}

func TestDueDate(t *testing.T) {
	assert.Equal(t, "2024-03-15", recurrence.DueDate(date(t, "2024-02-14"), 30).Format(entity.DateFormat))
}
