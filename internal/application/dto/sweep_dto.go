package dto

// GenerationResult resultado del barrido de recurrentes para un schedule.
type GenerationResult struct {
	ScheduleID    string `json:"schedule_id"`
	Success       bool   `json:"success"`
	InvoiceID     string `json:"invoice_id,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Error         string `json:"error,omitempty"`
}

// GenerationReport respuesta de POST /api/cron/generate-recurring.
// Los schedules que otra ejecución ya procesó cuentan en Skipped y no aparecen en Results.
type GenerationReport struct {
	RunAt     string             `json:"run_at"`
	Generated int                `json:"generated"`
	Skipped   int                `json:"skipped"`
	Failures  int                `json:"failures"`
	Results   []GenerationResult `json:"results"`
}

// Resultados posibles de un ítem del barrido de vencimientos.
const (
	SweepOutcomeReminded = "reminded"
	SweepOutcomeOverdue  = "overdue"
	SweepOutcomeSkipped  = "skipped"
	SweepOutcomeFailed   = "failed"
)

// SweepItemResult resultado del barrido de vencimientos para una factura.
type SweepItemResult struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	Outcome       string `json:"outcome"`
	Notified      bool   `json:"notified"`
	Reason        string `json:"reason,omitempty"`
}

// SweepReport respuesta de POST /api/cron/overdue-sweep.
type SweepReport struct {
	RunAt         string            `json:"run_at"`
	Reminders     []SweepItemResult `json:"reminders"`
	Overdue       []SweepItemResult `json:"overdue"`
	RemindersSent int               `json:"reminders_sent"`
	NewlyOverdue  int               `json:"newly_overdue"`
	Skipped       int               `json:"skipped"`
	Failures      int               `json:"failures"`
}
