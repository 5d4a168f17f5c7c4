// Package memstore implementa en memoria todos los puertos de persistencia para los tests de
// aplicación y de HTTP. RunBilling toma una instantánea del estado y la restaura si fn falla,
// igual que el rollback de PostgreSQL.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

// Operaciones sobre las que se pueden instalar hooks.
const (
	OpInvoiceCreate    = "invoice.create"
	OpInvoiceLifecycle = "invoice.lifecycle"
	OpReminderMark     = "invoice.reminder"
	OpRecurringUpdate  = "recurring.update"
	OpNumberNext       = "numbers.next"
	OpAuditRecord      = "audit.record"
)

// Hook se ejecuta al inicio de la operación con el id de la entidad afectada
// (para numbers.next, el contractor). Si devuelve error la operación falla.
type Hook func(ctx context.Context, id string) error

// Store estado compartido por todos los repos en memoria.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	invoices    map[string]*entity.Invoice
	recurring   map[string]*entity.RecurringInvoice
	templates   map[string]*entity.InvoiceTemplate
	clients     map[string]*entity.Client
	contractors map[string]*entity.Contractor
	users       map[string]*entity.User
	tokens      map[string]*entity.ClientAccessToken
	audit       []*entity.AuditEntry
	sequences   map[string]int

	hooks map[string]Hook
	// committed escrituras de otras transacciones hechas durante la transacción en curso.
	committed []func()
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		invoices:    map[string]*entity.Invoice{},
		recurring:   map[string]*entity.RecurringInvoice{},
		templates:   map[string]*entity.InvoiceTemplate{},
		clients:     map[string]*entity.Client{},
		contractors: map[string]*entity.Contractor{},
		users:       map[string]*entity.User{},
		tokens:      map[string]*entity.ClientAccessToken{},
		sequences:   map[string]int{},
		hooks:       map[string]Hook{},
	}
}

// SetHook instala (o con nil elimina) un hook para op.
func (s *Store) SetHook(op string, h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.hooks, op)
		return
	}
	s.hooks[op] = h
}

func (s *Store) runHook(ctx context.Context, op, id string) error {
	s.mu.Lock()
	h := s.hooks[op]
	s.mu.Unlock()
	if h == nil {
		return ctx.Err()
	}
	if err := h(ctx, id); err != nil {
		return err
	}
	return ctx.Err()
}

// ── Accesores de repos ────────────────────────────────────────────────────────

func (s *Store) Invoices() repository.InvoiceRepository { return &invoiceRepo{s} }
func (s *Store) Numbers() repository.InvoiceNumberAllocator { return &numberAllocator{s} }
func (s *Store) Recurring() repository.RecurringInvoiceRepository { return &recurringRepo{s} }
func (s *Store) Templates() repository.TemplateRepository { return &templateRepo{s} }
func (s *Store) Clients() repository.ClientRepository { return &clientRepo{s} }
func (s *Store) Contractors() repository.ContractorRepository { return &contractorRepo{s} }
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }
func (s *Store) AccessTokens() repository.AccessTokenRepository { return &tokenRepo{s} }
func (s *Store) Audit() repository.AuditRepository { return &auditRepo{s} }
func (s *Store) Analytics() repository.AnalyticsRepository { return &analyticsRepo{s} }

// RunBilling serializa las transacciones y restaura la instantánea si fn falla o si el
// contexto se canceló antes del commit.
func (s *Store) RunBilling(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	recurringRepo repository.RecurringInvoiceRepository,
	templateRepo repository.TemplateRepository,
	numbers repository.InvoiceNumberAllocator,
	auditRepo repository.AuditRepository,
) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	snap := s.snapshot()
	defer s.takeCommitted()
	if err := fn(s.Invoices(), s.Recurring(), s.Templates(), s.Numbers(), s.Audit()); err != nil {
		s.rollback(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		s.rollback(snap)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Concurrent aplica fn como otra transacción que confirma mientras la actual sigue abierta
// (normalmente desde un hook). Sus escrituras sobreviven al rollback de la transacción en curso.
func (s *Store) Concurrent(fn func()) {
	fn()
	s.mu.Lock()
	s.committed = append(s.committed, fn)
	s.mu.Unlock()
}

func (s *Store) takeCommitted() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.committed
	s.committed = nil
	return out
}

// rollback restaura la instantánea y vuelve a aplicar lo confirmado por otras transacciones.
func (s *Store) rollback(snap snapshot) {
	s.restore(snap)
	for _, fn := range s.takeCommitted() {
		fn()
	}
}

// RunRegistration restaura contractors y usuarios si fn falla.
func (s *Store) RunRegistration(ctx context.Context, fn func(
	contractorRepo repository.ContractorRepository,
	userRepo repository.UserRepository,
) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	contractors := make(map[string]*entity.Contractor, len(s.contractors))
	for k, v := range s.contractors {
		contractors[k] = v
	}
	users := make(map[string]*entity.User, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	s.mu.Unlock()
	if err := fn(s.Contractors(), s.Users()); err != nil {
		s.mu.Lock()
		s.contractors, s.users = contractors, users
		s.mu.Unlock()
		return err
	}
	return nil
}

type snapshot struct {
	invoices  map[string]*entity.Invoice
	recurring map[string]*entity.RecurringInvoice
	audit     []*entity.AuditEntry
	sequences map[string]int
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		invoices:  make(map[string]*entity.Invoice, len(s.invoices)),
		recurring: make(map[string]*entity.RecurringInvoice, len(s.recurring)),
		audit:     append([]*entity.AuditEntry(nil), s.audit...),
		sequences: make(map[string]int, len(s.sequences)),
	}
	for k, v := range s.invoices {
		snap.invoices[k] = cloneInvoice(v)
	}
	for k, v := range s.recurring {
		snap.recurring[k] = cloneRecurring(v)
	}
	for k, v := range s.sequences {
		snap.sequences[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = snap.invoices
	s.recurring = snap.recurring
	s.audit = snap.audit
	s.sequences = snap.sequences
}

// ── Helpers de inspección para tests ──────────────────────────────────────────

// AllInvoices devuelve copias de todas las facturas.
func (s *Store) AllInvoices() []*entity.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		out = append(out, cloneInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNumber < out[j].InvoiceNumber })
	return out
}

// AuditActions acciones registradas para una entidad, en orden.
func (s *Store) AuditActions(entityID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.audit {
		if e.EntityID == entityID {
			out = append(out, e.Action)
		}
	}
	return out
}

// ── clones ────────────────────────────────────────────────────────────────────

func cloneInvoice(inv *entity.Invoice) *entity.Invoice {
	c := *inv
	c.LineItems = append([]entity.LineItem(nil), inv.LineItems...)
	return &c
}

func cloneRecurring(r *entity.RecurringInvoice) *entity.RecurringInvoice {
	c := *r
	return &c
}

func cloneTemplate(t *entity.InvoiceTemplate) *entity.InvoiceTemplate {
	c := *t
	c.Items = append([]entity.TemplateItem(nil), t.Items...)
	return &c
}

// ── invoices ──────────────────────────────────────────────────────────────────

type invoiceRepo struct{ s *Store }

func (r *invoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if err := r.s.runHook(ctx, OpInvoiceCreate, inv.ID); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	for _, other := range r.s.invoices {
		if other.ContractorID == inv.ContractorID && other.InvoiceNumber == inv.InvoiceNumber {
			return fmt.Errorf("%w: número de factura %s", domain.ErrDuplicate, inv.InvoiceNumber)
		}
		if inv.RecurringInvoiceID != nil && other.RecurringInvoiceID != nil &&
			*other.RecurringInvoiceID == *inv.RecurringInvoiceID &&
			entity.DateOf(other.IssueDate).Equal(entity.DateOf(inv.IssueDate)) {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyGenerated, inv.IssueDate.Format(entity.DateFormat))
		}
	}
	c := cloneInvoice(inv)
	c.LineItems = nil
	r.s.invoices[inv.ID] = c
	return nil
}

func (r *invoiceRepo) CreateLineItem(ctx context.Context, item *entity.LineItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[item.InvoiceID]
	if !ok {
		return fmt.Errorf("insert line item: %w", domain.ErrNotFound)
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	inv.LineItems = append(inv.LineItems, *item)
	return nil
}

func (r *invoiceRepo) ReplaceLineItems(ctx context.Context, invoiceID string, items []entity.LineItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[invoiceID]
	if !ok {
		return fmt.Errorf("replace line items: %w", domain.ErrNotFound)
	}
	if inv.Status != entity.InvoiceStatusDraft {
		return domain.ErrInvoiceLocked
	}
	inv.LineItems = nil
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		items[i].InvoiceID = invoiceID
		inv.LineItems = append(inv.LineItems, items[i])
	}
	return nil
}

func (r *invoiceRepo) UpdateDraft(ctx context.Context, in *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[in.ID]
	if !ok {
		return fmt.Errorf("update invoice: %w", domain.ErrNotFound)
	}
	if inv.Status != entity.InvoiceStatusDraft {
		return domain.ErrInvoiceLocked
	}
	inv.DueDate = in.DueDate
	inv.VATRatePercent = in.VATRatePercent
	inv.SubtotalCents = in.SubtotalCents
	inv.VATAmountCents = in.VATAmountCents
	inv.TotalCents = in.TotalCents
	inv.Notes = in.Notes
	inv.UpdatedAt = in.UpdatedAt
	return nil
}

func (r *invoiceRepo) UpdateLifecycle(ctx context.Context, in *entity.Invoice, expected entity.InvoiceStatus) (bool, error) {
	if err := r.s.runHook(ctx, OpInvoiceLifecycle, in.ID); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[in.ID]
	if !ok || inv.Status != expected {
		return false, nil
	}
	inv.Status = in.Status
	inv.SentAt = in.SentAt
	inv.ViewedAt = in.ViewedAt
	inv.PaidAt = in.PaidAt
	inv.UpdatedAt = in.UpdatedAt
	return true, nil
}

func (r *invoiceRepo) MarkReminderSent(ctx context.Context, id string, at time.Time) (bool, error) {
	if err := r.s.runHook(ctx, OpReminderMark, id); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.ReminderSentAt != nil {
		return false, nil
	}
	t := at
	inv.ReminderSentAt = &t
	inv.LastReminderAt = &t
	inv.UpdatedAt = at
	return true, nil
}

func (r *invoiceRepo) MarkApproved(ctx context.Context, id string, at time.Time, approvedBy string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.ClientApprovedAt != nil || inv.Status.IsTerminal() {
		return false, nil
	}
	t := at
	inv.ClientApprovedAt = &t
	inv.ClientApprovedBy = approvedBy
	inv.UpdatedAt = at
	return true, nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, nil
	}
	c := cloneInvoice(inv)
	c.LineItems = nil
	return c, nil
}

func (r *invoiceRepo) GetLineItems(ctx context.Context, invoiceID string) ([]entity.LineItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[invoiceID]
	if !ok {
		return nil, nil
	}
	return append([]entity.LineItem(nil), inv.LineItems...), nil
}

func (r *invoiceRepo) List(ctx context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range r.s.invoices {
		if !matches(inv, f) {
			continue
		}
		c := cloneInvoice(inv)
		c.LineItems = nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssueDate.Equal(out[j].IssueDate) {
			return out[i].IssueDate.After(out[j].IssueDate)
		}
		return out[i].InvoiceNumber > out[j].InvoiceNumber
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(inv *entity.Invoice, f repository.InvoiceFilter) bool {
	if f.ContractorID != "" && inv.ContractorID != f.ContractorID {
		return false
	}
	if f.ClientID != "" && inv.ClientID != f.ClientID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if inv.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	due := entity.DateOf(inv.DueDate)
	if f.DueFrom != nil && due.Before(entity.DateOf(*f.DueFrom)) {
		return false
	}
	if f.DueTo != nil && due.After(entity.DateOf(*f.DueTo)) {
		return false
	}
	if f.DueBefore != nil && !due.Before(entity.DateOf(*f.DueBefore)) {
		return false
	}
	if f.ReminderPending && inv.ReminderSentAt != nil {
		return false
	}
	return true
}

// ── numeración ────────────────────────────────────────────────────────────────

type numberAllocator struct{ s *Store }

func (n *numberAllocator) Next(ctx context.Context, contractorID string, allocatedAt time.Time) (string, error) {
	if err := n.s.runHook(ctx, OpNumberNext, contractorID); err != nil {
		return "", err
	}
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	year := allocatedAt.Year()
	key := fmt.Sprintf("%s/%d", contractorID, year)
	n.s.sequences[key]++
	return fmt.Sprintf("%d-%04d", year, n.s.sequences[key]), nil
}

// ── recurrentes ───────────────────────────────────────────────────────────────

type recurringRepo struct{ s *Store }

func (r *recurringRepo) Create(ctx context.Context, sch *entity.RecurringInvoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sch.ID == "" {
		sch.ID = uuid.New().String()
	}
	r.s.recurring[sch.ID] = cloneRecurring(sch)
	return nil
}

func (r *recurringRepo) Update(ctx context.Context, sch *entity.RecurringInvoice) error {
	if err := r.s.runHook(ctx, OpRecurringUpdate, sch.ID); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.recurring[sch.ID]; !ok {
		return fmt.Errorf("update recurring invoice: %w", domain.ErrNotFound)
	}
	r.s.recurring[sch.ID] = cloneRecurring(sch)
	return nil
}

func (r *recurringRepo) GetByID(ctx context.Context, id string) (*entity.RecurringInvoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sch, ok := r.s.recurring[id]
	if !ok {
		return nil, nil
	}
	return cloneRecurring(sch), nil
}

// GetForUpdate en memoria el bloqueo lo da la serialización de RunBilling.
func (r *recurringRepo) GetForUpdate(ctx context.Context, id string) (*entity.RecurringInvoice, error) {
	return r.GetByID(ctx, id)
}

func (r *recurringRepo) ListByContractor(ctx context.Context, contractorID string) ([]*entity.RecurringInvoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.RecurringInvoice
	for _, sch := range r.s.recurring {
		if sch.ContractorID == contractorID {
			out = append(out, cloneRecurring(sch))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextInvoiceDate.Before(out[j].NextInvoiceDate) })
	return out, nil
}

func (r *recurringRepo) ListDue(ctx context.Context, today time.Time) ([]*entity.RecurringInvoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.RecurringInvoice
	for _, sch := range r.s.recurring {
		if sch.IsDue(today) {
			out = append(out, cloneRecurring(sch))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ── plantillas ────────────────────────────────────────────────────────────────

type templateRepo struct{ s *Store }

func (r *templateRepo) Create(ctx context.Context, t *entity.InvoiceTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	for i := range t.Items {
		if t.Items[i].ID == "" {
			t.Items[i].ID = uuid.New().String()
		}
		t.Items[i].TemplateID = t.ID
		t.Items[i].Position = i + 1
	}
	r.s.templates[t.ID] = cloneTemplate(t)
	return nil
}

func (r *templateRepo) GetByID(ctx context.Context, id string) (*entity.InvoiceTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.templates[id]
	if !ok {
		return nil, nil
	}
	return cloneTemplate(t), nil
}

func (r *templateRepo) ListByContractor(ctx context.Context, contractorID string) ([]*entity.InvoiceTemplate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.InvoiceTemplate
	for _, t := range r.s.templates {
		if t.ContractorID == contractorID {
			out = append(out, cloneTemplate(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ── clientes, contractors y usuarios ──────────────────────────────────────────

type clientRepo struct{ s *Store }

func (r *clientRepo) Create(ctx context.Context, c *entity.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	cp := *c
	r.s.clients[c.ID] = &cp
	return nil
}

func (r *clientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *clientRepo) ListByContractor(ctx context.Context, contractorID string, limit, offset int) ([]*entity.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Client
	for _, c := range r.s.clients {
		if c.ContractorID == contractorID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type contractorRepo struct{ s *Store }

func (r *contractorRepo) Create(ctx context.Context, c *entity.Contractor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	cp := *c
	r.s.contractors[c.ID] = &cp
	return nil
}

func (r *contractorRepo) GetByID(ctx context.Context, id string) (*entity.Contractor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contractors[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *contractorRepo) UpdatePreferences(ctx context.Context, id string, prefs entity.NotificationPreferences) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contractors[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Preferences = prefs
	return nil
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// ── tokens del portal ─────────────────────────────────────────────────────────

type tokenRepo struct{ s *Store }

func (r *tokenRepo) Create(ctx context.Context, t *entity.ClientAccessToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	cp := *t
	r.s.tokens[t.ID] = &cp
	return nil
}

func (r *tokenRepo) GetByToken(ctx context.Context, token string) (*entity.ClientAccessToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *tokenRepo) ListByClient(ctx context.Context, clientID string) ([]*entity.ClientAccessToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ClientAccessToken
	for _, t := range r.s.tokens {
		if t.ClientID == clientID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *tokenRepo) Delete(ctx context.Context, contractorID, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[id]
	if !ok || t.ContractorID != contractorID {
		return false, nil
	}
	delete(r.s.tokens, id)
	return true, nil
}

func (r *tokenRepo) Touch(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.tokens[id]; ok {
		ts := at
		t.LastUsedAt = &ts
	}
	return nil
}

// ── auditoría ─────────────────────────────────────────────────────────────────

type auditRepo struct{ s *Store }

func (r *auditRepo) Record(ctx context.Context, e *entity.AuditEntry) error {
	if err := r.s.runHook(ctx, OpAuditRecord, e.EntityID); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	cp := *e
	r.s.audit = append(r.s.audit, &cp)
	return nil
}

func (r *auditRepo) ListByEntity(ctx context.Context, contractorID, entityType, entityID string) ([]*entity.AuditEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.AuditEntry
	for _, e := range r.s.audit {
		if e.ContractorID == contractorID && e.EntityType == entityType && e.EntityID == entityID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ── analytics ─────────────────────────────────────────────────────────────────

type analyticsRepo struct{ s *Store }

func (r *analyticsRepo) StatusTotals(ctx context.Context, contractorID string) ([]repository.StatusTotal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byStatus := map[entity.InvoiceStatus]*repository.StatusTotal{}
	for _, inv := range r.s.invoices {
		if inv.ContractorID != contractorID {
			continue
		}
		st, ok := byStatus[inv.Status]
		if !ok {
			st = &repository.StatusTotal{Status: inv.Status}
			byStatus[inv.Status] = st
		}
		st.Count++
		st.TotalCents += inv.TotalCents
	}
	var out []repository.StatusTotal
	for _, s := range entity.AllInvoiceStatuses {
		if st, ok := byStatus[s]; ok {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (r *analyticsRepo) PaidBetween(ctx context.Context, contractorID string, from, to time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, inv := range r.s.invoices {
		if inv.ContractorID != contractorID || inv.Status != entity.InvoiceStatusPaid || inv.PaidAt == nil {
			continue
		}
		if !inv.PaidAt.Before(from) && inv.PaidAt.Before(to) {
			total += inv.TotalCents
		}
	}
	return total, nil
}

func (r *analyticsRepo) MonthlyRevenue(ctx context.Context, contractorID string, from time.Time) ([]repository.MonthRevenue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byMonth := map[time.Time]int64{}
	for _, inv := range r.s.invoices {
		if inv.ContractorID != contractorID || inv.Status != entity.InvoiceStatusPaid || inv.PaidAt == nil {
			continue
		}
		if inv.PaidAt.Before(from) {
			continue
		}
		y, m, _ := inv.PaidAt.UTC().Date()
		byMonth[time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)] += inv.TotalCents
	}
	out := make([]repository.MonthRevenue, 0, len(byMonth))
	for m, total := range byMonth {
		out = append(out, repository.MonthRevenue{Month: m, TotalCents: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}
