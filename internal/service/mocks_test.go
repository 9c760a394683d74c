package service

// In-memory store fakes shared by the service tests.  Each fake mirrors
// the observable behavior of its MySQL counterpart: lookups return deep
// copies, versioned writes compare the version the caller loaded and
// report ErrVersionConflict on a mismatch, and the refund fake reproduces
// the insert-or-readback idempotency of the real table.

import (
    "context"
    "io"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/recoverly/booking-api/internal/model"
    "github.com/recoverly/booking-api/internal/payment"
    "github.com/recoverly/booking-api/internal/queue"
    "github.com/recoverly/booking-api/internal/repository"
)

func testLogger() *logrus.Logger {
    log := logrus.New()
    log.SetOutput(io.Discard)
    return log
}

func clonePass(p *model.TeamPass) *model.TeamPass {
    cp := *p
    cp.Tickets = append([]model.Ticket(nil), p.Tickets...)
    cp.History = append([]model.Redemption(nil), p.History...)
    return &cp
}

type fakePassStore struct {
    passes map[uint64]*model.TeamPass

    // conflicts makes the next N versioned writes fail with
    // ErrVersionConflict before touching state.
    conflicts int

    applied  []model.Redemption
    getCalls int
}

func newFakePassStore(passes ...*model.TeamPass) *fakePassStore {
    f := &fakePassStore{passes: make(map[uint64]*model.TeamPass)}
    for _, p := range passes {
        f.passes[p.ID] = clonePass(p)
    }
    return f
}

func (f *fakePassStore) GetByID(_ context.Context, id uint64) (*model.TeamPass, error) {
    f.getCalls++
    p, ok := f.passes[id]
    if !ok {
        return nil, repository.ErrPassNotFound
    }
    return clonePass(p), nil
}

func (f *fakePassStore) GetBySessionID(_ context.Context, sessionID string) (*model.TeamPass, error) {
    for _, p := range f.passes {
        if p.StripeSessionID != nil && *p.StripeSessionID == sessionID {
            return clonePass(p), nil
        }
    }
    return nil, repository.ErrPassNotFound
}

func (f *fakePassStore) FilterByEmail(_ context.Context, email string) ([]model.TeamPass, error) {
    var out []model.TeamPass
    for _, p := range f.passes {
        if p.PurchaserEmail == email {
            out = append(out, *clonePass(p))
        }
    }
    return out, nil
}

func (f *fakePassStore) ListWithoutTickets(_ context.Context, limit int) ([]model.TeamPass, error) {
    var out []model.TeamPass
    for _, p := range f.passes {
        if len(p.Tickets) == 0 {
            out = append(out, *clonePass(p))
        }
        if len(out) == limit {
            break
        }
    }
    return out, nil
}

func (f *fakePassStore) Create(_ context.Context, p *model.TeamPass) error {
    if p.ID == 0 {
        p.ID = uint64(len(f.passes) + 1)
    }
    for i := range p.Tickets {
        p.Tickets[i].PassID = p.ID
    }
    f.passes[p.ID] = clonePass(p)
    return nil
}

func (f *fakePassStore) ApplyRedemption(_ context.Context, p *model.TeamPass, ticket *model.Ticket, rec model.Redemption) error {
    if f.conflicts > 0 {
        f.conflicts--
        return repository.ErrVersionConflict
    }
    stored, ok := f.passes[p.ID]
    if !ok {
        return repository.ErrPassNotFound
    }
    if stored.Version != p.Version {
        return repository.ErrVersionConflict
    }
    next := clonePass(p)
    next.Version++
    next.RemainingPasses = p.Remaining()
    next.History = append(next.History, rec)
    f.passes[p.ID] = next
    f.applied = append(f.applied, rec)
    p.Version++
    return nil
}

func (f *fakePassStore) ReplaceTickets(_ context.Context, p *model.TeamPass, tickets []model.Ticket) error {
    if f.conflicts > 0 {
        f.conflicts--
        return repository.ErrVersionConflict
    }
    stored, ok := f.passes[p.ID]
    if !ok {
        return repository.ErrPassNotFound
    }
    if stored.Version != p.Version {
        return repository.ErrVersionConflict
    }
    next := clonePass(stored)
    next.Tickets = append([]model.Ticket(nil), tickets...)
    next.Version++
    f.passes[p.ID] = next
    p.Tickets = tickets
    p.Version++
    return nil
}

func (f *fakePassStore) MarkRefunded(_ context.Context, id, version uint64) error {
    stored, ok := f.passes[id]
    if !ok {
        return repository.ErrPassNotFound
    }
    if stored.Version != version {
        return repository.ErrVersionConflict
    }
    stored.PaymentStatus = model.PaymentStatusRefunded
    stored.Version++
    return nil
}

type fakeBookingStore struct {
    bookings map[uint64]*model.Booking
}

func newFakeBookingStore(bookings ...*model.Booking) *fakeBookingStore {
    f := &fakeBookingStore{bookings: make(map[uint64]*model.Booking)}
    for _, b := range bookings {
        cp := *b
        f.bookings[b.ID] = &cp
    }
    return f
}

func (f *fakeBookingStore) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
    b, ok := f.bookings[id]
    if !ok {
        return nil, repository.ErrBookingNotFound
    }
    cp := *b
    return &cp, nil
}

func (f *fakeBookingStore) GetBySessionID(_ context.Context, sessionID string) (*model.Booking, error) {
    for _, b := range f.bookings {
        if b.StripeSessionID != nil && *b.StripeSessionID == sessionID {
            cp := *b
            return &cp, nil
        }
    }
    return nil, repository.ErrBookingNotFound
}

func (f *fakeBookingStore) Create(_ context.Context, b *model.Booking) error {
    if b.ID == 0 {
        b.ID = uint64(len(f.bookings) + 1)
    }
    cp := *b
    f.bookings[b.ID] = &cp
    return nil
}

func (f *fakeBookingStore) Reschedule(_ context.Context, id, version uint64, date time.Time, timeOfDay string) error {
    b, ok := f.bookings[id]
    if !ok {
        return repository.ErrBookingNotFound
    }
    if b.Version != version {
        return repository.ErrVersionConflict
    }
    b.AppointmentDate = date
    b.AppointmentTime = timeOfDay
    b.Version++
    return nil
}

func (f *fakeBookingStore) MarkCancelledAndRefunded(_ context.Context, id, version uint64) error {
    b, ok := f.bookings[id]
    if !ok {
        return repository.ErrBookingNotFound
    }
    if b.Version != version {
        return repository.ErrVersionConflict
    }
    b.Status = model.BookingStatusCancelled
    b.PaymentStatus = model.PaymentStatusRefunded
    b.Version++
    return nil
}

type fakePurchaseStore struct {
    purchases map[uint64]*model.ServicePurchase
}

func newFakePurchaseStore(purchases ...*model.ServicePurchase) *fakePurchaseStore {
    f := &fakePurchaseStore{purchases: make(map[uint64]*model.ServicePurchase)}
    for _, p := range purchases {
        cp := *p
        f.purchases[p.ID] = &cp
    }
    return f
}

func (f *fakePurchaseStore) GetByID(_ context.Context, id uint64) (*model.ServicePurchase, error) {
    p, ok := f.purchases[id]
    if !ok {
        return nil, repository.ErrPurchaseNotFound
    }
    cp := *p
    return &cp, nil
}

func (f *fakePurchaseStore) GetBySessionID(_ context.Context, sessionID string) (*model.ServicePurchase, error) {
    for _, p := range f.purchases {
        if p.StripeSessionID != nil && *p.StripeSessionID == sessionID {
            cp := *p
            return &cp, nil
        }
    }
    return nil, repository.ErrPurchaseNotFound
}

func (f *fakePurchaseStore) Create(_ context.Context, p *model.ServicePurchase) error {
    if p.ID == 0 {
        p.ID = uint64(len(f.purchases) + 1)
    }
    cp := *p
    f.purchases[p.ID] = &cp
    return nil
}

func (f *fakePurchaseStore) MarkRefunded(_ context.Context, id, version uint64) error {
    p, ok := f.purchases[id]
    if !ok {
        return repository.ErrPurchaseNotFound
    }
    if p.Version != version {
        return repository.ErrVersionConflict
    }
    p.PaymentStatus = model.PaymentStatusRefunded
    p.Version++
    return nil
}

type fakeRefundStore struct {
    byRef map[string]*model.Refund

    markRefundedErr error
    markSyncedErr   error
}

func newFakeRefundStore() *fakeRefundStore {
    return &fakeRefundStore{byRef: make(map[string]*model.Refund)}
}

func (f *fakeRefundStore) GetByPaymentRef(_ context.Context, paymentRef string) (*model.Refund, error) {
    r, ok := f.byRef[paymentRef]
    if !ok {
        return nil, repository.ErrRefundNotFound
    }
    cp := *r
    return &cp, nil
}

func (f *fakeRefundStore) Create(_ context.Context, rf *model.Refund) error {
    if existing, ok := f.byRef[rf.PaymentRef]; ok {
        *rf = *existing
        return nil
    }
    rf.ID = uint64(len(f.byRef) + 1)
    rf.State = model.RefundStatePending
    cp := *rf
    f.byRef[rf.PaymentRef] = &cp
    return nil
}

func (f *fakeRefundStore) MarkRefunded(_ context.Context, paymentRef, stripeRefundID string) error {
    if f.markRefundedErr != nil {
        return f.markRefundedErr
    }
    r, ok := f.byRef[paymentRef]
    if ok && r.State == model.RefundStatePending {
        r.State = model.RefundStateRefunded
        id := stripeRefundID
        r.StripeRefundID = &id
    }
    return nil
}

func (f *fakeRefundStore) MarkSynced(_ context.Context, paymentRef string) error {
    if f.markSyncedErr != nil {
        return f.markSyncedErr
    }
    r, ok := f.byRef[paymentRef]
    if ok && r.State == model.RefundStateRefunded {
        r.State = model.RefundStateSynced
    }
    return nil
}

func (f *fakeRefundStore) ListUnsynced(_ context.Context, limit int) ([]model.Refund, error) {
    var out []model.Refund
    for _, r := range f.byRef {
        if r.State == model.RefundStateRefunded {
            out = append(out, *r)
        }
        if len(out) == limit {
            break
        }
    }
    return out, nil
}

type refundCall struct {
    paymentRef  string
    amountCents int64
}

type fakePaymentAPI struct {
    sessions map[string]*payment.Session

    createdSessions []payment.CreateSessionRequest
    refundCalls     []refundCall

    refundErr  error
    sessionErr error
}

func newFakePaymentAPI(sessions ...*payment.Session) *fakePaymentAPI {
    f := &fakePaymentAPI{sessions: make(map[string]*payment.Session)}
    for _, s := range sessions {
        f.sessions[s.ID] = s
    }
    return f
}

func (f *fakePaymentAPI) CreateCheckoutSession(_ context.Context, req payment.CreateSessionRequest) (*payment.Session, error) {
    if f.sessionErr != nil {
        return nil, f.sessionErr
    }
    f.createdSessions = append(f.createdSessions, req)
    var amount int64
    for _, li := range req.LineItems {
        amount += li.Amount * li.Quantity
    }
    return &payment.Session{
        ID:       "cs_test_fake",
        URL:      "https://pay.example.com/cs_test_fake",
        Amount:   amount,
        Currency: "usd",
        Metadata: req.Metadata,
    }, nil
}

func (f *fakePaymentAPI) RetrieveSession(_ context.Context, sessionID string) (*payment.Session, error) {
    if f.sessionErr != nil {
        return nil, f.sessionErr
    }
    s, ok := f.sessions[sessionID]
    if !ok {
        return nil, &payment.APIError{StatusCode: 404, Message: "no such session"}
    }
    return s, nil
}

func (f *fakePaymentAPI) CreateRefund(_ context.Context, paymentRef string, amountCents int64) (*payment.Refund, error) {
    if f.refundErr != nil {
        return nil, f.refundErr
    }
    f.refundCalls = append(f.refundCalls, refundCall{paymentRef: paymentRef, amountCents: amountCents})
    return &payment.Refund{ID: "re_test_1", Amount: amountCents, Status: "succeeded"}, nil
}

type fakePublisher struct {
    redeemed []queue.PassRedeemedEvent
    settled  []queue.RefundSettledEvent
    err      error
}

func (f *fakePublisher) PublishPassRedeemed(_ context.Context, ev queue.PassRedeemedEvent) error {
    if f.err != nil {
        return f.err
    }
    f.redeemed = append(f.redeemed, ev)
    return nil
}

func (f *fakePublisher) PublishRefundSettled(_ context.Context, ev queue.RefundSettledEvent) error {
    if f.err != nil {
        return f.err
    }
    f.settled = append(f.settled, ev)
    return nil
}
