package service

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"
    "github.com/sirupsen/logrus"

    "github.com/recoverly/booking-api/internal/model"
    "github.com/recoverly/booking-api/internal/repository"
)

// backfillBatch caps how many passes one backfill run repairs.
const backfillBatch = 500

// BackfillReport summarizes one backfill run.
type BackfillReport struct {
    Scanned  int `json:"scanned"`
    Repaired int `json:"repaired"`
    Skipped  int `json:"skipped"`
}

// BackfillService synthesizes ticket lists for passes created before
// ticket-level tracking existed.  For each pass without tickets it creates
// total_passes tickets numbered 1..N and marks the first
// total - remaining of them as pre-used by the backfill sentinel, so the
// ticket list agrees with the counter from its first write.  Passes that
// already have tickets are never touched, which makes the run idempotent
// per pass.
type BackfillService struct {
    passes PassStore
    log    *logrus.Logger
    now    func() time.Time
}

// NewBackfillService constructs a BackfillService.
func NewBackfillService(passes PassStore, log *logrus.Logger) *BackfillService {
    return &BackfillService{
        passes: passes,
        log:    log,
        now:    func() time.Time { return time.Now().UTC() },
    }
}

// Run repairs up to backfillBatch passes and reports what it did.  A pass
// whose version moves mid-run (a live redemption) is skipped; the next run
// picks it up with fresh state.
func (s *BackfillService) Run(ctx context.Context) (BackfillReport, error) {
    var rep BackfillReport
    passes, err := s.passes.ListWithoutTickets(ctx, backfillBatch)
    if err != nil {
        return rep, err
    }
    for i := range passes {
        p := &passes[i]
        rep.Scanned++
        if len(p.Tickets) > 0 {
            rep.Skipped++
            continue
        }
        tickets := SynthesizeTickets(p, s.now())
        if err := s.passes.ReplaceTickets(ctx, p, tickets); err != nil {
            if errors.Is(err, repository.ErrVersionConflict) {
                s.log.WithField("pass_id", p.ID).Warn("backfill skipped pass with live writes")
                rep.Skipped++
                continue
            }
            return rep, err
        }
        rep.Repaired++
    }
    return rep, nil
}

// SynthesizeTickets builds the full ticket list for a pass that has none.
// Tickets are numbered 1..total_passes; the gap between total and remaining
// is assumed to be the oldest tickets and marked pre-used at the given
// timestamp with the backfill sentinel actor.
func SynthesizeTickets(p *model.TeamPass, at time.Time) []model.Ticket {
    usedCount := p.TotalPasses - p.RemainingPasses
    if usedCount < 0 {
        usedCount = 0
    }
    tickets := make([]model.Ticket, 0, p.TotalPasses)
    for n := 1; n <= p.TotalPasses; n++ {
        t := model.Ticket{
            PassID:       p.ID,
            TicketID:     uuid.NewString(),
            TicketNumber: n,
        }
        if n <= usedCount {
            t.IsUsed = true
            usedAt := at
            t.UsedAt = &usedAt
            actor := model.ActorBackfill
            t.UsedBy = &actor
            st := p.ServiceType
            t.ServiceType = &st
        }
        tickets = append(tickets, t)
    }
    return tickets
}
