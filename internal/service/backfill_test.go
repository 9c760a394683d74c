package service

import (
    "context"
    "testing"
    "time"

    "github.com/recoverly/booking-api/internal/model"
)

func legacyPass(id uint64, total, remaining int) *model.TeamPass {
    return &model.TeamPass{
        ID:              id,
        PurchaserEmail:  "legacy@example.com",
        TotalPasses:     total,
        RemainingPasses: remaining,
        ServiceType:     "sauna",
        PaymentStatus:   model.PaymentStatusPaid,
        Version:         1,
    }
}

func TestSynthesizeTickets(t *testing.T) {
    at := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

    t.Run("untouched pass gets all tickets unused", func(t *testing.T) {
        tickets := SynthesizeTickets(legacyPass(1, 3, 3), at)
        if len(tickets) != 3 {
            t.Fatalf("tickets = %d, want 3", len(tickets))
        }
        for i, tk := range tickets {
            if tk.TicketNumber != i+1 {
                t.Fatalf("ticket %d numbered %d", i, tk.TicketNumber)
            }
            if tk.IsUsed {
                t.Fatalf("ticket %d pre-used on a full pass", tk.TicketNumber)
            }
            if tk.TicketID == "" {
                t.Fatalf("ticket %d missing opaque id", tk.TicketNumber)
            }
        }
    })

    t.Run("counter gap becomes pre-used oldest tickets", func(t *testing.T) {
        tickets := SynthesizeTickets(legacyPass(2, 10, 4), at)
        for _, tk := range tickets {
            wantUsed := tk.TicketNumber <= 6
            if tk.IsUsed != wantUsed {
                t.Fatalf("ticket %d used=%v, want %v", tk.TicketNumber, tk.IsUsed, wantUsed)
            }
            if wantUsed {
                if tk.UsedBy == nil || *tk.UsedBy != model.ActorBackfill {
                    t.Fatalf("ticket %d used_by = %v, want backfill sentinel", tk.TicketNumber, tk.UsedBy)
                }
                if tk.UsedAt == nil || !tk.UsedAt.Equal(at) {
                    t.Fatalf("ticket %d used_at = %v", tk.TicketNumber, tk.UsedAt)
                }
            }
        }
    })

    t.Run("drifted counter above total clamps to zero used", func(t *testing.T) {
        tickets := SynthesizeTickets(legacyPass(3, 2, 5), at)
        for _, tk := range tickets {
            if tk.IsUsed {
                t.Fatalf("ticket %d marked used from a negative gap", tk.TicketNumber)
            }
        }
    })
}

func TestBackfillRun(t *testing.T) {
    ctx := context.Background()

    t.Run("repairs passes and leaves ticketed ones alone", func(t *testing.T) {
        ticketed := ticketedPass(1, 3, 1)
        store := newFakePassStore(ticketed, legacyPass(2, 5, 2), legacyPass(3, 4, 4))
        svc := NewBackfillService(store, testLogger())

        rep, err := svc.Run(ctx)
        if err != nil {
            t.Fatalf("Run: %v", err)
        }
        if rep.Repaired != 2 {
            t.Fatalf("repaired = %d, want 2", rep.Repaired)
        }

        p, err := store.GetByID(ctx, 2)
        if err != nil {
            t.Fatalf("GetByID: %v", err)
        }
        if len(p.Tickets) != 5 {
            t.Fatalf("tickets = %d, want 5", len(p.Tickets))
        }
        if got := p.Remaining(); got != 2 {
            t.Fatalf("derived remaining = %d, want counter value 2", got)
        }

        // Counter-only state and ticket state now agree for everyone.
        keep, err := store.GetByID(ctx, 1)
        if err != nil {
            t.Fatalf("GetByID: %v", err)
        }
        if len(keep.Tickets) != 3 {
            t.Fatalf("ticketed pass touched by backfill")
        }
    })

    t.Run("second run is a no-op", func(t *testing.T) {
        store := newFakePassStore(legacyPass(1, 3, 3))
        svc := NewBackfillService(store, testLogger())

        if _, err := svc.Run(ctx); err != nil {
            t.Fatalf("first run: %v", err)
        }
        rep, err := svc.Run(ctx)
        if err != nil {
            t.Fatalf("second run: %v", err)
        }
        if rep.Scanned != 0 || rep.Repaired != 0 {
            t.Fatalf("second run report = %+v, want empty", rep)
        }
    })

    t.Run("skips passes with live writes", func(t *testing.T) {
        store := newFakePassStore(legacyPass(1, 3, 3))
        store.conflicts = 1
        svc := NewBackfillService(store, testLogger())

        rep, err := svc.Run(ctx)
        if err != nil {
            t.Fatalf("Run: %v", err)
        }
        if rep.Skipped != 1 || rep.Repaired != 0 {
            t.Fatalf("report = %+v, want one skip", rep)
        }
    })
}
