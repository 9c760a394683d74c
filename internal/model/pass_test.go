package model

import (
    "testing"
    "time"
)

func passWithTickets(total int, used ...int) *TeamPass {
    usedSet := make(map[int]bool, len(used))
    for _, n := range used {
        usedSet[n] = true
    }
    p := &TeamPass{TotalPasses: total, RemainingPasses: total}
    for n := 1; n <= total; n++ {
        p.Tickets = append(p.Tickets, Ticket{
            TicketID:     "t" + string(rune('0'+n)),
            TicketNumber: n,
            IsUsed:       usedSet[n],
        })
    }
    return p
}

func TestRemaining(t *testing.T) {
    t.Run("derived from unused tickets", func(t *testing.T) {
        p := passWithTickets(5, 1, 3)
        // The stored counter disagrees on purpose; tickets win.
        p.RemainingPasses = 99
        if got := p.Remaining(); got != 3 {
            t.Fatalf("Remaining() = %d, want 3", got)
        }
        if got := p.UsedCount(); got != 2 {
            t.Fatalf("UsedCount() = %d, want 2", got)
        }
    })

    t.Run("legacy pass falls back to the counter", func(t *testing.T) {
        p := &TeamPass{TotalPasses: 10, RemainingPasses: 7}
        if got := p.Remaining(); got != 7 {
            t.Fatalf("Remaining() = %d, want 7", got)
        }
    })
}

func TestFirstUnusedTicket(t *testing.T) {
    t.Run("lowest number wins regardless of slice order", func(t *testing.T) {
        p := passWithTickets(4, 1)
        p.Tickets[1], p.Tickets[3] = p.Tickets[3], p.Tickets[1]
        got := p.FirstUnusedTicket()
        if got == nil || got.TicketNumber != 2 {
            t.Fatalf("FirstUnusedTicket() = %+v, want ticket 2", got)
        }
    })

    t.Run("all used", func(t *testing.T) {
        p := passWithTickets(2, 1, 2)
        if got := p.FirstUnusedTicket(); got != nil {
            t.Fatalf("FirstUnusedTicket() = %+v, want nil", got)
        }
    })

    t.Run("no tickets", func(t *testing.T) {
        p := &TeamPass{TotalPasses: 3, RemainingPasses: 3}
        if got := p.FirstUnusedTicket(); got != nil {
            t.Fatalf("FirstUnusedTicket() = %+v, want nil", got)
        }
    })
}

func TestTicketByID(t *testing.T) {
    p := passWithTickets(3)
    if got := p.TicketByID("t2"); got == nil || got.TicketNumber != 2 {
        t.Fatalf("TicketByID(t2) = %+v", got)
    }
    if got := p.TicketByID("missing"); got != nil {
        t.Fatalf("TicketByID(missing) = %+v, want nil", got)
    }
}

func TestAppointmentAt(t *testing.T) {
    b := &Booking{
        AppointmentDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
        AppointmentTime: "14:30",
    }
    want := time.Date(2026, 6, 1, 14, 30, 0, 0, time.UTC)
    if got := b.AppointmentAt(); !got.Equal(want) {
        t.Fatalf("AppointmentAt() = %v, want %v", got, want)
    }

    b.AppointmentTime = "bogus"
    want = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
    if got := b.AppointmentAt(); !got.Equal(want) {
        t.Fatalf("AppointmentAt() with bad time = %v, want midnight", got)
    }
}
