package service

import (
    "context"
    "errors"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/recoverly/booking-api/internal/model"
    "github.com/recoverly/booking-api/internal/queue"
    "github.com/recoverly/booking-api/internal/repository"
)

// redeemRetries bounds how many times a redemption is retried after losing
// a version race before surfacing the conflict to the caller.
const redeemRetries = 3

// RedemptionService consumes team-pass balance.  Every mode runs the same
// sequence: load the pass, run the mode's pre-checks (ticket existence and
// used-state for shared links), check exhaustion, select the ticket to
// consume, then hand counter, ticket and history to the store as one
// versioned write.  A lost version race reloads fresh state and retries, so
// two concurrent redemptions can never both consume the same unit.
type RedemptionService struct {
    passes PassStore
    events EventPublisher
    log    *logrus.Logger
    now    func() time.Time
}

// NewRedemptionService constructs a RedemptionService.  events may be nil
// when no broker is configured; publishing is skipped.
func NewRedemptionService(passes PassStore, events EventPublisher, log *logrus.Logger) *RedemptionService {
    return &RedemptionService{
        passes: passes,
        events: events,
        log:    log,
        now:    func() time.Time { return time.Now().UTC() },
    }
}

// redeemMode describes what varies between the three entry points: the
// recorded actor and how the ticket to consume is found.  precheck runs
// before the exhaustion check and rejects tickets that cannot be redeemed
// regardless of balance; choose runs after it and returns the ticket to
// mark used, or nil for a counter-only redemption on a legacy pass.
type redeemMode struct {
    actor    string
    precheck func(*model.TeamPass) error
    choose   func(*model.TeamPass) (*model.Ticket, error)
}

// RedeemAsAdmin consumes one unit of the pass on behalf of a customer.
// The acting staff member's email is recorded as the redeeming actor.
// Legacy passes without tickets are supported: only the counter moves.
func (s *RedemptionService) RedeemAsAdmin(ctx context.Context, passID uint64, serviceType, adminEmail string) (*model.TeamPass, error) {
    return s.redeem(ctx, passID, serviceType, redeemMode{
        actor: adminEmail,
        choose: func(p *model.TeamPass) (*model.Ticket, error) {
            // nil is fine here: legacy passes redeem against the counter.
            return p.FirstUnusedTicket(), nil
        },
    })
}

// RedeemSelf consumes the lowest-numbered unused ticket on behalf of the
// pass holder.  The redemption history records the self-service sentinel
// as the actor.
func (s *RedemptionService) RedeemSelf(ctx context.Context, passID uint64, serviceType string) (*model.TeamPass, error) {
    return s.redeem(ctx, passID, serviceType, redeemMode{
        actor: model.ActorSelfService,
        choose: func(p *model.TeamPass) (*model.Ticket, error) {
            t := p.FirstUnusedTicket()
            if t == nil {
                return nil, ErrNoTicketAvailable
            }
            return t, nil
        },
    })
}

// RedeemSharedTicket consumes one specific ticket, addressed by its opaque
// id from a shareable link.  The ticket id doubles as the recorded actor.
// An already-used ticket is reported as such even when the pass is also
// exhausted; the two checks are independent and both must pass.
func (s *RedemptionService) RedeemSharedTicket(ctx context.Context, passID uint64, ticketID, serviceType string) (*model.TeamPass, error) {
    return s.redeem(ctx, passID, serviceType, redeemMode{
        actor: ticketID,
        precheck: func(p *model.TeamPass) error {
            t := p.TicketByID(ticketID)
            if t == nil {
                return ErrTicketNotFound
            }
            if t.IsUsed {
                return ErrTicketAlreadyUsed
            }
            return nil
        },
        choose: func(p *model.TeamPass) (*model.Ticket, error) {
            return p.TicketByID(ticketID), nil
        },
    })
}

// redeem is the shared redemption loop.  The check order is a fixed
// contract: existence, then used-state, then exhaustion, then ticket
// availability, each short-circuiting with its own error.
func (s *RedemptionService) redeem(ctx context.Context, passID uint64, serviceType string, mode redeemMode) (*model.TeamPass, error) {
    var lastErr error
    for attempt := 0; attempt < redeemRetries; attempt++ {
        p, err := s.passes.GetByID(ctx, passID)
        if err != nil {
            return nil, err
        }
        if mode.precheck != nil {
            if err := mode.precheck(p); err != nil {
                return nil, err
            }
        }
        if p.Remaining() <= 0 {
            return nil, ErrExhausted
        }
        ticket, err := mode.choose(p)
        if err != nil {
            return nil, err
        }

        redeemedAt := s.now()
        if ticket != nil {
            ticket.IsUsed = true
            ticket.UsedAt = &redeemedAt
            used := mode.actor
            ticket.UsedBy = &used
            st := serviceType
            ticket.ServiceType = &st
        } else {
            // Legacy pass: the stored counter is the only balance.
            p.RemainingPasses--
        }
        rec := model.Redemption{
            PassID:      p.ID,
            RedeemedAt:  redeemedAt,
            RedeemedBy:  mode.actor,
            ServiceType: serviceType,
        }

        err = s.passes.ApplyRedemption(ctx, p, ticket, rec)
        if errors.Is(err, repository.ErrVersionConflict) {
            lastErr = err
            s.log.WithFields(logrus.Fields{"pass_id": passID, "attempt": attempt + 1}).
                Warn("redemption lost version race, retrying")
            continue
        }
        if err != nil {
            return nil, err
        }

        p.History = append(p.History, rec)
        s.publishRedeemed(ctx, p, ticket, mode.actor, serviceType, redeemedAt)
        return p, nil
    }
    return nil, lastErr
}

// publishRedeemed emits the pass.redeemed event.  Failures are logged and
// swallowed; the redemption has already committed.
func (s *RedemptionService) publishRedeemed(ctx context.Context, p *model.TeamPass, ticket *model.Ticket, actor, serviceType string, at time.Time) {
    if s.events == nil {
        return
    }
    ev := queue.PassRedeemedEvent{
        PassID:      p.ID,
        RedeemedBy:  actor,
        ServiceType: serviceType,
        Remaining:   p.Remaining(),
        RedeemedAt:  at.Format(time.RFC3339),
    }
    if ticket != nil {
        ev.TicketID = ticket.TicketID
        ev.TicketNumber = ticket.TicketNumber
    }
    if err := s.events.PublishPassRedeemed(ctx, ev); err != nil {
        s.log.WithError(err).WithField("pass_id", p.ID).Warn("publish pass.redeemed failed")
    }
}
