// The background consumer listens to the refund.settled queue and runs the
// refund reconciliation pass, so an entity update that was lost between
// "refund issued" and "status written" is repaired without operator action.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Reconciler finishes refunds whose entity update never landed.  Implemented
// by the refund service; the consumer only triggers it.
type Reconciler interface {
    Reconcile(ctx context.Context) (int, error)
}

// StartRefundConsumer connects to RabbitMQ, declares the refund.settled
// queue (durable), and starts consuming messages.  Each message triggers a
// reconciliation pass keyed on the refunds table, so processing is
// idempotent and a redelivered message is harmless.  The function runs a
// reconnect loop with exponential backoff and keeps running across broker
// restarts; processing errors are logged and the offending message is
// rejected without requeue to avoid tight loops.
func StartRefundConsumer(rec Reconciler) error {
    url := brokerURL()

    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("refund-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn, rec); err != nil {
            log.Printf("refund-consumer: consume loop ended: %v; reconnecting", err)
            time.Sleep(2 * time.Second)
            continue
        }
    }
}

func consumeLoop(conn *amqp.Connection, rec Reconciler) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(10, 0, false); err != nil {
        log.Printf("refund-consumer: set QoS failed: %v", err)
    }

    _, err = ch.QueueDeclare(RefundSettledQueue, true, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(RefundSettledQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleSettled(d.Body, rec); err != nil {
            log.Printf("refund-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleSettled(body []byte, rec Reconciler) error {
    var ev RefundSettledEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()
    synced, err := rec.Reconcile(ctx)
    if err != nil {
        return fmt.Errorf("reconcile after %s: %w", ev.PaymentRef, err)
    }
    if synced > 0 {
        log.Printf("refund-consumer: reconciled %d refund(s) (trigger=%s)", synced, ev.PaymentRef)
    }
    return nil
}
