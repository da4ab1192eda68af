// Package ingest wires the C7 disruption compiler to a NATS message-broker
// consumer (spec.md §6's "task channel"/realtime topics): chaos and kirin
// messages arrive as JSON-encoded NATS messages (the actual protobuf
// FeedMessage decode is an out-of-scope collaborator, spec.md §1) and are
// handed to business/disruption.Compiler, which applies them to the shared
// real-time overlay.
package ingest

import (
	"encoding/json"
	logger "log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"

	"github.com/transitcore/pathfinder/business/disruption"
)

// ReloadNotifier is told whenever the compiler has applied at least one
// update, so the query-serving process's /status endpoint can report
// last_rt_data_loaded (spec.md §6).
type ReloadNotifier interface {
	NoteRealTimeReload(at time.Time)
}

// Listener subscribes to chaos and kirin subjects on NATS and applies each
// decoded message to compiler.
type Listener struct {
	log      *logger.Logger
	conn     *nats.Conn
	compiler *disruption.Compiler
	notifier ReloadNotifier
}

// ChaosSubject and KirinSubject are the NATS subjects this listener
// subscribes to, named after the wire formats they carry (spec.md §6).
const (
	ChaosSubject = "disruption.chaos"
	KirinSubject = "disruption.kirin"
	QueueGroup   = "disruption-ingest"
)

// Dial connects to a NATS server at url, retrying with exponential backoff
// under backoff.NewExponentialBackOff's defaults, which give up once 15
// minutes have elapsed.
func Dial(url string) (*nats.Conn, error) {
	var conn *nats.Conn
	operation := func() error {
		c, err := nats.Connect(url, nats.MaxReconnects(-1))
		if err != nil {
			return err
		}
		conn = c
		return nil
	}
	if err := backoff.Retry(operation, backoff.NewExponentialBackOff()); err != nil {
		return nil, err
	}
	return conn, nil
}

// NewListener builds a Listener applying decoded messages to compiler and
// notifying notifier (nil is accepted: a standalone ingest process with no
// co-located query service to notify) after each successfully applied
// update.
func NewListener(log *logger.Logger, conn *nats.Conn, compiler *disruption.Compiler, notifier ReloadNotifier) *Listener {
	return &Listener{log: log, conn: conn, compiler: compiler, notifier: notifier}
}

// Run subscribes to both disruption subjects and processes messages until
// shutdown is closed.
func (l *Listener) Run(shutdown <-chan struct{}) error {
	chaosCh := make(chan *nats.Msg, 64)
	chaosSub, err := l.conn.ChanQueueSubscribe(ChaosSubject, QueueGroup, chaosCh)
	if err != nil {
		return err
	}
	defer unsubscribe(l.log, chaosSub)

	kirinCh := make(chan *nats.Msg, 64)
	kirinSub, err := l.conn.ChanQueueSubscribe(KirinSubject, QueueGroup, kirinCh)
	if err != nil {
		return err
	}
	defer unsubscribe(l.log, kirinSub)

	var wg sync.WaitGroup
	for {
		select {
		case msg := <-chaosCh:
			wg.Add(1)
			go func() {
				defer wg.Done()
				l.handleChaos(msg)
			}()
		case msg := <-kirinCh:
			wg.Add(1)
			go func() {
				defer wg.Done()
				l.handleKirin(msg)
			}()
		case <-shutdown:
			wg.Wait()
			return nil
		}
	}
}

func (l *Listener) handleChaos(msg *nats.Msg) {
	var decoded disruption.ChaosMessage
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		l.log.Printf("ingest: malformed chaos message, dropped: %v", err)
		return
	}
	result := l.compiler.ApplyChaos(decoded)
	l.log.Printf("ingest: applied chaos disruption %q: %d applied, %d restored, %d unresolved, %d errors",
		result.DisruptionId, result.AppliedCount, result.RestoredCount, result.UnresolvedCount, len(result.Errors))
	if result.AppliedCount > 0 || result.RestoredCount > 0 {
		l.afterApply()
	}
}

func (l *Listener) handleKirin(msg *nats.Msg) {
	var decoded disruption.KirinMessage
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		l.log.Printf("ingest: malformed kirin message, dropped: %v", err)
		return
	}
	if err := l.compiler.ApplyKirin(decoded); err != nil {
		l.log.Printf("ingest: kirin update for %q rejected: %v", decoded.VehicleJourneyId, err)
		return
	}
	l.afterApply()
}

func (l *Listener) afterApply() {
	if l.notifier != nil {
		l.notifier.NoteRealTimeReload(time.Now())
	}
}

func unsubscribe(log *logger.Logger, sub *nats.Subscription) {
	if sub == nil || !sub.IsValid() {
		return
	}
	if err := sub.Unsubscribe(); err != nil {
		log.Printf("ingest: error unsubscribing: %v", err)
	}
}
