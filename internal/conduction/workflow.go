package conduction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/venue-conduction-board/internal/model"
)

// ErrConfirmFailed wraps remote confirmation failures.
var ErrConfirmFailed = errors.New("remote confirmation failed")

// Confirmer records a conduction at the system of record.
type Confirmer interface {
	ConfirmConduction(ctx context.Context, req model.ConductionRequest) error
}

// Publisher announces confirmed conductions to other consumers.
type Publisher interface {
	PublishConductionConfirmed(ctx context.Context, req model.ConductionRequest, at time.Time) error
}

// Workflow runs confirmations for one session.
type Workflow struct {
	session   *Session
	confirmer Confirmer
	publisher Publisher // optional
	timeout   time.Duration
}

// NewWorkflow wires a session to the remote authority.  publisher may be nil.
func NewWorkflow(session *Session, confirmer Confirmer, publisher Publisher, timeout time.Duration) *Workflow {
	if session == nil || confirmer == nil {
		panic("nil dependency passed to NewWorkflow")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Workflow{session: session, confirmer: confirmer, publisher: publisher, timeout: timeout}
}

// Session returns the session the workflow mutates.
func (w *Workflow) Session() *Session { return w.session }

// Confirm marks the item conduced optimistically and confirms it remotely.
// The remote call is detached from ctx: once started it always runs to
// completion so the success or rollback branch fires even if the caller has
// gone away.  On failure the optimistic mark is rolled back and an error
// wrapping ErrConfirmFailed is returned.
func (w *Workflow) Confirm(ctx context.Context, req model.ConductionRequest) error {
	if err := w.session.ConfirmOptimistic(req.ItemID); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()

	if err := w.confirmer.ConfirmConduction(callCtx, req); err != nil {
		log.Printf("conduction: confirm %s failed: %v; rolled back", req.ItemID, err)
		w.session.Rollback(req.ItemID, err)
		return fmt.Errorf("%w: %v", ErrConfirmFailed, err)
	}
	w.session.MarkConfirmed(req.ItemID)

	if w.publisher != nil {
		if err := w.publisher.PublishConductionConfirmed(callCtx, req, time.Now().UTC()); err != nil {
			log.Printf("conduction: publish %s failed: %v", req.ItemID, err)
		}
	}
	return nil
}
