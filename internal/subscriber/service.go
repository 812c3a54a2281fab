package subscriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/directory"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber/entity"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/pkg/utilities"
)

var (
	ErrEmailRequired = errors.New("email is required")
	ErrEmailInvalid  = errors.New("email is invalid")
	ErrNotConfigured = errors.New("directory is not configured")
)

// Stage names the step of the reconciliation that failed.
type Stage string

const (
	StageCheck  Stage = "check"
	StageCreate Stage = "create"
	StageUpdate Stage = "update"
)

// ReconcileError reports a directory failure together with the step it
// happened in.
type ReconcileError struct {
	Stage Stage
	Err   error
}

func (e *ReconcileError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *ReconcileError) Unwrap() error { return e.Err }

// Welcomer sends a greeting to newly created members.
type Welcomer interface {
	SendWelcome(ctx context.Context, s entity.Subscriber) error
}

// EventRecorder persists submission outcomes for auditing.
type EventRecorder interface {
	Record(ctx context.Context, ev entity.Event) error
}

// Service reconciles a submission against the directory: it checks whether the
// member exists and then creates or updates it. Welcome and Audit are optional.
type Service struct {
	dir     directory.Directory
	logger  *zap.SugaredLogger
	Welcome Welcomer
	Audit   EventRecorder
}

func NewService(dir directory.Directory, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{dir: dir, logger: logger}
}

// Validate normalizes the record and checks the email.
func Validate(in entity.Subscriber) (entity.Subscriber, error) {
	s := in.Normalize()
	if s.Email == "" {
		return s, ErrEmailRequired
	}
	if !strings.Contains(s.Email, "@") {
		return s, ErrEmailInvalid
	}
	return s, nil
}

// Subscribe runs one reconciliation. The existence check always completes
// before the write, so a submission issues at most two directory calls.
func (s *Service) Subscribe(ctx context.Context, in entity.Subscriber) (entity.Outcome, error) {
	sub, err := Validate(in)
	if err != nil {
		return entity.OutcomeFailed, err
	}
	if s.dir == nil {
		return entity.OutcomeFailed, ErrNotConfigured
	}

	outcome, err := s.reconcile(ctx, sub)
	s.record(ctx, sub, outcome)
	if err != nil {
		return entity.OutcomeFailed, err
	}

	if outcome == entity.OutcomeCreated && s.Welcome != nil {
		if err := s.Welcome.SendWelcome(ctx, sub); err != nil {
			s.logger.Warnw("welcome email failed", "request_id", utilities.RequestIDFrom(ctx), "email", sub.Email, "err", err)
		}
	}
	return outcome, nil
}

func (s *Service) reconcile(ctx context.Context, sub entity.Subscriber) (entity.Outcome, error) {
	exists, err := s.dir.Exists(ctx, sub.Email)
	if err != nil {
		return entity.OutcomeFailed, &ReconcileError{Stage: StageCheck, Err: err}
	}
	s.logger.Debugw("member lookup", "request_id", utilities.RequestIDFrom(ctx), "provider", s.dir.Name(), "exists", exists)

	if exists {
		if err := s.dir.Update(ctx, sub); err != nil {
			return entity.OutcomeFailed, &ReconcileError{Stage: StageUpdate, Err: err}
		}
		s.logger.Infow("updated member", "request_id", utilities.RequestIDFrom(ctx), "email", sub.Email)
		return entity.OutcomeUpdated, nil
	}

	if err := s.dir.Create(ctx, sub); err != nil {
		return entity.OutcomeFailed, &ReconcileError{Stage: StageCreate, Err: err}
	}
	s.logger.Infow("added member", "request_id", utilities.RequestIDFrom(ctx), "email", sub.Email)
	return entity.OutcomeCreated, nil
}

// record is best-effort; an audit failure never changes the outcome.
func (s *Service) record(ctx context.Context, sub entity.Subscriber, outcome entity.Outcome) {
	if s.Audit == nil {
		return
	}
	ev := entity.Event{
		ID:        utilities.NewEventID(),
		RequestID: utilities.RequestIDFrom(ctx),
		MemberKey: directory.MemberKey(sub.Email),
		Provider:  s.dir.Name(),
		Outcome:   outcome.String(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Audit.Record(ctx, ev); err != nil {
		s.logger.Warnw("audit record failed", "request_id", ev.RequestID, "err", err)
	}
}
