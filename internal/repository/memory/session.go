package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"banking-service/internal/domain"
	"banking-service/internal/repository"
)

type sessionManager struct {
	db *DB
}

func (m *sessionManager) Begin(ctx context.Context) (repository.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.db.faultMu.Lock()
	m.db.sessionsBegun++
	m.db.faultMu.Unlock()

	return &session{db: m.db, staged: make(map[string]*domain.Account)}, nil
}

// session buffers writes until Commit. Staged account versions are re-checked
// against committed state when the buffer is applied.
type session struct {
	db *DB

	mu       sync.Mutex
	accounts []*domain.Account
	staged   map[string]*domain.Account
	txs      []*domain.Transaction
	closed   bool
}

func asSession(sess repository.Session) (*session, error) {
	s, ok := sess.(*session)
	if !ok {
		return nil, repository.ErrForeignSession
	}
	return s, nil
}

func (s *session) stageAccount(a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	expected := a.Version
	if prev, ok := s.staged[a.AccountNumber]; ok {
		if prev.Version+1 != a.Version {
			return repository.ErrConcurrentModification
		}
		expected = prev.Version
	} else {
		s.db.mu.RLock()
		err := s.db.checkVersion(a)
		s.db.mu.RUnlock()
		if err != nil {
			return err
		}
	}

	a.UpdatedAt = time.Now().UTC()
	cp := a.Clone()
	cp.Version = expected
	s.staged[a.AccountNumber] = cp
	s.accounts = append(s.accounts, cp)

	a.Version++
	return nil
}

func (s *session) stageTransaction(t *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.txs = append(s.txs, cloneTransaction(t))
	return nil
}

func (s *session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true

	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.faultMu.Lock()
	commitErr := s.db.commitErr
	s.db.faultMu.Unlock()
	if commitErr != nil {
		return fmt.Errorf("failed to commit transaction: %w", commitErr)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, number := range s.stagedOrder() {
		if err := s.db.checkVersion(s.staged[number]); err != nil {
			return err
		}
	}

	for _, number := range s.stagedOrder() {
		staged := s.staged[number]
		s.db.applyUpdate(staged, staged.UpdatedAt)
	}
	s.db.txs = append(s.db.txs, s.txs...)
	return nil
}

func (s *session) Abort(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.accounts = nil
	s.staged = nil
	s.txs = nil
	return nil
}

// stagedOrder lists staged account numbers in first-write order.
func (s *session) stagedOrder() []string {
	seen := make(map[string]struct{}, len(s.staged))
	out := make([]string, 0, len(s.staged))
	for _, a := range s.accounts {
		if _, ok := seen[a.AccountNumber]; ok {
			continue
		}
		seen[a.AccountNumber] = struct{}{}
		out = append(out, a.AccountNumber)
	}
	return out
}
