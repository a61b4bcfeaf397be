// Package wallet tracks the connected account's external balance. The
// reconciler is the only writer of the snapshot; HTTP reads get copies.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/digital-prophets/prophetd/internal/domain"
)

// AccountQuerier looks up an account on a named network.
type AccountQuerier interface {
	QueryAccount(ctx context.Context, network, address string) (domain.AccountState, error)
}

// Networks tried on connect, in order. The fallback network is only
// consulted when it is enabled and the primary does not know the account.
const (
	NetworkPublic  = "public"
	NetworkTestnet = "testnet"
)

// Reconciler keeps a last-known balance for one connected account and
// refreshes it on a fixed interval while polling is active.
type Reconciler struct {
	querier         AccountQuerier
	interval        time.Duration
	testnetFallback bool
	logger          *slog.Logger

	mu       sync.RWMutex
	snapshot *domain.AccountSnapshot

	pollMu sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewReconciler creates a Reconciler polling at interval once started.
func NewReconciler(querier AccountQuerier, interval time.Duration, testnetFallback bool, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		querier:         querier,
		interval:        interval,
		testnetFallback: testnetFallback,
		logger:          logger.With(slog.String("component", "reconciler")),
	}
}

// Connect looks the account up, public network first and testnet as a
// fallback, records the initial snapshot, and starts polling. Connecting a
// second address replaces the first.
func (r *Reconciler) Connect(ctx context.Context, address string) (domain.AccountSnapshot, error) {
	if address == "" {
		return domain.AccountSnapshot{}, fmt.Errorf("%w: address must not be empty", domain.ErrInvalidInput)
	}

	state, err := r.lookup(ctx, address, r.testnetFallback)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}

	snap := domain.AccountSnapshot{
		Address:       state.Address,
		Network:       state.Network,
		Balance:       state.NativeBalance(),
		LastRefreshed: time.Now().UTC(),
	}

	r.mu.Lock()
	r.snapshot = &snap
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "account connected",
		slog.String("address", address),
		slog.String("network", snap.Network),
		slog.Float64("balance", snap.Balance),
	)

	r.StartPolling()
	return snap, nil
}

// Lookup resolves an address to a point-in-time snapshot without connecting.
// The public network is always tried first; testnetFallback enables the
// testnet retry for this call when the account is unknown on public.
func (r *Reconciler) Lookup(ctx context.Context, address string, testnetFallback bool) (domain.AccountSnapshot, error) {
	if address == "" {
		return domain.AccountSnapshot{}, fmt.Errorf("%w: address must not be empty", domain.ErrInvalidInput)
	}

	state, err := r.lookup(ctx, address, testnetFallback)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}

	return domain.AccountSnapshot{
		Address:       state.Address,
		Network:       state.Network,
		Balance:       state.NativeBalance(),
		LastRefreshed: time.Now().UTC(),
	}, nil
}

// lookup queries the public network and falls back to testnet when the
// account is unknown there and fallback is enabled.
func (r *Reconciler) lookup(ctx context.Context, address string, fallback bool) (domain.AccountState, error) {
	state, err := r.querier.QueryAccount(ctx, NetworkPublic, address)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) || !fallback {
		return domain.AccountState{}, fmt.Errorf("wallet: query %s on public: %w", address, err)
	}

	state, err = r.querier.QueryAccount(ctx, NetworkTestnet, address)
	if err != nil {
		return domain.AccountState{}, fmt.Errorf("wallet: query %s on testnet: %w", address, err)
	}
	return state, nil
}

// Refresh re-queries the connected account on its resolved network. A
// transient failure keeps the previous snapshot and returns it unchanged;
// only the absence of any connection is an error.
func (r *Reconciler) Refresh(ctx context.Context) (domain.AccountSnapshot, error) {
	r.mu.RLock()
	current := r.snapshot
	r.mu.RUnlock()

	if current == nil {
		return domain.AccountSnapshot{}, fmt.Errorf("wallet: refresh: %w", domain.ErrAccountNotFound)
	}

	state, err := r.querier.QueryAccount(ctx, current.Network, current.Address)
	if err != nil {
		r.logger.WarnContext(ctx, "balance refresh failed, keeping last known",
			slog.String("address", current.Address),
			slog.String("error", err.Error()),
		)
		return *current, nil
	}

	snap := domain.AccountSnapshot{
		Address:       current.Address,
		Network:       current.Network,
		Balance:       state.NativeBalance(),
		LastRefreshed: time.Now().UTC(),
	}

	r.mu.Lock()
	// Disconnect may have raced the query; do not resurrect the snapshot.
	if r.snapshot != nil && r.snapshot.Address == snap.Address {
		r.snapshot = &snap
	}
	r.mu.Unlock()

	return snap, nil
}

// Snapshot returns a copy of the last-known account state, or false when no
// account is connected.
func (r *Reconciler) Snapshot() (domain.AccountSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snapshot == nil {
		return domain.AccountSnapshot{}, false
	}
	return *r.snapshot, true
}

// StartPolling launches the background refresh loop. Calling it while a loop
// is already running is a no-op.
func (r *Reconciler) StartPolling() {
	r.pollMu.Lock()
	defer r.pollMu.Unlock()

	if r.stopCh != nil {
		return
	}
	if r.interval <= 0 {
		return
	}

	r.stopCh = make(chan struct{})
	r.wg.Add(1)
	go r.pollLoop(r.stopCh)
}

// StopPolling stops the refresh loop and waits for it to exit. Calling it
// with no loop running is a no-op.
func (r *Reconciler) StopPolling() {
	r.pollMu.Lock()
	stopCh := r.stopCh
	r.stopCh = nil
	r.pollMu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	r.wg.Wait()
}

// Disconnect stops polling and forgets the snapshot.
func (r *Reconciler) Disconnect() {
	r.StopPolling()

	r.mu.Lock()
	r.snapshot = nil
	r.mu.Unlock()

	r.logger.Info("account disconnected")
}

func (r *Reconciler) pollLoop(stopCh chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if _, err := r.Refresh(ctx); err != nil {
				// Only possible when disconnected mid-tick.
				cancel()
				return
			}
			cancel()
		}
	}
}
