package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/digital-prophets/prophetd/internal/domain"
)

// WalletService defines the reconciler methods the wallet handler requires.
type WalletService interface {
	Connect(ctx context.Context, address string) (domain.AccountSnapshot, error)
	Lookup(ctx context.Context, address string, testnetFallback bool) (domain.AccountSnapshot, error)
	Refresh(ctx context.Context) (domain.AccountSnapshot, error)
	Snapshot() (domain.AccountSnapshot, bool)
	Disconnect()
}

// WalletHandler serves wallet HTTP endpoints.
type WalletHandler struct {
	wallet WalletService
	logger *slog.Logger
}

// NewWalletHandler creates a WalletHandler with the given service and logger.
func NewWalletHandler(wallet WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		wallet: wallet,
		logger: logger,
	}
}

// balanceRequest carries a wallet public key. IsTestnet enables the testnet
// retry when the account is unknown on the public network; public is always
// tried first.
type balanceRequest struct {
	PublicKey string `json:"publicKey"`
	IsTestnet bool   `json:"isTestnet"`
}

// connectRequest carries the public key to attach the reconciler to.
type connectRequest struct {
	PublicKey string `json:"publicKey"`
}

// balanceResponse always carries a balance field so clients can render a
// number without checking success first.
type balanceResponse struct {
	Success   bool    `json:"success"`
	Balance   float64 `json:"balance"`
	PublicKey string  `json:"publicKey,omitempty"`
	Network   string  `json:"network,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Balance performs a one-off balance lookup for an account. The public
// network is always queried first; isTestnet allows falling back to testnet
// when the account is unknown there. Failures still return a well-formed
// body with balance zero.
// POST /api/wallet/balance
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PublicKey == "" {
		writeJSON(w, http.StatusBadRequest, balanceResponse{
			Success: false,
			Balance: 0,
			Error:   "missing publicKey",
		})
		return
	}

	snap, err := h.wallet.Lookup(r.Context(), req.PublicKey, req.IsTestnet)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrAccountNotFound) {
			status = http.StatusNotFound
		}
		h.logger.WarnContext(r.Context(), "handler: balance lookup failed",
			slog.String("public_key", req.PublicKey),
			slog.String("error", err.Error()),
		)
		writeJSON(w, status, balanceResponse{
			Success:   false,
			Balance:   0,
			PublicKey: req.PublicKey,
			Error:     err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		Success:   true,
		Balance:   snap.Balance,
		PublicKey: snap.Address,
		Network:   snap.Network,
		Timestamp: snap.LastRefreshed.UTC().Format(time.RFC3339),
	})
}

// Connect attaches the reconciler to an account and starts background
// refreshes.
// POST /api/wallet/connect
func (h *WalletHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.wallet.Connect(r.Context(), req.PublicKey)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: wallet connect failed",
			slog.String("public_key", req.PublicKey),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, domain.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "account not found on any network")
			return
		}
		writeDomainError(w, err, "failed to connect wallet")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// Disconnect detaches the reconciler and stops polling.
// POST /api/wallet/disconnect
func (h *WalletHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.wallet.Disconnect()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Status returns the connected account's last-known snapshot, refreshed
// opportunistically.
// GET /api/wallet
func (h *WalletHandler) Status(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.wallet.Snapshot(); !ok {
		writeError(w, http.StatusNotFound, "no wallet connected")
		return
	}

	snap, err := h.wallet.Refresh(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to refresh wallet")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}
