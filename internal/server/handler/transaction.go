package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/digital-prophets/prophetd/internal/wallet"
)

// TransactionService signs transaction envelopes with the service key and
// submits them to a named network.
type TransactionService interface {
	PublicKey() string
	SignAndSubmit(ctx context.Context, network, envelopeXDR string) (string, error)
}

// TransactionHandler serves transaction submission. It is only registered
// when signing key material is configured.
type TransactionHandler struct {
	signer TransactionService
	logger *slog.Logger
}

// NewTransactionHandler creates a TransactionHandler with the given signer.
func NewTransactionHandler(signer TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		signer: signer,
		logger: logger,
	}
}

// submitRequest carries a base64 transaction envelope and an optional target
// network; the public network is the default.
type submitRequest struct {
	Envelope string `json:"envelope"`
	Network  string `json:"network"`
}

// submitTxResponse reports the submitted transaction's hash and the signing
// account.
type submitTxResponse struct {
	Success   bool   `json:"success"`
	Hash      string `json:"hash"`
	PublicKey string `json:"publicKey"`
	Network   string `json:"network"`
}

// Submit signs the envelope and posts it to the target network.
// POST /api/transactions
func (h *TransactionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Envelope == "" {
		writeError(w, http.StatusBadRequest, "missing envelope")
		return
	}

	network := req.Network
	if network == "" {
		network = wallet.NetworkPublic
	}
	if network != wallet.NetworkPublic && network != wallet.NetworkTestnet {
		writeError(w, http.StatusBadRequest, "unknown network "+network)
		return
	}

	hash, err := h.signer.SignAndSubmit(r.Context(), network, req.Envelope)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: transaction submission failed",
			slog.String("network", network),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "transaction submission failed")
		return
	}

	writeJSON(w, http.StatusOK, submitTxResponse{
		Success:   true,
		Hash:      hash,
		PublicKey: h.signer.PublicKey(),
		Network:   network,
	})
}
