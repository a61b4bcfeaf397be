package horizon

// accountResponse mirrors the fields we use from the Horizon account record.
type accountResponse struct {
	AccountID string    `json:"account_id"`
	Sequence  string    `json:"sequence"`
	Balances  []balance `json:"balances"`
}

// balance is one asset line on a Horizon account record. Amounts come over
// the wire as decimal strings.
type balance struct {
	Balance     string `json:"balance"`
	AssetType   string `json:"asset_type"`
	AssetCode   string `json:"asset_code,omitempty"`
	AssetIssuer string `json:"asset_issuer,omitempty"`
}

// submitResponse mirrors the fields we use from a transaction submission.
type submitResponse struct {
	Hash      string `json:"hash"`
	Ledger    int64  `json:"ledger"`
	Succeeded bool   `json:"successful"`
}

// errorResponse is Horizon's problem+json error envelope.
type errorResponse struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}
