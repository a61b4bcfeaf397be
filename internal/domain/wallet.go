package domain

import "time"

// AccountSnapshot is the reconciler's last-known view of an external account.
// The reconciler owns the snapshot exclusively; readers receive copies and
// the balance may be stale by up to one polling interval.
type AccountSnapshot struct {
	Address       string    `json:"address"`
	Network       string    `json:"network"`
	Balance       float64   `json:"balance"`
	LastRefreshed time.Time `json:"lastRefreshed"`
}

// AssetBalance is one asset line from an external account query.
type AssetBalance struct {
	AssetType string  `json:"assetType"`
	Amount    float64 `json:"amount"`
}

// AccountState is the result of querying an account on one network.
type AccountState struct {
	Address  string         `json:"address"`
	Network  string         `json:"network"`
	Exists   bool           `json:"exists"`
	Balances []AssetBalance `json:"balances"`
}

// NativeBalance returns the native-token amount from the balance lines, or
// zero when the account holds none.
func (s AccountState) NativeBalance() float64 {
	for _, b := range s.Balances {
		if b.AssetType == "native" {
			return b.Amount
		}
	}
	return 0
}
