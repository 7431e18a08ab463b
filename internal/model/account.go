package model

// Account balance names the backend accepts.
const (
	BalanceChecking = "checking"
	BalanceSavings  = "savings"
	BalanceCash     = "cash"
)

// BalanceNames lists the manual balances in display order.
var BalanceNames = []string{BalanceChecking, BalanceSavings, BalanceCash}

// ValidBalanceName reports whether name is one of BalanceNames.
func ValidBalanceName(name string) bool {
	for _, n := range BalanceNames {
		if n == name {
			return true
		}
	}
	return false
}

// Balance is one account balance. Previous is the amount before the last
// update, when the backend tracks it.
type Balance struct {
	Name     string  `json:"balance_name"`
	Amount   float64 `json:"balance_amount"`
	Previous float64 `json:"previous_balance"`
}

// Change is the difference from the previous balance.
func (b Balance) Change() float64 { return b.Amount - b.Previous }

// TotalBalance sums every balance.
func TotalBalance(bs []Balance) float64 {
	var total float64
	for _, b := range bs {
		total += b.Amount
	}
	return total
}

// UserSettings are the account-level notification preferences.
type UserSettings struct {
	EmailNotifications bool `json:"email_notifications"`
	PushNotifications  bool `json:"push_notifications"`
}
