package model

// Wallet accumulates money. The balance may go below zero (debt).
type Wallet struct {
	Balance Cost
}

func NewWallet(initial Cost) *Wallet {
	return &Wallet{Balance: initial}
}

func (w *Wallet) Deposit(amount Cost)  { w.Balance += amount }
func (w *Wallet) Withdraw(amount Cost) { w.Balance -= amount }

// EnergyBalance is the unresolved surplus (positive) or deficit (negative)
// of the current tick. It is driven back to zero after every consume/produce.
type EnergyBalance struct {
	Value Energy
}

func (b *EnergyBalance) Add(amount Energy) { b.Value += amount }
func (b *EnergyBalance) Sub(amount Energy) { b.Value -= amount }
