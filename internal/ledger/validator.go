package ledger

import (
	"fmt"
	"time"

	"github.com/example/payments-engine/internal/amount"
)

// Validator checks an engine's accounts against its stored transactions.
type Validator struct {
	engine *Engine
}

// NewValidator creates a validator for e.
func NewValidator(e *Engine) *Validator {
	return &Validator{engine: e}
}

// ValidationResult represents the result of a validation check
type ValidationResult struct {
	IsValid        bool
	ValidationType string
	Message        string
	Client         ClientID
	Timestamp      time.Time
	Details        map[string]string
}

// ValidateHeldConsistency checks that an account's held balance equals the
// sum of its transactions currently under dispute.
func (v *Validator) ValidateHeldConsistency(acct Account, disputed amount.Amount) *ValidationResult {
	drift := acct.Held.Sub(disputed)
	if !drift.IsZero() {
		return &ValidationResult{
			IsValid:        false,
			ValidationType: "held_consistency",
			Message: fmt.Sprintf("held balance drift for client %d: held %s, disputed %s",
				acct.Client, acct.Held, disputed),
			Client:    acct.Client,
			Timestamp: time.Now(),
			Details: map[string]string{
				"held":         acct.Held.String(),
				"disputed":     disputed.String(),
				"drift_amount": drift.String(),
			},
		}
	}

	return &ValidationResult{
		IsValid:        true,
		ValidationType: "held_consistency",
		Message:        "held balance matches open disputes",
		Client:         acct.Client,
		Timestamp:      time.Now(),
	}
}

// ValidateLockReason checks that a locked account has at least one
// charged back transaction.
func (v *Validator) ValidateLockReason(acct Account, chargebacks int) *ValidationResult {
	result := &ValidationResult{
		IsValid:        !acct.Locked || chargebacks > 0,
		ValidationType: "lock_reason",
		Client:         acct.Client,
		Timestamp:      time.Now(),
	}
	if result.IsValid {
		result.Message = "lock state is backed by a chargeback"
	} else {
		result.Message = fmt.Sprintf("client %d is locked without a chargeback", acct.Client)
	}
	return result
}

// ValidateConsistency runs every check over every account and returns the
// results in client order.
func (v *Validator) ValidateConsistency() []*ValidationResult {
	held := v.engine.heldByClient()

	chargebacks := make(map[ClientID]int)
	v.engine.txs.Each(func(tx StoredTransaction) {
		if tx.Status == StatusChargedback {
			chargebacks[tx.Client]++
		}
	})

	var results []*ValidationResult
	for _, acct := range v.engine.Accounts() {
		results = append(results,
			v.ValidateHeldConsistency(acct, held[acct.Client]),
			v.ValidateLockReason(acct, chargebacks[acct.Client]),
		)
	}
	return results
}

// Failures filters results down to the ones that did not pass.
func Failures(results []*ValidationResult) []*ValidationResult {
	var failed []*ValidationResult
	for _, r := range results {
		if !r.IsValid {
			failed = append(failed, r)
		}
	}
	return failed
}
