package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"gestao/internal/domain/period"
)

type RegisterStatus string

const (
	RegisterOpen   RegisterStatus = "OPEN"
	RegisterClosed RegisterStatus = "CLOSED"
)

type Register struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Status    RegisterStatus  `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

type TransferRequest struct {
	RegisterID  string
	EmployeeIDs []string
	Period      period.Period
	ActorID     string
}

// TransferLine is one slip paid out by a transfer order.
type TransferLine struct {
	SlipID       string          `json:"slipId"`
	EmployeeID   string          `json:"employeeId"`
	EmployeeName string          `json:"employeeName"`
	Amount       decimal.Decimal `json:"amount"`
}

type TransferOrder struct {
	ID         string          `json:"id"`
	RegisterID string          `json:"registerId"`
	Period     period.Period   `json:"period"`
	Total      decimal.Decimal `json:"total"`
	Lines      []TransferLine  `json:"lines"`
	CreatedBy  string          `json:"createdBy"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func (o TransferOrder) SlipIDs() []string {
	out := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		out = append(out, l.SlipID)
	}
	return out
}

// Result is returned by a successful transfer.
type Result struct {
	Order          TransferOrder   `json:"order"`
	BalanceBefore  decimal.Decimal `json:"balanceBefore"`
	BalanceAfter   decimal.Decimal `json:"balanceAfter"`
	TransferredIDs []string        `json:"transferredEmployeeIds"`
}
