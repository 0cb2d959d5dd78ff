package settlement

import "errors"

var (
	ErrRegisterRequired  = errors.New("cash register is required")
	ErrRegisterNotFound  = errors.New("cash register not found")
	ErrRegisterClosed    = errors.New("cash register is closed")
	ErrNothingToTransfer = errors.New("no untransferred salary slips in the selection")
	ErrInsufficientFunds = errors.New("insufficient funds in cash register")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrSelectionChanged  = errors.New("salary slips changed during transfer")
	ErrTransferNotFound  = errors.New("transfer order not found")
	ErrInvalidRegister   = errors.New("invalid cash register")
	ErrNonPositiveSlip   = errors.New("salary slip has no positive amount to pay")
)
