package payroll

type SlipStatus string

const (
	SlipCurrent    SlipStatus = "CURRENT"
	SlipSuperseded SlipStatus = "SUPERSEDED"
	SlipVoid       SlipStatus = "VOID"
)

const (
	CopyOriginal  = "Original"
	CopyDuplicate = "Duplicado"
)
