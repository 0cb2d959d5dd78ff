package payroll

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/shopspring/decimal"

	"gestao/internal/domain/period"
)

// SalaryMap builds the "Mapa geral de salários IRT/INSS" from the current slips.
func (s *Service) SalaryMap(ctx context.Context, p period.Period) (SalaryMap, error) {
	slips, err := s.ListCurrent(ctx, p)
	if err != nil {
		return SalaryMap{}, err
	}
	out := SalaryMap{Period: p, Rows: make([]MapRow, 0, len(slips))}
	for _, slip := range slips {
		row := mapRow(slip)
		if employee, err := s.employees.Get(ctx, slip.EmployeeID); err == nil {
			row.INSSNumber = employee.INSSNumber
		}
		out.Rows = append(out.Rows, row)
	}
	out.Totals = totals(out.Rows)
	return out, nil
}

func mapRow(slip SalarySlip) MapRow {
	c := slip.Computation
	return MapRow{
		EmployeeID:    slip.EmployeeID,
		EmployeeName:  slip.EmployeeName,
		EmployeeRole:  slip.EmployeeRole,
		BaseSalary:    c.BaseSalary,
		GrossTotal:    c.GrossTotal,
		INSSBase:      c.INSSBase,
		IRTTaxable:    c.IRTTaxable,
		IRTExempt:     c.IRTExempt,
		IRTNonSubject: c.IRTNonSubject,
		IRTSubject:    c.IRTSubject,
		INSSEmployer:  c.INSSEmployer,
		INSS:          c.INSS,
		IRT:           c.IRT,
		NetTotal:      c.NetTotal,
		Transferred:   slip.Transferred,
	}
}

func totals(rows []MapRow) MapRow {
	t := MapRow{EmployeeName: "TOTAL"}
	for _, r := range rows {
		t.BaseSalary = t.BaseSalary.Add(r.BaseSalary)
		t.GrossTotal = t.GrossTotal.Add(r.GrossTotal)
		t.INSSBase = t.INSSBase.Add(r.INSSBase)
		t.IRTTaxable = t.IRTTaxable.Add(r.IRTTaxable)
		t.IRTExempt = t.IRTExempt.Add(r.IRTExempt)
		t.IRTNonSubject = t.IRTNonSubject.Add(r.IRTNonSubject)
		t.IRTSubject = t.IRTSubject.Add(r.IRTSubject)
		t.INSSEmployer = t.INSSEmployer.Add(r.INSSEmployer)
		t.INSS = t.INSS.Add(r.INSS)
		t.IRT = t.IRT.Add(r.IRT)
		t.NetTotal = t.NetTotal.Add(r.NetTotal)
	}
	return t
}

var inssHeader = []string{"Nome", "Categoria", "N. INSS", "Salario Base", "Base INSS", "INSS 3%", "INSS 8%", "Total INSS"}

// WriteINSSCSV exports the INSS columns of the map, totals last.
func WriteINSSCSV(w io.Writer, m SalaryMap) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(inssHeader); err != nil {
		return err
	}
	rows := append(append([]MapRow{}, m.Rows...), m.Totals)
	for _, r := range rows {
		record := []string{
			r.EmployeeName,
			r.EmployeeRole,
			r.INSSNumber,
			fixed(r.BaseSalary),
			fixed(r.INSSBase),
			fixed(r.INSS),
			fixed(r.INSSEmployer),
			fixed(r.INSS.Add(r.INSSEmployer)),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}
