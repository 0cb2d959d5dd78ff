package payroll

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestao/internal/domain/employees"
	"gestao/internal/domain/period"
	"gestao/internal/domain/tax"
	cryptoutil "gestao/internal/platform/crypto"
	"gestao/internal/platform/printing"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

var march = period.Period{Year: 2026, Month: 3}

type fixture struct {
	svc   *Service
	store *memStore
	att   memAttendance
	queue *recordingQueue
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := &memStore{}
	att := memAttendance{complete: map[string]bool{"emp-1": true, "emp-2": true}}
	directory := memEmployees{
		"emp-1": {
			ID:         "emp-1",
			Name:       "Ana Domingos",
			Role:       "Contabilista",
			INSSNumber: "INSS-001",
			NIF:        "004512345LA041",
			IBAN:       "AO06004000001234567890123",
			Status:     employees.StatusActive,
			BaseSalary: d("100000"),
			Complement: d("30000"),
			Subsidies: employees.Subsidies{
				Family:  employees.Grant{Amount: d("1222")},
				Housing: employees.Grant{Amount: d("22333")},
			},
		},
		"emp-2": {
			ID:         "emp-2",
			Name:       "Bruno Manuel",
			Role:       "Motorista",
			Status:     employees.StatusActive,
			BaseSalary: d("80000"),
		},
		"emp-3": {
			ID:         "emp-3",
			Name:       "Carla Neto",
			Status:     employees.StatusTerminated,
			BaseSalary: d("90000"),
		},
	}
	queue := &recordingQueue{}
	svc := NewService(Deps{
		Store:      store,
		Attendance: att,
		Employees:  directory,
		Tax:        tax.DefaultConfig(),
		Jobs:       queue,
		Payslips: &PayslipArchive{
			Company: printing.Company{Name: "Empresa Demo, Lda", NIF: "5000000000", Address: "Luanda"},
			Dir:     t.TempDir(),
		},
	})
	svc.now = steppingClock(time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC))
	return fixture{svc: svc, store: store, att: att, queue: queue}
}

func TestProcessSalaryComputesReferenceSlip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slip, err := f.svc.ProcessSalary(ctx, "emp-1", march, ManualAdjustments{Absences: d("10489.51")}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, SlipCurrent, slip.Status)
	assert.True(t, slip.Computation.GrossTotal.Equal(d("143065.49")), "gross %s", slip.Computation.GrossTotal)
	assert.True(t, slip.Computation.INSS.Equal(d("4255.30")))
	assert.True(t, slip.Computation.IRT.Equal(d("4886.46")))
	assert.True(t, slip.NetTotal().Equal(d("133923.73")))
	assert.Len(t, f.queue.runs, 1)
}

func TestProcessSalaryRequiresCompleteAttendance(t *testing.T) {
	f := newFixture(t)
	f.att.complete["emp-2"] = false

	_, err := f.svc.ProcessSalary(context.Background(), "emp-2", march, ManualAdjustments{}, "user-1")
	require.ErrorIs(t, err, ErrAttendanceIncomplete)
	assert.Empty(t, f.store.slips)
}

func TestProcessSalaryRejectsTerminatedEmployee(t *testing.T) {
	f := newFixture(t)
	f.att.complete["emp-3"] = true

	_, err := f.svc.ProcessSalary(context.Background(), "emp-3", march, ManualAdjustments{}, "user-1")
	require.ErrorIs(t, err, ErrEmployeeTerminated)
}

func TestProcessSalaryRejectsAdjustmentBelowZeroNet(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ProcessSalary(context.Background(), "emp-1", march, ManualAdjustments{Adjustment: d("-500000")}, "user-1")
	require.ErrorIs(t, err, tax.ErrInvalidInput)
	assert.Empty(t, f.store.slips)
	assert.Empty(t, f.queue.runs)
}

func TestReprocessSupersedesPreviousSlip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.ProcessSalary(ctx, "emp-2", march, ManualAdjustments{}, "user-1")
	require.NoError(t, err)
	second, err := f.svc.ProcessSalary(ctx, "emp-2", march, ManualAdjustments{Overtime: d("5000")}, "user-1")
	require.NoError(t, err)

	current, err := f.svc.Current(ctx, "emp-2", march)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)

	history, err := f.svc.History(ctx, "emp-2", march)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
	assert.Equal(t, SlipSuperseded, history[1].Status)
}

func TestTransferredSlipBlocksReprocessAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slip, err := f.svc.ProcessSalary(ctx, "emp-2", march, ManualAdjustments{}, "user-1")
	require.NoError(t, err)
	f.store.slips[0].Transferred = true

	_, err = f.svc.ProcessSalary(ctx, "emp-2", march, ManualAdjustments{}, "user-1")
	require.ErrorIs(t, err, ErrSlipTransferred)

	_, err = f.svc.DeleteSalary(ctx, []string{"emp-2"}, march)
	require.ErrorIs(t, err, ErrSlipTransferred)

	current, err := f.svc.Current(ctx, "emp-2", march)
	require.NoError(t, err)
	assert.Equal(t, slip.ID, current.ID)
}

func TestDeleteSalaryWithMissingAttendanceChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ProcessSalary(ctx, "emp-1", march, ManualAdjustments{}, "user-1")
	require.NoError(t, err)
	f.att.complete["emp-2"] = false

	_, err = f.svc.DeleteSalary(ctx, []string{"emp-1", "emp-2"}, march)
	require.ErrorIs(t, err, ErrAttendanceMissing)
	assert.Equal(t, SlipCurrent, f.store.slips[0].Status)
}

func TestDeleteSalaryVoidsCurrentSlips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"emp-1", "emp-2"} {
		_, err := f.svc.ProcessSalary(ctx, id, march, ManualAdjustments{}, "user-1")
		require.NoError(t, err)
	}
	n, err := f.svc.DeleteSalary(ctx, []string{"emp-1", "emp-2"}, march)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.svc.Current(ctx, "emp-1", march)
	assert.True(t, errors.Is(err, ErrSlipNotFound))

	_, err = f.svc.DeleteSalary(ctx, nil, march)
	require.ErrorIs(t, err, ErrNoEmployees)
}

func TestManualSubsidiesReplaceStandingOnes(t *testing.T) {
	f := newFixture(t)
	override := tax.Subsidies{Transport: d("15000")}

	slip, err := f.svc.ProcessSalary(context.Background(), "emp-1", march, ManualAdjustments{Subsidies: &override}, "user-1")
	require.NoError(t, err)
	assert.True(t, slip.Computation.Subsidies.Housing.IsZero())
	assert.True(t, slip.Computation.GrossTotal.Equal(d("145000")))
}

func TestSalaryMapTotalsAndCSV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"emp-2", "emp-1"} {
		_, err := f.svc.ProcessSalary(ctx, id, march, ManualAdjustments{}, "user-1")
		require.NoError(t, err)
	}
	m, err := f.svc.SalaryMap(ctx, march)
	require.NoError(t, err)
	require.Len(t, m.Rows, 2)
	assert.Equal(t, "Ana Domingos", m.Rows[0].EmployeeName)
	assert.Equal(t, "INSS-001", m.Rows[0].INSSNumber)
	assert.True(t, m.Totals.GrossTotal.Equal(m.Rows[0].GrossTotal.Add(m.Rows[1].GrossTotal)))
	assert.True(t, m.Totals.INSS.Equal(m.Rows[0].INSS.Add(m.Rows[1].INSS)))

	var buf bytes.Buffer
	require.NoError(t, WriteINSSCSV(&buf, m))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "Nome", records[0][0])
	assert.Equal(t, "TOTAL", records[3][0])
	assert.Equal(t, m.Totals.INSS.StringFixed(2), records[3][5])
}

func TestPayslipPDFIsArchived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slip, err := f.svc.ProcessSalary(ctx, "emp-1", march, ManualAdjustments{}, "user-1")
	require.NoError(t, err)

	data, err := f.svc.PayslipPDF(ctx, slip.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, err = os.Stat(filepath.Join(f.svc.payslips.Dir, "payslips", slip.ID+".pdf"))
	require.NoError(t, err)

	again, err := f.svc.PayslipPDF(ctx, slip.ID)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestPayslipArchiveEncryptsAtRest(t *testing.T) {
	key, err := cryptoutil.New("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)
	archive := &PayslipArchive{Dir: t.TempDir(), Crypto: key}

	require.NoError(t, archive.Save("slip-1", []byte("%PDF-1.3 body")))
	raw, err := os.ReadFile(filepath.Join(archive.Dir, "payslips", "slip-1.pdf"))
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(raw, []byte("%PDF")))

	plain, ok, err := archive.Load("slip-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "%PDF-1.3 body", string(plain))

	_, ok, err = archive.Load("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnqueuedPayslipJobRendersArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slip, err := f.svc.ProcessSalary(ctx, "emp-2", march, ManualAdjustments{}, "user-1")
	require.NoError(t, err)
	require.Len(t, f.queue.runs, 1)

	_, err = f.queue.runs[0](ctx)
	require.NoError(t, err)
	_, ok, err := f.svc.payslips.Load(slip.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
