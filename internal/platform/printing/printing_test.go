package printing

import (
	"bytes"
	"testing"
	"time"
)

func TestDocumentRendersPDF(t *testing.T) {
	doc := NewA4()
	doc.Header(Company{Name: "Empresa Demo, Lda", NIF: "5000000000", Address: "Luanda"}, "Recibo de Salário", "Março 2026")
	doc.Row("Vencimento Base", "100.000,00 Kz", false)
	doc.Row("Total Líquido", "133.923,73 Kz", true)
	doc.Footer(time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC))

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("expected PDF header")
	}
}
