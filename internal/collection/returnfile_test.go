package collection

import (
	"context"
	"strings"
	"testing"
	"time"

	"ledenbeheer/internal/domain"
)

const sampleReturnFile = `<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pain.002.001.10">
  <CstmrPmtStsRpt>
    <GrpHdr><MsgId>BANKREF-1</MsgId></GrpHdr>
    <OrgnlGrpInfAndSts>
      <OrgnlMsgId>DD-20260115-01</OrgnlMsgId>
      <GrpSts>PART</GrpSts>
    </OrgnlGrpInfAndSts>
    <OrgnlPmtInfAndSts>
      <TxInfAndSts>
        <OrgnlEndToEndId>E2E-INV-2026-0001</OrgnlEndToEndId>
        <TxSts>RJCT</TxSts>
        <StsRsnInf>
          <Rsn><Cd>AM04</Cd></Rsn>
          <AddtlInf>Insufficient funds</AddtlInf>
        </StsRsnInf>
      </TxInfAndSts>
    </OrgnlPmtInfAndSts>
  </CstmrPmtStsRpt>
</Document>`

func TestProcessReturnFileSettlesUnmentionedRows(t *testing.T) {
	inv1 := openInvoice("inv-1", "INV-2026-0001", "member-1")
	inv2 := openInvoice("inv-2", "INV-2026-0002", "member-2")
	inv := &fakeInvoices{byID: map[string]*domain.Invoice{"inv-1": &inv1, "inv-2": &inv2}}
	sch := &fakeSchedules{byMember: map[string]*domain.DuesSchedule{
		"member-1": {Member: "member-1", Status: domain.DuesActive},
		"member-2": {Member: "member-2", Status: domain.DuesActive},
	}}
	mem := &fakeMembers{byID: map[string]*domain.Member{
		"member-1": {ID: "member-1", Email: "a@example.org", Status: domain.MemberStatusActive},
		"member-2": {ID: "member-2", Email: "b@example.org", Status: domain.MemberStatusActive},
	}}
	b := newTestBuilder(t, inv, &fakeMandates{byRef: map[string]*domain.Mandate{}}, mem, &fakeBatches{}, sch, &fakeNotify{})

	batch := submittedBatch(
		pendingRow("inv-1", "INV-2026-0001", "member-1"),
		pendingRow("inv-2", "INV-2026-0002", "member-2"),
	)
	now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	summary, err := b.ProcessReturnFile(context.Background(), batch, []byte(sampleReturnFile), now)
	if err != nil {
		t.Fatalf("ProcessReturnFile: %v", err)
	}
	if summary.Collected != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	// The bank only named the reject. The other row counts as collected.
	if inv2.Status != domain.InvoicePaid {
		t.Fatalf("unmentioned invoice = %+v", inv2)
	}
	if batch.Rows[0].Status != domain.RowFailed || batch.Rows[0].ResultCode != "AM04" {
		t.Fatalf("rejected row = %+v", batch.Rows[0])
	}
	if batch.Status != domain.BatchPartiallyProcessed {
		t.Fatalf("batch status = %s", batch.Status)
	}
}

func TestProcessReturnFileHoldsPendingTransactions(t *testing.T) {
	inv1 := openInvoice("inv-1", "INV-2026-0001", "member-1")
	inv2 := openInvoice("inv-2", "INV-2026-0002", "member-2")
	inv := &fakeInvoices{byID: map[string]*domain.Invoice{"inv-1": &inv1, "inv-2": &inv2}}
	sch := &fakeSchedules{byMember: map[string]*domain.DuesSchedule{
		"member-2": {Member: "member-2", Status: domain.DuesActive},
	}}
	mem := &fakeMembers{byID: map[string]*domain.Member{}}
	b := newTestBuilder(t, inv, &fakeMandates{byRef: map[string]*domain.Mandate{}}, mem, &fakeBatches{}, sch, &fakeNotify{})

	doc := strings.Replace(sampleReturnFile, "<TxSts>RJCT</TxSts>", "<TxSts>PDNG</TxSts>", 1)
	batch := submittedBatch(
		pendingRow("inv-1", "INV-2026-0001", "member-1"),
		pendingRow("inv-2", "INV-2026-0002", "member-2"),
	)
	summary, err := b.ProcessReturnFile(context.Background(), batch, []byte(doc), time.Now())
	if err != nil {
		t.Fatalf("ProcessReturnFile: %v", err)
	}
	if summary.Collected != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if batch.Rows[0].Status != domain.RowPending {
		t.Fatalf("pending row = %+v", batch.Rows[0])
	}
	if batch.Status != domain.BatchPartiallyProcessed {
		t.Fatalf("batch status = %s", batch.Status)
	}
}

func TestProcessReturnFileGroupReject(t *testing.T) {
	inv1 := openInvoice("inv-1", "INV-2026-0001", "member-1")
	inv := &fakeInvoices{byID: map[string]*domain.Invoice{"inv-1": &inv1}}
	sch := &fakeSchedules{byMember: map[string]*domain.DuesSchedule{
		"member-1": {Member: "member-1", Status: domain.DuesActive},
	}}
	mem := &fakeMembers{byID: map[string]*domain.Member{
		"member-1": {ID: "member-1", Email: "a@example.org", Status: domain.MemberStatusActive},
	}}
	not := &fakeNotify{}
	b := newTestBuilder(t, inv, &fakeMandates{byRef: map[string]*domain.Mandate{}}, mem, &fakeBatches{}, sch, not)

	doc := `<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pain.002.001.10">
  <CstmrPmtStsRpt>
    <GrpHdr><MsgId>BANKREF-2</MsgId></GrpHdr>
    <OrgnlGrpInfAndSts>
      <OrgnlMsgId>DD-20260115-01</OrgnlMsgId>
      <GrpSts>RJCT</GrpSts>
      <StsRsnInf><Rsn><Cd>DT01</Cd></Rsn></StsRsnInf>
    </OrgnlGrpInfAndSts>
  </CstmrPmtStsRpt>
</Document>`
	batch := submittedBatch(pendingRow("inv-1", "INV-2026-0001", "member-1"))
	summary, err := b.ProcessReturnFile(context.Background(), batch, []byte(doc), time.Now())
	if err != nil {
		t.Fatalf("ProcessReturnFile: %v", err)
	}
	if summary.Failed != 1 || summary.Collected != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if batch.Rows[0].ResultCode != "DT01" {
		t.Fatalf("row = %+v", batch.Rows[0])
	}
	if batch.Status != domain.BatchFailed {
		t.Fatalf("batch status = %s", batch.Status)
	}
}
