package sepa

import "testing"

const sampleStatusReport = `<?xml version="1.0" encoding="UTF-8"?>
<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pain.002.001.10">
  <CstmrPmtStsRpt>
    <GrpHdr>
      <MsgId>BANKREF-20260116-001</MsgId>
      <CreDtTm>2026-01-16T08:30:00</CreDtTm>
    </GrpHdr>
    <OrgnlGrpInfAndSts>
      <OrgnlMsgId>DD-20260115-01</OrgnlMsgId>
      <GrpSts>PART</GrpSts>
    </OrgnlGrpInfAndSts>
    <OrgnlPmtInfAndSts>
      <OrgnlPmtInfId>DD-20260115-01-RCUR</OrgnlPmtInfId>
      <TxInfAndSts>
        <StsId>TX-1</StsId>
        <OrgnlEndToEndId>E2E-INV-2026-0001</OrgnlEndToEndId>
        <TxSts>RJCT</TxSts>
        <StsRsnInf>
          <Rsn><Cd>AM04</Cd></Rsn>
          <AddtlInf>Insufficient funds</AddtlInf>
        </StsRsnInf>
      </TxInfAndSts>
      <TxInfAndSts>
        <OrgnlEndToEndId>E2E-INV-2026-0002</OrgnlEndToEndId>
        <TxSts>ACSC</TxSts>
      </TxInfAndSts>
    </OrgnlPmtInfAndSts>
  </CstmrPmtStsRpt>
</Document>`

func TestParseStatusReport(t *testing.T) {
	report, err := ParseStatusReport([]byte(sampleStatusReport))
	if err != nil {
		t.Fatalf("ParseStatusReport: %v", err)
	}
	if report.MessageID != "BANKREF-20260116-001" {
		t.Fatalf("message id = %q", report.MessageID)
	}
	if report.OriginalMsgID != "DD-20260115-01" {
		t.Fatalf("original msg id = %q", report.OriginalMsgID)
	}
	if report.GroupStatus != "PART" {
		t.Fatalf("group status = %q", report.GroupStatus)
	}
	if len(report.Transactions) != 2 {
		t.Fatalf("transactions = %d, want 2", len(report.Transactions))
	}

	reject := report.Transactions[0]
	if !reject.Rejected() || reject.EndToEndID != "E2E-INV-2026-0001" {
		t.Fatalf("first transaction = %+v", reject)
	}
	if reject.ReasonCode != "AM04" || reject.Info != "Insufficient funds" {
		t.Fatalf("reject reason = %q %q", reject.ReasonCode, reject.Info)
	}
	if settled := report.Transactions[1]; settled.Rejected() || settled.Pending() {
		t.Fatalf("second transaction = %+v", settled)
	}
}

func TestParseStatusReportInheritsBlockStatus(t *testing.T) {
	doc := `<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pain.002.001.03">
  <CstmrPmtStsRpt>
    <GrpHdr><MsgId>M1</MsgId></GrpHdr>
    <OrgnlGrpInfAndSts><OrgnlMsgId>DD-1</OrgnlMsgId></OrgnlGrpInfAndSts>
    <OrgnlPmtInfAndSts>
      <PmtInfSts>RJCT</PmtInfSts>
      <TxInfAndSts>
        <OrgnlEndToEndId>E2E-INV-2026-0009</OrgnlEndToEndId>
        <StsRsnInf><Rsn><Cd>MD01</Cd></Rsn></StsRsnInf>
      </TxInfAndSts>
    </OrgnlPmtInfAndSts>
  </CstmrPmtStsRpt>
</Document>`
	report, err := ParseStatusReport([]byte(doc))
	if err != nil {
		t.Fatalf("ParseStatusReport: %v", err)
	}
	if len(report.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(report.Transactions))
	}
	tx := report.Transactions[0]
	if !tx.Rejected() || tx.ReasonCode != "MD01" {
		t.Fatalf("transaction = %+v", tx)
	}
}

func TestParseStatusReportRejectsOtherDocuments(t *testing.T) {
	if _, err := ParseStatusReport([]byte(`<Document><CstmrDrctDbtInitn/></Document>`)); err == nil {
		t.Fatal("expected an error for a non status report document")
	}
	if _, err := ParseStatusReport([]byte(`not xml`)); err == nil {
		t.Fatal("expected an error for malformed input")
	}
}
