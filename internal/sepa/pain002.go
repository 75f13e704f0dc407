package sepa

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Banks answer a pain.008 initiation with a pain.002 payment status
// report. Minor versions differ per bank (.03 up to .12 are in the
// wild) but the elements we read are stable, so the decoder matches on
// local names and ignores the namespace.

// StatusReport is the subset of a pain.002 we act on.
type StatusReport struct {
	MessageID     string
	OriginalMsgID string
	GroupStatus   string // ACCP, ACSP, PART, RJCT or empty
	GroupReason   string
	Transactions  []TransactionStatus
}

// TransactionStatus carries one original transaction's verdict.
type TransactionStatus struct {
	EndToEndID string
	Status     string // ACSC, RJCT, PDNG, ...
	ReasonCode string // ISO R-code, e.g. AM04
	Info       string
}

// Rejected reports whether the bank refused this transaction.
func (t TransactionStatus) Rejected() bool { return t.Status == "RJCT" }

// Pending reports whether the bank has not decided yet.
func (t TransactionStatus) Pending() bool { return t.Status == "PDNG" }

type statusDocument struct {
	XMLName xml.Name         `xml:"Document"`
	Report  *statusReportXML `xml:"CstmrPmtStsRpt"`
}

type statusReportXML struct {
	Header    statusHeader    `xml:"GrpHdr"`
	GroupInfo statusGroupInfo `xml:"OrgnlGrpInfAndSts"`
	Payments  []statusPayment `xml:"OrgnlPmtInfAndSts"`
}

type statusHeader struct {
	MessageID string `xml:"MsgId"`
	CreatedAt string `xml:"CreDtTm"`
}

type statusGroupInfo struct {
	OriginalMsgID string      `xml:"OrgnlMsgId"`
	GroupStatus   string      `xml:"GrpSts"`
	Reasons       []statusRsn `xml:"StsRsnInf"`
}

type statusPayment struct {
	PaymentInfoID string         `xml:"OrgnlPmtInfId"`
	Status        string         `xml:"PmtInfSts"`
	Transactions  []statusTxInfo `xml:"TxInfAndSts"`
}

type statusTxInfo struct {
	StatusID   string      `xml:"StsId"`
	EndToEndID string      `xml:"OrgnlEndToEndId"`
	Status     string      `xml:"TxSts"`
	Reasons    []statusRsn `xml:"StsRsnInf"`
}

type statusRsn struct {
	Code string   `xml:"Rsn>Cd"`
	Info []string `xml:"AddtlInf"`
}

// ParseStatusReport decodes a pain.002 document. Transactions inherit
// the payment block status when the bank left TxSts empty, which some
// banks do on whole-block rejections.
func ParseStatusReport(data []byte) (*StatusReport, error) {
	var doc statusDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse pain.002: %w", err)
	}
	if doc.Report == nil {
		return nil, fmt.Errorf("parse pain.002: document holds no CstmrPmtStsRpt")
	}

	report := &StatusReport{
		MessageID:     strings.TrimSpace(doc.Report.Header.MessageID),
		OriginalMsgID: strings.TrimSpace(doc.Report.GroupInfo.OriginalMsgID),
		GroupStatus:   strings.TrimSpace(doc.Report.GroupInfo.GroupStatus),
	}
	if code, _ := firstReason(doc.Report.GroupInfo.Reasons); code != "" {
		report.GroupReason = code
	}

	for _, pmt := range doc.Report.Payments {
		for _, tx := range pmt.Transactions {
			ts := TransactionStatus{
				EndToEndID: strings.TrimSpace(tx.EndToEndID),
				Status:     strings.TrimSpace(tx.Status),
			}
			if ts.Status == "" {
				ts.Status = strings.TrimSpace(pmt.Status)
			}
			ts.ReasonCode, ts.Info = firstReason(tx.Reasons)
			report.Transactions = append(report.Transactions, ts)
		}
	}
	return report, nil
}

func firstReason(reasons []statusRsn) (code, info string) {
	for _, r := range reasons {
		if code == "" {
			code = strings.TrimSpace(r.Code)
		}
		for _, line := range r.Info {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if info != "" {
				info += " "
			}
			info += line
		}
		if code != "" && info != "" {
			break
		}
	}
	return code, info
}
