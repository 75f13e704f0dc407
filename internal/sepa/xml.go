package sepa

import (
	"encoding/xml"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ledenbeheer/internal/domain"
)

// Namespace of the customer direct debit initiation message.
const PainNamespace = "urn:iso:std:iso:20022:tech:xsd:pain.008.001.08"

// CreditorConfig carries the organisation side of a collection file.
type CreditorConfig struct {
	Name       string
	IBAN       string
	BIC        string
	CreditorID string
}

// Document is the pain.008.001.08 root element.
type Document struct {
	XMLName xml.Name       `xml:"Document"`
	Xmlns   string         `xml:"xmlns,attr"`
	Initn   DirectDebitMsg `xml:"CstmrDrctDbtInitn"`
}

type DirectDebitMsg struct {
	GrpHdr   GroupHeader   `xml:"GrpHdr"`
	PmtInfos []PaymentInfo `xml:"PmtInf"`
}

type GroupHeader struct {
	MsgID    string `xml:"MsgId"`
	CreDtTm  string `xml:"CreDtTm"`
	NbOfTxs  int    `xml:"NbOfTxs"`
	CtrlSum  string `xml:"CtrlSum"`
	InitgPty Party  `xml:"InitgPty"`
}

type Party struct {
	Nm string `xml:"Nm"`
}

type PaymentInfo struct {
	PmtInfID     string          `xml:"PmtInfId"`
	PmtMtd       string          `xml:"PmtMtd"`
	BtchBookg    bool            `xml:"BtchBookg"`
	NbOfTxs      int             `xml:"NbOfTxs"`
	CtrlSum      string          `xml:"CtrlSum"`
	PmtTpInf     PaymentTypeInfo `xml:"PmtTpInf"`
	ReqdColltnDt string          `xml:"ReqdColltnDt"`
	Cdtr         Party           `xml:"Cdtr"`
	CdtrAcct     Account         `xml:"CdtrAcct"`
	CdtrAgt      Agent           `xml:"CdtrAgt"`
	ChrgBr       string          `xml:"ChrgBr"`
	CdtrSchmeID  CreditorScheme  `xml:"CdtrSchmeId"`
	Txs          []Transaction   `xml:"DrctDbtTxInf"`
}

type PaymentTypeInfo struct {
	SvcLvlCd     string `xml:"SvcLvl>Cd"`
	LclInstrmCd  string `xml:"LclInstrm>Cd"`
	SequenceType string `xml:"SeqTp"`
}

type Account struct {
	IBAN string `xml:"Id>IBAN"`
}

type Agent struct {
	BICFI string `xml:"FinInstnId>BICFI"`
}

type CreditorScheme struct {
	ID       string `xml:"Id>PrvtId>Othr>Id"`
	SchemeNm string `xml:"Id>PrvtId>Othr>SchmeNm>Prtry"`
}

type Transaction struct {
	EndToEndID string        `xml:"PmtId>EndToEndId"`
	InstdAmt   Amount        `xml:"InstdAmt"`
	MndtRltd   MandateInfo   `xml:"DrctDbtTx>MndtRltdInf"`
	DbtrAgt    Agent         `xml:"DbtrAgt"`
	Dbtr       Party         `xml:"Dbtr"`
	DbtrAcct   Account       `xml:"DbtrAcct"`
	RmtInf     *UnstructInfo `xml:"RmtInf,omitempty"`
}

type Amount struct {
	Ccy   string `xml:"Ccy,attr"`
	Value string `xml:",chardata"`
}

type MandateInfo struct {
	MndtID    string `xml:"MndtId"`
	DtOfSgntr string `xml:"DtOfSgntr"`
}

type UnstructInfo struct {
	Ustrd string `xml:"Ustrd"`
}

// BuildDocument assembles the initiation message for a batch. Rows
// are grouped into one payment block per sequence type; ref feeds the
// message id so callers control determinism.
func BuildDocument(b *domain.Batch, cfg CreditorConfig, ref string, now time.Time) (*Document, error) {
	if cfg.Name == "" || cfg.IBAN == "" || cfg.CreditorID == "" {
		return nil, fmt.Errorf("%w: creditor name, IBAN and creditor id required", domain.ErrSettingsIncomplete)
	}
	if len(b.Rows) == 0 {
		return nil, fmt.Errorf("%w: batch has no rows", domain.ErrInvalidInput)
	}
	if len(b.Rows) > MaxBatchRows {
		return nil, fmt.Errorf("%w: batch exceeds %d transactions", domain.ErrInvalidInput, MaxBatchRows)
	}

	msgID := SanitizeText(fmt.Sprintf("BATCH-%s-%s", b.Name, ref), MaxMsgIDLen)
	groups := map[domain.SequenceType][]domain.BatchRow{}
	for _, row := range b.Rows {
		groups[row.SequenceType] = append(groups[row.SequenceType], row)
	}
	seqTypes := make([]string, 0, len(groups))
	for st := range groups {
		seqTypes = append(seqTypes, string(st))
	}
	sort.Strings(seqTypes)

	total := decimal.Zero
	count := 0
	pmtInfos := make([]PaymentInfo, 0, len(groups))
	for _, st := range seqTypes {
		rows := groups[domain.SequenceType(st)]
		sum := decimal.Zero
		txs := make([]Transaction, 0, len(rows))
		for _, row := range rows {
			iban, err := ValidateIBAN(row.IBAN)
			if err != nil {
				return nil, fmt.Errorf("row %s: %w", row.InvoiceNumber, err)
			}
			bic := row.BIC
			if bic == "" {
				bic = DeriveBIC(iban)
			}
			if bic == "" {
				bic = FallbackBIC
			}
			tx := Transaction{
				EndToEndID: SanitizeText("E2E-"+row.InvoiceNumber, MaxMsgIDLen),
				InstdAmt:   Amount{Ccy: currencyOrEUR(row.Currency), Value: row.Amount.StringFixed(2)},
				MndtRltd: MandateInfo{
					MndtID:    SanitizeText(row.MandateReference, MaxMsgIDLen),
					DtOfSgntr: row.MandateSignDate.Format("2006-01-02"),
				},
				DbtrAgt:  Agent{BICFI: bic},
				Dbtr:     Party{Nm: SanitizeText(row.DebtorName, MaxNameLen)},
				DbtrAcct: Account{IBAN: iban},
			}
			if desc := SanitizeText(remittanceText(row), MaxRemittanceLen); desc != "" {
				tx.RmtInf = &UnstructInfo{Ustrd: desc}
			}
			txs = append(txs, tx)
			sum = sum.Add(row.Amount)
		}
		pmtInfos = append(pmtInfos, PaymentInfo{
			PmtInfID:     SanitizeText(msgID+"-"+st, MaxMsgIDLen),
			PmtMtd:       "DD",
			BtchBookg:    true,
			NbOfTxs:      len(txs),
			CtrlSum:      sum.Round(2).StringFixed(2),
			PmtTpInf:     PaymentTypeInfo{SvcLvlCd: "SEPA", LclInstrmCd: "CORE", SequenceType: st},
			ReqdColltnDt: b.BatchDate.Format("2006-01-02"),
			Cdtr:         Party{Nm: SanitizeText(cfg.Name, MaxNameLen)},
			CdtrAcct:     Account{IBAN: NormalizeIBAN(cfg.IBAN)},
			CdtrAgt:      Agent{BICFI: creditorBIC(cfg)},
			ChrgBr:       "SLEV",
			CdtrSchmeID:  CreditorScheme{ID: cfg.CreditorID, SchemeNm: "SEPA"},
			Txs:          txs,
		})
		total = total.Add(sum)
		count += len(txs)
	}

	return &Document{
		Xmlns: PainNamespace,
		Initn: DirectDebitMsg{
			GrpHdr: GroupHeader{
				MsgID:    msgID,
				CreDtTm:  now.Format("2006-01-02T15:04:05"),
				NbOfTxs:  count,
				CtrlSum:  total.Round(2).StringFixed(2),
				InitgPty: Party{Nm: SanitizeText(cfg.Name, MaxNameLen)},
			},
			PmtInfos: pmtInfos,
		},
	}, nil
}

// Encode renders the document with the XML declaration.
func (d *Document) Encode() ([]byte, error) {
	body, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

func creditorBIC(cfg CreditorConfig) string {
	if cfg.BIC != "" {
		return cfg.BIC
	}
	if bic := DeriveBIC(cfg.IBAN); bic != "" {
		return bic
	}
	return FallbackBIC
}

func currencyOrEUR(ccy string) string {
	if ccy == "" {
		return "EUR"
	}
	return ccy
}

func remittanceText(row domain.BatchRow) string {
	if row.InvoiceNumber == "" {
		return ""
	}
	return fmt.Sprintf("Contributie %s %s", row.InvoiceNumber, row.MemberName)
}
