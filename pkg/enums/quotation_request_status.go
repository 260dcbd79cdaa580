package enums

// QuotationRequestStatus tracks a customer's request for quotes.
type QuotationRequestStatus string

const (
	QuotationRequestStatusPending   QuotationRequestStatus = "pending"
	QuotationRequestStatusCompleted QuotationRequestStatus = "completed"
	QuotationRequestStatusCancelled QuotationRequestStatus = "cancelled"
)

var quotationRequestStatuses = []QuotationRequestStatus{
	QuotationRequestStatusPending,
	QuotationRequestStatusCompleted,
	QuotationRequestStatusCancelled,
}

func (v QuotationRequestStatus) String() string { return string(v) }

func (v QuotationRequestStatus) IsValid() bool {
	_, err := ParseQuotationRequestStatus(string(v))
	return err == nil
}

func ParseQuotationRequestStatus(value string) (QuotationRequestStatus, error) {
	return parse("quotation request status", value, quotationRequestStatuses)
}

// IsTerminal reports whether the request is closed.
func (v QuotationRequestStatus) IsTerminal() bool {
	return v == QuotationRequestStatusCompleted || v == QuotationRequestStatusCancelled
}
