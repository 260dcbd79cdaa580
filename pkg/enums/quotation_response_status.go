package enums

// QuotationResponseStatus tracks a distributor's offer against a request.
// Only submitted responses can still change.
type QuotationResponseStatus string

const (
	QuotationResponseStatusSubmitted QuotationResponseStatus = "submitted"
	QuotationResponseStatusAccepted  QuotationResponseStatus = "accepted"
	QuotationResponseStatusRejected  QuotationResponseStatus = "rejected"
	QuotationResponseStatusCancelled QuotationResponseStatus = "cancelled"
)

var quotationResponseStatuses = []QuotationResponseStatus{
	QuotationResponseStatusSubmitted,
	QuotationResponseStatusAccepted,
	QuotationResponseStatusRejected,
	QuotationResponseStatusCancelled,
}

func (v QuotationResponseStatus) String() string { return string(v) }

func (v QuotationResponseStatus) IsValid() bool {
	_, err := ParseQuotationResponseStatus(string(v))
	return err == nil
}

func ParseQuotationResponseStatus(value string) (QuotationResponseStatus, error) {
	return parse("quotation response status", value, quotationResponseStatuses)
}

func (v QuotationResponseStatus) IsTerminal() bool {
	return v != QuotationResponseStatusSubmitted
}
