package enums

// OutboxAggregateType names the entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder             OutboxAggregateType = "order"
	AggregateQuotationRequest  OutboxAggregateType = "quotation_request"
	AggregateQuotationResponse OutboxAggregateType = "quotation_response"
)

var aggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateQuotationRequest,
	AggregateQuotationResponse,
}

func (a OutboxAggregateType) IsValid() bool {
	_, err := ParseOutboxAggregateType(string(a))
	return err == nil
}

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse("aggregate type", value, aggregateTypes)
}

// OutboxEventType names what happened to the aggregate.
type OutboxEventType string

const (
	EventOrderCreated              OutboxEventType = "order_created"
	EventOrderCanceled             OutboxEventType = "order_canceled"
	EventOrderStatusChanged        OutboxEventType = "order_status_changed"
	EventQuotationRequested        OutboxEventType = "quotation_requested"
	EventQuotationRequestCancelled OutboxEventType = "quotation_request_cancelled"
	EventQuotationResponded        OutboxEventType = "quotation_responded"
	EventQuotationResponseUpdated  OutboxEventType = "quotation_response_updated"
	EventQuotationResponseWithdrew OutboxEventType = "quotation_response_withdrawn"
	EventQuotationAccepted         OutboxEventType = "quotation_accepted"
)

var eventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderCanceled,
	EventOrderStatusChanged,
	EventQuotationRequested,
	EventQuotationRequestCancelled,
	EventQuotationResponded,
	EventQuotationResponseUpdated,
	EventQuotationResponseWithdrew,
	EventQuotationAccepted,
}

func (e OutboxEventType) IsValid() bool {
	_, err := ParseOutboxEventType(string(e))
	return err == nil
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse("event type", value, eventTypes)
}
