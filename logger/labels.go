package logger

// Label keys attached to log entries of the checkout pipeline.
const (
	LabelPaymentIntentID   = "paymentIntentId"
	LabelCertificateID     = "certificateId"
	LabelCertificateNumber = "certificateNumber"
	LabelPurchaseID        = "purchaseId"
	LabelDonationID        = "donationId"
	LabelEventType         = "eventType"
	LabelEventID           = "eventId"
	LabelFlow              = "checkoutFlow"
	LabelIdentity          = "identity"
	LabelRoute             = "route"
)
