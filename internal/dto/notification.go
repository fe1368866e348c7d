package dto

// Notification intent types dispatched to the outbound gateway.
const (
	IntentInvoiceEmail = "invoice_email"
)

// EmailIntent is the fully rendered outbound email the core hands to the
// notification dispatcher. Delivery is fire-and-forget; failures are logged
// by the dispatcher and never affect the financial state that produced the
// intent.
type EmailIntent struct {
	Type           string `json:"type"`
	To             string `json:"to"`
	FromName       string `json:"from_name"`
	Subject        string `json:"subject"`
	HTML           string `json:"html"`
	AttachmentName string `json:"attachment_name,omitempty"`
	Attachment     []byte `json:"attachment,omitempty"`
}
