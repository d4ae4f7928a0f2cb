package domain

type Lead struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	Message      string `json:"message,omitempty"`
	PropertyCode string `json:"propertyCode,omitempty"`
}

type LeadReceipt struct {
	WhatsAppURL string `json:"whatsappUrl"`
	Notified    bool   `json:"notified"`
}
