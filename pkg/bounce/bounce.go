package bounce

import "time"

// Type identifies a bounce classification as reported by the API.
type Type string

// Bounce types the API reports. The list mirrors Postmark's documented
// classifications; List accepts any of them as a filter.
const (
	TypeHardBounce          Type = "HardBounce"
	TypeSoftBounce          Type = "SoftBounce"
	TypeTransient           Type = "Transient"
	TypeUnsubscribe         Type = "Unsubscribe"
	TypeSubscribe           Type = "Subscribe"
	TypeAutoResponder       Type = "AutoResponder"
	TypeAddressChange       Type = "AddressChange"
	TypeDnsError            Type = "DnsError"
	TypeSpamNotification    Type = "SpamNotification"
	TypeOpenRelayTest       Type = "OpenRelayTest"
	TypeUnknown             Type = "Unknown"
	TypeBlocked             Type = "Blocked"
	TypeSpamComplaint       Type = "SpamComplaint"
	TypeManuallyDeactivated Type = "ManuallyDeactivated"
)

// Bounce is one delivery-failure record.
type Bounce struct {
	ID            int64     `json:"ID"`
	Type          Type      `json:"Type"`
	TypeCode      int       `json:"TypeCode"`
	Name          string    `json:"Name"`
	Tag           string    `json:"Tag"`
	MessageID     string    `json:"MessageID"`
	Description   string    `json:"Description"`
	Details       string    `json:"Details"`
	Email         string    `json:"Email"`
	BouncedAt     time.Time `json:"BouncedAt"`
	DumpAvailable bool      `json:"DumpAvailable"`
	Inactive      bool      `json:"Inactive"`
	CanActivate   bool      `json:"CanActivate"`
	Subject       string    `json:"Subject"`
}

// Page is one page of bounce records together with the total match count, so
// callers can drive offset pagination.
type Page struct {
	TotalCount int      `json:"TotalCount"`
	Bounces    []Bounce `json:"Bounces"`
}

// Filter narrows and pages a List call. The zero value lists the newest
// bounces with the API's default page size.
type Filter struct {
	Type        Type   // restrict to one bounce type
	Inactive    *bool  // restrict by whether the bounce deactivated the address
	EmailFilter string // substring match on the recipient address
	MessageID   string // bounces for one previously sent message
	Tag         string // restrict to one send tag
	Count       int    // page size, API default when zero
	Offset      int    // records to skip
}
