package entity

type Channel string

const (
	ChannelEmail Channel = "email"
)

func (c Channel) String() string {
	return string(c)
}

type DeliveryStatus string

const (
	DeliveryStatusProcessing DeliveryStatus = "processing"
	DeliveryStatusSent       DeliveryStatus = "sent"
	DeliveryStatusFailed     DeliveryStatus = "failed"
)

func (s DeliveryStatus) String() string {
	return string(s)
}

// Kind names what a delivery is about. A principal receives each kind at most
// once per channel.
type Kind string

const (
	KindWelcome Kind = "welcome"
)

func (k Kind) String() string {
	return string(k)
}
