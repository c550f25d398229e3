package event

import "time"

// PrincipalVerifiedTopic carries PrincipalVerifiedMessage after a principal
// confirms their email with a passcode.
const PrincipalVerifiedTopic string = "auth.principal.verified"

// PrincipalVerifiedConsumerNotification is the consumer group of the notification module.
const PrincipalVerifiedConsumerNotification string = "notification.principal_verified"

// HeaderCorrelationID propagates the request correlation ID to consumers.
const HeaderCorrelationID string = "cID"

type PrincipalVerifiedMessage struct {
	PrincipalID int64     `json:"principal_id,string"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	VerifiedAt  time.Time `json:"verified_at"`
}
