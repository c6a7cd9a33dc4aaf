package compensation

import "github.com/google/uuid"

// OrderCompensationDTO is the payload of the compensation-created event
// consumed by the payment service.
type OrderCompensationDTO struct {
	ID                 uuid.UUID `json:"id"`
	AmountToCompensate uint64    `json:"amountToCompensate"`
}
