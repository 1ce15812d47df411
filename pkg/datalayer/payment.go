package datalayer

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// PaymentType is the discriminator stored in payments.p_type.
type PaymentType string

const (
	PaymentCash PaymentType = "cash"
	PaymentCard PaymentType = "card"
)

var validate = validator.New()

// Payment holds both payment kinds in one table. Card payments carry a
// receipt code; cash payments never do.
type Payment struct {
	PaymentID   uint        `gorm:"primaryKey" json:"payment_id"`
	PType       PaymentType `gorm:"column:p_type;size:8;not null;index" json:"p_type" validate:"required,oneof=cash card"`
	Amount      float64     `gorm:"type:decimal(9,2)" json:"amount" validate:"gte=0"`
	ReceiptCode *string     `gorm:"size:64" json:"receipt_code,omitempty" validate:"required_if=PType card"`
	OrderInfoID *uint       `gorm:"index" json:"order_info_id,omitempty"`
}

// NewCashPayment returns an unsaved cash payment.
func NewCashPayment(amount float64) Payment {
	return Payment{PType: PaymentCash, Amount: amount}
}

// NewCardPayment returns an unsaved card payment with its receipt code.
func NewCardPayment(amount float64, receiptCode string) Payment {
	return Payment{PType: PaymentCard, Amount: amount, ReceiptCode: &receiptCode}
}

// IsCard reports whether the payment was made by card.
func (p Payment) IsCard() bool { return p.PType == PaymentCard }

// BeforeSave rejects rows that break the discriminator rules.
func (p *Payment) BeforeSave(*gorm.DB) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid payment: %w", err)
	}
	if p.PType == PaymentCash && p.ReceiptCode != nil {
		return fmt.Errorf("invalid payment: cash payments have no receipt code")
	}
	return nil
}
