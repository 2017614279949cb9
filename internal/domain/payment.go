package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

type PaymentCard struct {
	HolderName  string `json:"holder_name" validate:"required"`
	Number      string `json:"number" validate:"required,credit_card"`
	ExpiryMonth int    `json:"expiry_month" validate:"required,min=1,max=12"`
	ExpiryYear  int    `json:"expiry_year" validate:"required,min=2000"`
	CVV         string `json:"cvv,omitempty" validate:"required,number,min=3,max=4"`
}

func (a Address) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: address: %s", ErrValidation, describe(err))
	}
	return nil
}

// Validate checks the card number check digit, the CVV format and that the
// card has not expired at now. A card stays valid through its expiry month.
func (c PaymentCard) Validate(now time.Time) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: payment card: %s", ErrValidation, describe(err))
	}
	firstOfNextMonth := time.Date(c.ExpiryYear, time.Month(c.ExpiryMonth)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(firstOfNextMonth) {
		return fmt.Errorf("%w: payment card: expired", ErrValidation)
	}
	return nil
}

// Masked returns a copy fit for storage: only the last four digits of the
// number are kept and the CVV is dropped.
func (c PaymentCard) Masked() PaymentCard {
	digits := strings.ReplaceAll(c.Number, " ", "")
	last := digits
	if len(digits) > 4 {
		last = digits[len(digits)-4:]
	}
	c.Number = strings.Repeat("*", len(digits)-len(last)) + last
	c.CVV = ""
	return c
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(fields, ", ")
}
