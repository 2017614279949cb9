package domain

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type PaymentTestSuite struct {
	suite.Suite
	card    PaymentCard
	address Address
}

func (s *PaymentTestSuite) SetupTest() {
	s.card = PaymentCard{
		HolderName:  "Jordan Lee",
		Number:      "4111111111111111",
		ExpiryMonth: 12,
		ExpiryYear:  2027,
		CVV:         "123",
	}
	s.address = Address{
		Street:     "1 Main St",
		City:       "Toronto",
		PostalCode: "M5V 2T6",
		Country:    "CA",
	}
}

func (s *PaymentTestSuite) TestValidCard() {
	s.NoError(s.card.Validate(now))
}

func (s *PaymentTestSuite) TestCardRules() {
	tests := []struct {
		desc   string
		mutate func(c *PaymentCard)
	}{
		{"bad check digit", func(c *PaymentCard) { c.Number = "4111111111111112" }},
		{"letters in number", func(c *PaymentCard) { c.Number = "4111abcd11111111" }},
		{"short cvv", func(c *PaymentCard) { c.CVV = "12" }},
		{"long cvv", func(c *PaymentCard) { c.CVV = "12345" }},
		{"non numeric cvv", func(c *PaymentCard) { c.CVV = "12a" }},
		{"decimal cvv", func(c *PaymentCard) { c.CVV = "1.5" }},
		{"negative cvv", func(c *PaymentCard) { c.CVV = "-12" }},
		{"signed cvv", func(c *PaymentCard) { c.CVV = "+12" }},
		{"fractional cvv", func(c *PaymentCard) { c.CVV = "12.0" }},
		{"bad month", func(c *PaymentCard) { c.ExpiryMonth = 13 }},
		{"expired last year", func(c *PaymentCard) { c.ExpiryYear = 2025 }},
		{"expired last month", func(c *PaymentCard) { c.ExpiryYear = 2026; c.ExpiryMonth = 2 }},
		{"missing holder", func(c *PaymentCard) { c.HolderName = "" }},
	}
	for _, tt := range tests {
		c := s.card
		tt.mutate(&c)
		s.ErrorIs(c.Validate(now), ErrValidation, tt.desc)
	}
}

func (s *PaymentTestSuite) TestCardValidThroughExpiryMonth() {
	c := s.card
	c.ExpiryYear = 2026
	c.ExpiryMonth = 3
	s.NoError(c.Validate(now))
}

func (s *PaymentTestSuite) TestFourDigitCVV() {
	c := s.card
	c.Number = "378282246310005"
	c.CVV = "1234"
	s.NoError(c.Validate(now))
}

func (s *PaymentTestSuite) TestMasked() {
	m := s.card.Masked()
	s.Equal("************1111", m.Number)
	s.Empty(m.CVV)
	s.Equal("4111111111111111", s.card.Number)
}

func (s *PaymentTestSuite) TestAddress() {
	s.NoError(s.address.Validate())

	a := s.address
	a.City = ""
	s.ErrorIs(a.Validate(), ErrValidation)
}

func TestPaymentTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentTestSuite))
}
