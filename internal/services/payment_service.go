package services

import (
	"context"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"
)

type PaymentService struct {
	store    repositories.AuctionStore
	items    *itemMutator
	notifier *Notifier
	clock    utils.Clock
	log      logger.Logger
}

func NewPaymentService(
	store repositories.AuctionStore,
	locker *ItemLocker,
	notifier *Notifier,
	clock utils.Clock,
	log logger.Logger,
) *PaymentService {
	return &PaymentService{
		store:    store,
		items:    &itemMutator{store: store, locker: locker, log: log},
		notifier: notifier,
		clock:    clock,
		log:      log,
	}
}

// MakePayment settles a SOLD item for its recorded winner and stores a
// receipt holding copies of the address and (masked) card used.
func (s *PaymentService) MakePayment(ctx context.Context, itemID string, payer domain.Payer, card domain.PaymentCard) (*domain.Receipt, error) {
	if payer.ID == "" {
		return nil, fmt.Errorf("%w: payer is required", domain.ErrValidation)
	}
	if err := card.Validate(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := payer.Address.Validate(); err != nil {
		return nil, err
	}

	var receipt *domain.Receipt
	item, err := s.items.mutate(ctx, itemID,
		func(ctx context.Context, item *domain.AuctionItem) error {
			if item.Status != domain.StatusSold {
				return fmt.Errorf("%w: item %s is %s", domain.ErrInvalidState, item.ID, item.Status)
			}
			if item.HighestBidderID != payer.ID {
				return fmt.Errorf("%w: %s did not win item %s", domain.ErrInvalidPayer, payer.ID, item.ID)
			}

			now := s.clock.Now()
			if err := item.Transition(domain.StatusPaid, now); err != nil {
				return err
			}
			receipt = &domain.Receipt{
				ID:              utils.GenerateID("receipt"),
				ItemID:          item.ID,
				BuyerID:         payer.ID,
				TotalCost:       item.CurrentPrice,
				ShippingTime:    item.ShippingTime,
				ShippingAddress: payer.Address,
				PaymentCard:     card.Masked(),
				CreatedAt:       now,
			}
			return nil
		},
		func(ctx context.Context, item *domain.AuctionItem) error {
			return s.store.CommitPayment(ctx, item, receipt)
		},
	)
	if err != nil {
		s.log.Info("Payment rejected", "item_id", itemID, "payer_id", payer.ID, "error", err)
		return nil, err
	}

	s.log.Info("Payment completed", "item_id", item.ID, "receipt_id", receipt.ID, "total_cost", receipt.TotalCost)
	s.notifier.ItemUpdated(ctx, item)
	s.notifier.Payment(ctx, receipt)
	return receipt, nil
}

func (s *PaymentService) GetReceipt(ctx context.Context, itemID string) (*domain.Receipt, error) {
	receipt, err := s.store.GetReceiptByItem(ctx, itemID)
	if err != nil {
		return nil, storeError("get receipt", err)
	}
	return receipt, nil
}
