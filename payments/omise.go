package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

type OmiseGatewayConfig struct {
	PublicKey string
	SecretKey string
	Currency  string
}

type omiseGateway struct {
	client   *omise.Client
	currency string
}

func NewOmiseGateway(cfg OmiseGatewayConfig) (Gateway, error) {
	if cfg.PublicKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("invalid omise configuration: public and secret keys are required")
	}
	client, err := omise.NewClient(cfg.PublicKey, cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create omise client: %w", err)
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "thb"
	}
	return &omiseGateway{client: client, currency: currency}, nil
}

func (g *omiseGateway) Charge(ctx context.Context, amount int64, cardToken, description string) (string, error) {
	if cardToken == "" {
		return "", errors.New("card token is required")
	}

	charge := &omise.Charge{}
	create := &operations.CreateCharge{
		Amount:      amount,
		Currency:    g.currency,
		Card:        cardToken,
		Description: description,
	}
	if err := g.client.Do(charge, create); err != nil {
		return "", fmt.Errorf("omise charge failed: %w", err)
	}
	if !charge.Paid {
		return "", fmt.Errorf("omise charge %s not paid, status %s", charge.ID, charge.Status)
	}
	return charge.ID, nil
}
