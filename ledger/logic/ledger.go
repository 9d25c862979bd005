// Package logic provides the balance ledger: a single durable amount that
// checkout debits and the shopper can top up or reset.
package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bearuzish-arch/SmartShop/shop"
)

// BalanceKey is the well-known record the balance is stored under.
const BalanceKey = "smartshop_balance"

// Error message constants for the ledger domain.
const (
	ErrMsgAmountPositive       = "Amount must be positive"
	ErrMsgInsufficientBalanceF = "Insufficient balance: have %s, need %s"
)

// ErrInsufficientBalance marks a debit (or prospective debit) larger than the balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// DefaultBalance is the balance before anything has been persisted.
var DefaultBalance = decimal.NewFromInt(1000)

// Store persists string records by key.
type Store interface {
	// Load returns the record under key and whether it exists.
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
}

// Ledger keeps the in-memory balance and its persisted record in step:
// every mutation writes the new value first and only adopts it in memory
// once the write succeeded.
type Ledger struct {
	store   Store
	balance decimal.Decimal
	logger  *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the ledger's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Open creates a ledger over store and loads the persisted balance.
func Open(ctx context.Context, store Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{store: store, balance: DefaultBalance, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	if _, err := l.Load(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Load re-reads the persisted balance, defaulting to DefaultBalance when no
// record exists yet. The default is not written back.
func (l *Ledger) Load(ctx context.Context) (decimal.Decimal, error) {
	raw, found, err := l.store.Load(ctx, BalanceKey)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load balance: %w", err)
	}
	if !found {
		l.balance = DefaultBalance
		l.logger.Info("no stored balance, using default", zap.String("balance", DefaultBalance.String()))
		return l.balance, nil
	}
	balance, err := Decode(raw)
	if err != nil {
		return decimal.Zero, err
	}
	l.balance = balance
	l.logger.Info("balance loaded", zap.String("balance", balance.String()))
	return l.balance, nil
}

// Balance returns the current balance.
func (l *Ledger) Balance() decimal.Decimal {
	return l.balance
}

// CanAfford reports whether amount fits within the balance.
func (l *Ledger) CanAfford(amount decimal.Decimal) bool {
	return !amount.GreaterThan(l.balance)
}

// Credit adds amount to the balance.
func (l *Ledger) Credit(ctx context.Context, amount decimal.Decimal) error {
	if err := shop.RequirePositive(amount, ErrMsgAmountPositive); err != nil {
		return err
	}
	return l.commit(ctx, "credit", l.balance.Add(amount))
}

// ResetToDefault sets the balance back to DefaultBalance.
func (l *Ledger) ResetToDefault(ctx context.Context) error {
	return l.commit(ctx, "reset", DefaultBalance)
}

// Debit subtracts amount, failing with ErrInsufficientBalance when amount
// exceeds the balance.
func (l *Ledger) Debit(ctx context.Context, amount decimal.Decimal) error {
	if err := shop.RequirePositive(amount, ErrMsgAmountPositive); err != nil {
		return err
	}
	if err := shop.RequireCovered(l.balance, amount, fmt.Sprintf(ErrMsgInsufficientBalanceF, l.balance, amount)); err != nil {
		return err.WithKind(ErrInsufficientBalance)
	}
	return l.commit(ctx, "debit", l.balance.Sub(amount))
}

func (l *Ledger) commit(ctx context.Context, op string, next decimal.Decimal) error {
	if err := l.store.Save(ctx, BalanceKey, Encode(next)); err != nil {
		l.logger.Error("balance write failed",
			zap.String("op", op),
			zap.String("balance", l.balance.String()),
			zap.Error(err),
		)
		return fmt.Errorf("%s balance: %w", op, err)
	}
	l.logger.Info("balance updated",
		zap.String("op", op),
		zap.String("from", l.balance.String()),
		zap.String("to", next.String()),
	)
	l.balance = next
	return nil
}

// Encode renders a balance as its textual record.
func Encode(balance decimal.Decimal) string {
	return balance.String()
}

// Decode parses a textual balance record. Negative values are rejected.
func Decode(raw string) (decimal.Decimal, error) {
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode balance %q: %w", raw, err)
	}
	if balance.IsNegative() {
		return decimal.Zero, fmt.Errorf("decode balance %q: negative", raw)
	}
	return balance, nil
}
