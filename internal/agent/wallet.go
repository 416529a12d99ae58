package agent

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

// Wallet — кошелек единственного счета агента. Все мутации
// сериализованы мьютексом: баланс никогда не уходит в минус.
type Wallet struct {
	mu      sync.Mutex
	account *domain.Account
}

func NewWallet() *Wallet {
	return &Wallet{}
}

// CreateAccount создает счет с начальным депозитом. Повторное создание
// замещает счет (демо-сценарий: один активный счет на агента).
func (w *Wallet) CreateAccount(initial decimal.Decimal) (*domain.Account, error) {
	if initial.IsNegative() {
		return nil, fmt.Errorf("%w: initial deposit must not be negative", domain.ErrInvalidAmount)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.account = &domain.Account{
		ID:            uuid.NewString(),
		WalletBalance: initial,
	}
	cp := *w.account
	return &cp, nil
}

func (w *Wallet) Account() (*domain.Account, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.account == nil {
		return nil, domain.ErrAccountNotFound
	}
	cp := *w.account
	return &cp, nil
}

func (w *Wallet) Balance() (decimal.Decimal, error) {
	acc, err := w.Account()
	if err != nil {
		return decimal.Zero, err
	}
	return acc.WalletBalance, nil
}

// Deposit пополняет счет.
func (w *Wallet) Deposit(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: deposit must be positive", domain.ErrInvalidAmount)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.account == nil {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	w.account.WalletBalance = w.account.WalletBalance.Add(amount)
	return w.account.WalletBalance, nil
}

// Withdraw снимает средства.
func (w *Wallet) Withdraw(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: withdrawal must be positive", domain.ErrInvalidAmount)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.account == nil {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	if amount.GreaterThan(w.account.WalletBalance) {
		return decimal.Zero, fmt.Errorf("%w: balance %s, requested %s",
			domain.ErrInsufficientFunds, w.account.WalletBalance, amount)
	}
	w.account.WalletBalance = w.account.WalletBalance.Sub(amount)
	return w.account.WalletBalance, nil
}

// ReserveForOrder списывает стоимость заказа в момент подачи, еще до
// вердикта продавца. Компенсация — через Refund.
func (w *Wallet) ReserveForOrder(totalCost decimal.Decimal) error {
	if !totalCost.IsPositive() {
		return fmt.Errorf("%w: order cost must be positive", domain.ErrInvalidAmount)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.account == nil {
		return domain.ErrAccountNotFound
	}
	if w.account.WalletBalance.LessThan(totalCost) {
		return fmt.Errorf("%w: balance %s, order cost %s",
			domain.ErrInsufficientFunds, w.account.WalletBalance, totalCost)
	}
	w.account.WalletBalance = w.account.WalletBalance.Sub(totalCost)
	return nil
}

// Refund возвращает ранее зарезервированную сумму (заказ завершился
// ошибкой или так и не дошел до продавца).
func (w *Wallet) Refund(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: refund must be positive", domain.ErrInvalidAmount)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.account == nil {
		return domain.ErrAccountNotFound
	}
	w.account.WalletBalance = w.account.WalletBalance.Add(amount)
	return nil
}
