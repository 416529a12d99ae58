package domain

import "time"

// PolicyType определяет, что делать с заказом при срабатывании условия.
type PolicyType string

const (
	PolicyAutoApprove  PolicyType = "auto_approve"  // Доставить сразу, минуя ревью
	PolicyAutoReject   PolicyType = "auto_reject"   // Отклонить (терминальный error)
	PolicyManualReview PolicyType = "manual_review" // Требовать решения человека (HITL)
)

// Valid сообщает, известен ли тип политики.
func (t PolicyType) Valid() bool {
	switch t {
	case PolicyAutoApprove, PolicyAutoReject, PolicyManualReview:
		return true
	}
	return false
}

// Operator — оператор сравнения условия.
// Асимметрия коэрции намеренная и должна сохраняться: > и < сравнивают
// числа, = и != сравнивают строковые представления (даже для числовых
// полей), contains — подстрока.
type Operator string

const (
	OpGreaterThan Operator = ">"
	OpLessThan    Operator = "<"
	OpEqual       Operator = "="
	OpNotEqual    Operator = "!="
	OpContains    Operator = "contains"
)

// Valid сообщает, известен ли оператор. Неизвестный оператор не ошибка:
// условие с ним просто никогда не срабатывает.
func (op Operator) Valid() bool {
	switch op {
	case OpGreaterThan, OpLessThan, OpEqual, OpNotEqual, OpContains:
		return true
	}
	return false
}

// Field — единый словарь полей условий. В исходной системе продавец и
// агент держали два расходящихся словаря; здесь они слиты в один enum,
// а легальный набор полей задается на месте вызова (см. policy.SellerFields
// и policy.AgentFields).
type Field string

const (
	FieldTotalPrice Field = "total_price"
	FieldQuantity   Field = "quantity"
	FieldSKU        Field = "sku"
	FieldAccountID  Field = "account_id"
	FieldWallet     Field = "wallet_balance" // Баланс ПОСЛЕ заказа
	FieldTimeOfDay  Field = "time_of_day"    // ЧЧММ, например 1430
	FieldAgentTx    Field = "agent_transaction"
)

// Condition — одно правило {поле, оператор, значение}.
// Value приходит из JSON и может быть числом или строкой.
type Condition struct {
	Field    Field       `json:"field"`
	Operator Operator    `json:"operator"`
	Value    interface{} `json:"value"`
}

// Policy — именованное правило, принуждающее к авто-одобрению,
// авто-отказу или обязательному ручному ревью.
type Policy struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Type        PolicyType `json:"type"`
	Condition   Condition  `json:"condition"`
	Enabled     bool       `json:"enabled"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// PolicyEvaluation — результат проверки одной политики. Производная
// величина: вычисляется заново на каждый запрос, никогда не хранится.
type PolicyEvaluation struct {
	PolicyID   string `json:"policyId"`
	PolicyName string `json:"policyName"`
	Triggered  bool   `json:"triggered"`
	Reason     string `json:"reason,omitempty"`
}
