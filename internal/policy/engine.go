package policy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

// Verdict — агрегированный результат проверки набора политик.
//
// Правила агрегации:
//   - auto_reject всегда побеждает auto_approve, независимо от порядка
//     объявления политик;
//   - requiresReview выставляется, только если нет ни авто-отказа,
//     ни авто-одобрения.
type Verdict struct {
	AutoApprove    bool                      `json:"autoApprove"`
	AutoReject     bool                      `json:"autoReject"`
	RequiresReview bool                      `json:"requiresReview"`
	Evaluations    []domain.PolicyEvaluation `json:"evaluations"`
}

// Triggered возвращает имена сработавших политик в порядке их проверки.
func (v Verdict) Triggered() []string {
	var names []string
	for _, e := range v.Evaluations {
		if e.Triggered {
			names = append(names, e.PolicyName)
		}
	}
	return names
}

// PolicySource поставляет актуальный набор политик движку.
type PolicySource interface {
	List() []domain.Policy
}

// Engine проверяет кандидата-заказ против включенных политик.
// Продавец и агент держат по собственному экземпляру с разными
// словарями полей; сам движок один и тот же.
type Engine struct {
	source PolicySource
	fields FieldSet
	logger *zap.Logger
}

func NewEngine(source PolicySource, fields FieldSet, logger *zap.Logger) *Engine {
	return &Engine{
		source: source,
		fields: fields,
		logger: logger.Named("policy"),
	}
}

// Check прогоняет все включенные политики и выносит вердикт.
// Результат детерминирован и не зависит от порядка списка политик
// (кроме порядка trace-записей, который его повторяет).
func (e *Engine) Check(in Input) Verdict {
	var v Verdict

	for _, p := range e.source.List() {
		if !p.Enabled {
			continue
		}

		eval := domain.PolicyEvaluation{PolicyID: p.ID, PolicyName: p.Name}

		actual, ok := extractField(p.Condition.Field, e.fields, in)
		if ok && Evaluate(actual, p.Condition.Operator, p.Condition.Value) {
			eval.Triggered = true
			eval.Reason = fmt.Sprintf("%s (%v) %s %v",
				p.Condition.Field, actual, p.Condition.Operator, p.Condition.Value)

			switch p.Type {
			case domain.PolicyAutoReject:
				v.AutoReject = true
			case domain.PolicyAutoApprove:
				v.AutoApprove = true
			case domain.PolicyManualReview:
				v.RequiresReview = true
			}
		}

		v.Evaluations = append(v.Evaluations, eval)
	}

	// Авто-отказ доминирует над авто-одобрением
	if v.AutoReject {
		v.AutoApprove = false
	}
	// Авто-действия снимают необходимость ручного ревью
	if v.AutoApprove || v.AutoReject {
		v.RequiresReview = false
	}

	if triggered := v.Triggered(); len(triggered) > 0 {
		e.logger.Info("policy check triggered",
			zap.Strings("policies", triggered),
			zap.Bool("auto_approve", v.AutoApprove),
			zap.Bool("auto_reject", v.AutoReject),
			zap.Bool("requires_review", v.RequiresReview),
		)
	}

	return v
}
