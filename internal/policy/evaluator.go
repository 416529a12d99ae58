package policy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

// Evaluate проверяет одно условие {actual, operator, expected}.
//
// Коэрция типов асимметрична, и это контракт, а не случайность:
//   - ">" и "<" приводят обе стороны к числу;
//   - "=" и "!=" сравнивают строковые представления, даже если поле
//     числовое (поэтому 100 и "100" равны, а 100 и "100.0" — нет);
//   - "contains" — проверка подстроки, осмысленна для строковых полей.
//
// Неизвестный оператор никогда не паникует и не ошибается — условие
// просто не срабатывает.
func Evaluate(actual interface{}, op domain.Operator, expected interface{}) bool {
	switch op {
	case domain.OpGreaterThan:
		a, okA := toFloat(actual)
		e, okE := toFloat(expected)
		return okA && okE && a > e
	case domain.OpLessThan:
		a, okA := toFloat(actual)
		e, okE := toFloat(expected)
		return okA && okE && a < e
	case domain.OpEqual:
		return toString(actual) == toString(expected)
	case domain.OpNotEqual:
		return toString(actual) != toString(expected)
	case domain.OpContains:
		return strings.Contains(toString(actual), toString(expected))
	default:
		return false
	}
}

// toFloat приводит значение к float64. Значения условий приходят из JSON
// (float64 или string), значения полей — из домена (decimal, int, bool).
func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case decimal.Decimal:
		f, _ := x.Float64()
		return f, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// toString — строковая нормализация для "=" / "!=" / "contains".
// Числа из JSON печатаем без хвостовых нулей, чтобы 100.0 и 100 совпадали
// так же, как совпадают их десятичные представления.
func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}
