// Package fuzz содержит намеренно рандомизированные точки решения,
// имитирующие реальные частоты сбоев и неопределенности независимо от
// логики политик. Источник случайности инжектируется, чтобы тесты могли
// детерминированно форсировать обе ветки.
package fuzz

import "math/rand"

// Source выдает равномерное значение из [0, 1).
type Source func() float64

// Gate — вероятностный гейт: Hit возвращает true с заданной вероятностью.
type Gate struct {
	probability float64
	source      Source
}

// NewGate строит гейт. При nil source используется math/rand.
// probability вне [0,1] обрезается до границ.
func NewGate(probability float64, source Source) *Gate {
	if source == nil {
		source = rand.Float64
	}
	if probability < 0 {
		probability = 0
	}
	if probability > 1 {
		probability = 1
	}
	return &Gate{probability: probability, source: source}
}

// Disabled — гейт, который никогда не срабатывает.
func Disabled() *Gate {
	return &Gate{probability: 0, source: func() float64 { return 1 }}
}

func (g *Gate) Hit() bool {
	if g.probability == 0 {
		return false
	}
	return g.source() < g.probability
}

// Probability — настроенная вероятность (для логов и /stats).
func (g *Gate) Probability() float64 {
	return g.probability
}
