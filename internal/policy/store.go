package policy

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

// Store — in-memory репозиторий политик сервиса. Продавец и агент держат
// независимые наборы. Чтения конкурентны, мутации сериализованы RWMutex —
// набор маленький, и в горячем пути (Check) он только читается.
type Store struct {
	mu       sync.RWMutex
	policies map[string]domain.Policy
}

func NewStore() *Store {
	return &Store{policies: make(map[string]domain.Policy)}
}

// List возвращает политики в стабильном порядке (по времени создания,
// затем по id), чтобы trace проверки был воспроизводим.
func (s *Store) List() []domain.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Policy, 0, len(s.policies))
	for _, p := range s.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) Get(id string) (domain.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.policies[id]
	if !ok {
		return domain.Policy{}, domain.ErrPolicyNotFound
	}
	return p, nil
}

// Create присваивает id и время создания, если они не заданы.
func (s *Store) Create(p domain.Policy) (domain.Policy, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ID] = p
	return p, nil
}

// Update заменяет политику целиком, сохраняя оригинальное время создания.
func (s *Store) Update(p domain.Policy) (domain.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.policies[p.ID]
	if !ok {
		return domain.Policy{}, domain.ErrPolicyNotFound
	}
	p.CreatedAt = old.CreatedAt
	s.policies[p.ID] = p
	return p, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[id]; !ok {
		return domain.ErrPolicyNotFound
	}
	delete(s.policies, id)
	return nil
}
