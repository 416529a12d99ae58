package reviewer

import (
	"testing"
	"time"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/domain"
)

func TestFlagStore(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("upsert replaces by id", func(t *testing.T) {
		s := NewFlagStore()

		fresh := s.Upsert(domain.Order{ID: "ord-1", Status: domain.StatusPendingConfirmation}, now)
		if !fresh {
			t.Fatalf("first flag must report fresh")
		}

		// Повторная пометка замещает запись целиком
		fresh = s.Upsert(domain.Order{ID: "ord-1", Status: domain.StatusError}, now.Add(time.Minute))
		if fresh {
			t.Fatalf("re-flag must not report fresh")
		}

		if s.Len() != 1 {
			t.Fatalf("re-flag must not duplicate, got %d entries", s.Len())
		}
		f, ok := s.Get("ord-1")
		if !ok || f.Status != domain.StatusError {
			t.Fatalf("expected replaced entry with error status, got %+v", f)
		}
		if !f.FlaggedAt.Equal(now.Add(time.Minute)) {
			t.Fatalf("expected refreshed flag time, got %s", f.FlaggedAt)
		}
	})

	t.Run("delete missing is a no-op", func(t *testing.T) {
		s := NewFlagStore()
		s.Delete("never-flagged") // не должен паниковать
		if s.Len() != 0 {
			t.Fatalf("expected empty store")
		}
	})

	t.Run("list sorted by flag time", func(t *testing.T) {
		s := NewFlagStore()
		s.Upsert(domain.Order{ID: "b"}, now.Add(time.Hour))
		s.Upsert(domain.Order{ID: "a"}, now)

		list := s.List()
		if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
			t.Fatalf("expected chronological order, got %v", list)
		}
	})
}
