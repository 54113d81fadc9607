package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bigboss/internal/storage"
)

func newRepository(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newMemberService(repo *storage.Repository) *MemberService {
	s := NewMemberService(repo)
	s.cost = bcrypt.MinCost
	s.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	return s
}

func sequence(ids ...int64) func() (int64, error) {
	var mu sync.Mutex
	i := 0
	return func() (int64, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(ids) {
			return 0, errors.New("sequence exhausted")
		}
		id := ids[i]
		i++
		return id, nil
	}
}

var ctx = context.Background()
