package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
	"github.com/iyunix/go-dreamer/internal/repository/repotest"
)

func strPtr(s string) *string { return &s }

func TestUserRepository_ProviderIdentityIsUnique(t *testing.T) {
	db := repotest.NewDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, &domain.User{Email: "a@example.com", Nickname: "a", Provider: domain.ProviderGoogle, ProviderID: strPtr("g-1")})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.User{Email: "b@example.com", Nickname: "b", Provider: domain.ProviderGoogle, ProviderID: strPtr("g-1")})
	assert.ErrorIs(t, err, repository.ErrConflict)

	// email users carry no provider id and must not collide with each other
	_, err = repo.Create(ctx, &domain.User{Email: "c@example.com", Nickname: "c", Provider: domain.ProviderEmail})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.User{Email: "d@example.com", Nickname: "d", Provider: domain.ProviderEmail})
	require.NoError(t, err)

	found, err := repo.FindByProvider(ctx, domain.ProviderGoogle, "g-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", found.Email)
}

func TestUserRepository_FindByNicknameNotFound(t *testing.T) {
	db := repotest.NewDB(t)
	repo := NewGormUserRepository(db)

	_, err := repo.FindByNickname(context.Background(), "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UpdateFields(t *testing.T) {
	db := repotest.NewDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()
	u := repotest.CreateUser(t, db, "e@example.com", "e")

	require.NoError(t, repo.UpdateFields(ctx, u.ID, map[string]interface{}{"subscription_status": domain.SubscriptionPremium}))
	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionPremium, got.SubscriptionStatus)

	assert.ErrorIs(t, repo.UpdateFields(ctx, "missing", map[string]interface{}{"is_active": false}), repository.ErrNotFound)

	users, total, err := repo.FindAllWithPagination(ctx, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, users, 1)
}
