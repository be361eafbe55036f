package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"myfunds/internal/domain"
	"myfunds/internal/repository/memstore"
)

func newUserService() (*UserService, *memstore.Store) {
	store := memstore.New()
	svc := NewUserService(store, testNow)
	svc.cost = bcrypt.MinCost
	return svc, store
}

func TestRegister(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: " alice ", Password: "secret1", Email: "a@x.io"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, domain.UserActive, user.Status)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Password: "12345"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegister_Conflicts(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret1", Email: "a@x.io", Phone: "13800000000"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"username", RegisterInput{Username: "alice", Password: "secret1"}},
		{"email", RegisterInput{Username: "bob", Password: "secret1", Email: "a@x.io"}},
		{"phone", RegisterInput{Username: "carol", Password: "secret1", Phone: "13800000000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			assert.ErrorIs(t, err, domain.ErrConflict)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, store := newUserService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Login(ctx, "alice", "wrong-pass")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	registered.Status = domain.UserInactive
	require.NoError(t, store.Repos(ctx).Users.Update(ctx, registered))
	_, err = svc.Login(ctx, "alice", "secret1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGetUser(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	_, err := svc.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	registered, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	user, err := svc.GetUser(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestUpdateUser(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	alice, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret1", Email: "a@x.io"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Password: "secret1", Email: "b@x.io"})
	require.NoError(t, err)

	nick := "Ali"
	updated, err := svc.UpdateUser(ctx, alice.ID, UpdateUserInput{Nickname: &nick})
	require.NoError(t, err)
	assert.Equal(t, "Ali", updated.Nickname)
	assert.Equal(t, "a@x.io", updated.Email)

	// unchanged email is not a conflict with itself
	same := "a@x.io"
	_, err = svc.UpdateUser(ctx, alice.ID, UpdateUserInput{Email: &same})
	assert.NoError(t, err)

	taken := "b@x.io"
	_, err = svc.UpdateUser(ctx, alice.ID, UpdateUserInput{Email: &taken})
	assert.ErrorIs(t, err, domain.ErrConflict)

	bob := "bob"
	_, err = svc.UpdateUser(ctx, alice.ID, UpdateUserInput{Username: &bob})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "a@x.io", got.Email)
}
