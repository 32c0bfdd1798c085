package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clientflow/clientflow/internal/clients"
	"github.com/clientflow/clientflow/internal/session"
)

func TestBuilder_WithClient(t *testing.T) {
	env := NewBuilder(t).
		WithClient("9", Name("Zoe"), City("Recife")).
		Build()

	list, err := env.Store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, clients.ID("9"), list[0].ID)
	require.Equal(t, "Zoe", list[0].Name)
	require.Equal(t, "Recife", list[0].City)
	require.Equal(t, "client9@example.com", list[0].Email)
}

func TestBuilder_WithPaulista(t *testing.T) {
	env := NewBuilder(t).WithPaulista().Build()

	addr, err := env.Resolver.Resolve(context.Background(), "01310930")
	require.NoError(t, err)
	require.Equal(t, "Avenida Paulista", addr.Street)
	require.Equal(t, "São Paulo", addr.City)
	require.Equal(t, "SP", addr.State)

	_, err = env.Resolver.Resolve(context.Background(), "99999999")
	require.ErrorIs(t, err, clients.ErrNotFound)
}

func TestBuilder_StandardClients(t *testing.T) {
	env := NewBuilder(t).WithStandardClients().Build()

	ana, ok := env.Client("1")
	require.True(t, ok)
	require.Equal(t, "Ana", ana.Name)
	require.NoError(t, ana.Input().Validate())

	_, ok = env.Client("3")
	require.False(t, ok)
}

func TestBuilder_Sessions(t *testing.T) {
	env := NewBuilder(t).Build()
	ctx := context.Background()

	_, err := env.Sessions.Login(ctx, session.AdminEmail, "wrong")
	require.ErrorIs(t, err, session.ErrInvalidCredentials)

	s, err := env.Sessions.Login(ctx, session.AdminEmail, session.AdminPassword)
	require.NoError(t, err)

	restored, err := env.Sessions.Restore(ctx)
	require.NoError(t, err)
	require.Equal(t, s.Token, restored.Token)
	require.Equal(t, session.AdminEmail, restored.User.Email)
}

func TestInput_IsValid(t *testing.T) {
	in := Input(Name("Ana"), Zip("01310930"))
	require.NoError(t, in.Validate())
	require.Equal(t, "Ana", in.Name)
	require.Equal(t, clients.DefaultCountry, in.Country)
}
