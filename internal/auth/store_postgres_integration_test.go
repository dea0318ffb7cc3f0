//go:build integration

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clinica/internal/auth"
	"clinica/pkg/platform/sentinel"
	"clinica/pkg/testutil/containers"
)

type PostgresUserStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	users    *auth.PostgresUserStore
}

func TestPostgresUserStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.users = auth.NewPostgresUserStore(s.postgres.DB)
}

func (s *PostgresUserStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func (s *PostgresUserStoreSuite) newUser(username string) *auth.User {
	return &auth.User{
		Username:       username,
		Email:          username + "@clinic.example",
		HashedPassword: "$2a$10$not-a-real-hash",
		IsActive:       true,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresUserStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	user := s.newUser("ana.souza")
	s.Require().NoError(s.users.Create(ctx, user))
	s.Require().NotZero(user.ID)

	got, err := s.users.GetByID(ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.Username, got.Username)
	s.Equal(user.Email, got.Email)
	s.True(got.IsActive)
	s.Nil(got.DeletedAt)
}

func (s *PostgresUserStoreSuite) TestUsernameLookupIsCaseInsensitive() {
	ctx := context.Background()

	user := s.newUser("ana.souza")
	s.Require().NoError(s.users.Create(ctx, user))

	got, err := s.users.GetByUsername(ctx, "ANA.SOUZA")
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)
}

func (s *PostgresUserStoreSuite) TestDuplicateUsernameConflicts() {
	ctx := context.Background()

	s.Require().NoError(s.users.Create(ctx, s.newUser("ana.souza")))

	err := s.users.Create(ctx, s.newUser("ana.souza"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresUserStoreSuite) TestUnknownUserNotFound() {
	ctx := context.Background()

	_, err := s.users.GetByID(ctx, 404)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.users.GetByUsername(ctx, "nobody")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
