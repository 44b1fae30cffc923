package service_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contacts-server/internal/cache"
	"contacts-server/internal/config"
	"contacts-server/internal/handler"
	"contacts-server/internal/interfaces"
	"contacts-server/internal/migrations"
	"contacts-server/internal/models"
	"contacts-server/internal/repository"
	"contacts-server/internal/service"

	"github.com/docker/docker/client"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// recordingDispatcher stands in for the RabbitMQ publisher; the broker
// itself is exercised in deployment, not here.
type recordingDispatcher struct {
	sent []string
}

func (d *recordingDispatcher) DispatchVerification(_ context.Context, email, _, _ string) error {
	d.sent = append(d.sent, email)
	return nil
}

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, _ io.Reader, publicID string) (string, error) {
	return "https://images.example.com/" + publicID, nil
}

// IntegrationTestSuite runs the auth and contact flows against real
// PostgreSQL and Redis containers.
type IntegrationTestSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger

	userRepo    interfaces.UserRepository
	contactRepo interfaces.ContactRepository
	userCache   interfaces.UserCache
	tokens      service.TokenService
	dispatcher  *recordingDispatcher
	auth        service.AuthService
	contacts    service.ContactService
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err, "Failed to create logger for tests")

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	pgConnStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get postgres connection string")

	s.pgPool, err = pgxpool.New(s.ctx, pgConnStr)
	require.NoError(s.T(), err, "Failed to connect to test postgres")

	require.NoError(s.T(), migrations.Run(pgConnStr), "Failed to run migrations")

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")

	redisHost, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	redisPort, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)

	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port())})
	_, err = s.redisClient.Ping(s.ctx).Result()
	require.NoError(s.T(), err, "Failed to connect to test redis")

	s.userRepo = repository.NewPgUserRepository(s.pgPool, s.logger)
	s.contactRepo = repository.NewPgContactRepository(s.pgPool, s.logger)
	s.userCache = cache.NewRedisUserCache(s.redisClient, s.userRepo, 300*time.Second, s.logger)

	s.tokens, err = service.NewJWTTokenService("test-jwt-secret", "HS256", 15*time.Minute, 7*24*time.Hour, 24*time.Hour, s.logger)
	require.NoError(s.T(), err)

	s.dispatcher = &recordingDispatcher{}
	s.auth = service.NewAuthService(s.userRepo, s.userCache, s.tokens, s.dispatcher, stubUploader{}, s.logger)
	s.contacts = service.NewContactService(s.contactRepo, s.logger)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	if s.pgPool != nil {
		s.pgPool.Close()
	}
	if s.redisClient != nil {
		s.redisClient.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate postgres container", zap.Error(err))
		}
	}
	if s.rdContainer != nil {
		if err := s.rdContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate redis container", zap.Error(err))
		}
	}
}

// SetupTest wipes Redis and the tables so every test starts clean.
func (s *IntegrationTestSuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err(), "Failed to flush Redis DB")
	_, err := s.pgPool.Exec(s.ctx, "TRUNCATE TABLE users RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate users table")
	s.dispatcher.sent = nil
}

func TestIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Skipf("Docker client init error: %v. Ensure Docker is running and accessible.", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Docker daemon is not running or accessible: %v", err)
	}
	cli.Close()

	suite.Run(t, new(IntegrationTestSuite))
}

// signupAndConfirm creates a verified account and returns it.
func (s *IntegrationTestSuite) signupAndConfirm(email, password string) *models.User {
	t := s.T()
	ctx := context.Background()

	user, err := s.auth.Signup(ctx, "testuser", email, password, "http://localhost:8000")
	require.NoError(t, err)

	token, err := s.tokens.CreateEmailToken(email)
	require.NoError(t, err)
	already, err := s.auth.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	require.False(t, already)

	return user
}

func (s *IntegrationTestSuite) TestSignupConfirmLogin() {
	t := s.T()
	ctx := context.Background()

	user, err := s.auth.Signup(ctx, "testuser", "flow@example.com", "pass123", "http://localhost:8000")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)
	require.Equal(t, []string{"flow@example.com"}, s.dispatcher.sent)

	// Login before confirmation is rejected.
	_, err = s.auth.Login(ctx, "flow@example.com", "pass123")
	require.ErrorIs(t, err, models.ErrEmailNotVerified)

	token, err := s.tokens.CreateEmailToken("flow@example.com")
	require.NoError(t, err)
	already, err := s.auth.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	require.False(t, already)

	// Second confirmation is idempotent.
	already, err = s.auth.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	require.True(t, already)

	pair, err := s.auth.Login(ctx, "flow@example.com", "pass123")
	require.NoError(t, err)
	require.Equal(t, "bearer", pair.TokenType)

	email, err := s.tokens.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "flow@example.com", email)
}

func (s *IntegrationTestSuite) TestDuplicateSignup() {
	t := s.T()
	ctx := context.Background()

	_, err := s.auth.Signup(ctx, "testuser", "dup@example.com", "pass123", "http://localhost:8000")
	require.NoError(t, err)

	_, err = s.auth.Signup(ctx, "otheruser", "dup@example.com", "pass456", "http://localhost:8000")
	require.ErrorIs(t, err, models.ErrEmailAlreadyExists, "unique constraint must surface as the duplicate sentinel")
}

// Rotation-on-use with the real cache in the loop: the comparison against
// the stored refresh token must always see the latest rotation.
func (s *IntegrationTestSuite) TestRefreshRotationThroughCache() {
	t := s.T()
	ctx := context.Background()
	s.signupAndConfirm("rotate@example.com", "pass123")

	pair, err := s.auth.Login(ctx, "rotate@example.com", "pass123")
	require.NoError(t, err)

	first, err := s.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	second, err := s.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Replaying the rotated-out token revokes the session entirely.
	_, err = s.auth.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, models.ErrRefreshTokenMismatch)

	stored, err := s.userRepo.GetUserByEmail(ctx, "rotate@example.com")
	require.NoError(t, err)
	require.Nil(t, stored.RefreshToken)

	_, err = s.auth.Refresh(ctx, second.RefreshToken)
	require.ErrorIs(t, err, models.ErrRefreshTokenMismatch)
}

func (s *IntegrationTestSuite) TestCacheSnapshotCarriesCredentials() {
	t := s.T()
	ctx := context.Background()
	s.signupAndConfirm("cache@example.com", "pass123")

	pair, err := s.auth.Login(ctx, "cache@example.com", "pass123")
	require.NoError(t, err)

	// Read through the cache and compare with the row.
	cached, err := s.userCache.GetUser(ctx, "cache@example.com")
	require.NoError(t, err)
	stored, err := s.userRepo.GetUserByEmail(ctx, "cache@example.com")
	require.NoError(t, err)

	require.NotNil(t, cached.RefreshToken)
	require.Equal(t, pair.RefreshToken, *cached.RefreshToken)
	require.Equal(t, stored.Password, cached.Password)
}

func (s *IntegrationTestSuite) TestContactOwnership() {
	t := s.T()
	ctx := context.Background()
	alice := s.signupAndConfirm("alice@example.com", "pass123")
	bob := s.signupAndConfirm("bob@example.com", "pass123")

	created, err := s.contacts.Create(ctx, alice.ID, &models.Contact{
		Name:        "John",
		LastName:    "Smith",
		Email:       "john@example.com",
		PhoneNumber: "+123456789",
		Birthday:    time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	// Owner sees it, the other user gets the same 404 as for a missing id.
	_, err = s.contacts.Get(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	_, err = s.contacts.Get(ctx, bob.ID, created.ID)
	require.ErrorIs(t, err, models.ErrContactNotFound)
	_, err = s.contacts.Get(ctx, bob.ID, 99999)
	require.ErrorIs(t, err, models.ErrContactNotFound)

	_, err = s.contacts.Delete(ctx, bob.ID, created.ID)
	require.ErrorIs(t, err, models.ErrContactNotFound)

	removed, err := s.contacts.Delete(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	require.Equal(t, "John", removed.Name)
}

func (s *IntegrationTestSuite) TestContactSearchIsCaseInsensitive() {
	t := s.T()
	ctx := context.Background()
	alice := s.signupAndConfirm("search@example.com", "pass123")

	for _, name := range []string{"John", "Johanna", "Peter"} {
		_, err := s.contacts.Create(ctx, alice.ID, &models.Contact{
			Name:        name,
			LastName:    "Smith",
			Email:       fmt.Sprintf("%s@example.com", name),
			PhoneNumber: "+123456789",
			Birthday:    time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	matches, err := s.contacts.Search(ctx, alice.ID, "joh")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	matches, err = s.contacts.Search(ctx, alice.ID, "smith")
	require.NoError(t, err)
	require.Len(t, matches, 3, "last name matches too")
}

func (s *IntegrationTestSuite) TestListPaginationClamp() {
	t := s.T()
	ctx := context.Background()
	alice := s.signupAndConfirm("page@example.com", "pass123")

	for i := 0; i < 15; i++ {
		_, err := s.contacts.Create(ctx, alice.ID, &models.Contact{
			Name:        fmt.Sprintf("Contact%02d", i),
			LastName:    "Smith",
			Email:       fmt.Sprintf("c%02d@example.com", i),
			PhoneNumber: "+123456789",
			Birthday:    time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	// A limit below the floor is raised to it.
	page, err := s.contacts.List(ctx, alice.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, page, 10)

	page, err = s.contacts.List(ctx, alice.ID, 100, 10)
	require.NoError(t, err)
	require.Len(t, page, 5)
}

// birthdayWindowMatches mirrors the SQL month/day arithmetic so the test
// stays correct on any calendar day, including month boundaries.
func birthdayWindowMatches(birthday, today time.Time) bool {
	end := today.AddDate(0, 0, 7)
	return birthday.Month() == end.Month() &&
		birthday.Day() >= today.Day() &&
		birthday.Day() <= end.Day()
}

func (s *IntegrationTestSuite) TestUpcomingBirthdays() {
	t := s.T()
	ctx := context.Background()
	alice := s.signupAndConfirm("bday@example.com", "pass123")
	today := time.Now().UTC()

	soon := today.AddDate(-30, 0, 3)    // 30 years ago, 3 days from now
	farAway := today.AddDate(-30, 6, 0) // half a year off

	for _, b := range []time.Time{soon, farAway} {
		_, err := s.contacts.Create(ctx, alice.ID, &models.Contact{
			Name:        "Birthday",
			LastName:    "Person",
			Email:       "b@example.com",
			PhoneNumber: "+123456789",
			Birthday:    b,
		})
		require.NoError(t, err)
	}

	upcoming, err := s.contacts.UpcomingBirthdays(ctx, alice.ID)
	require.NoError(t, err)

	want := 0
	if birthdayWindowMatches(soon, today) {
		want++
	}
	if birthdayWindowMatches(farAway, today) {
		want++
	}
	require.Len(t, upcoming, want)
}

// The diagnostic endpoint runs the caller's query against the real pool:
// a valid statement answers with the configured welcome message, a broken
// one with the configured error message.
func (s *IntegrationTestSuite) TestHealthChecker() {
	t := s.T()

	cfg := &config.Config{
		HealthOKMessage:    "Welcome to FastAPI!",
		HealthErrorMessage: "Error connecting to the database",
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := handler.NewAPIHandler(s.auth, s.contacts, s.tokens, s.userRepo, s.pgPool, cfg)
	api.RegisterRoutes(router, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api_service/health_checker?request_string=SELECT+2", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"message":"Welcome to FastAPI!"}`, w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api_service/health_checker?request_string=SELECT+*+FROM+no_such_table", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"message":"Error connecting to the database"}`, w.Body.String())

	// The default query keeps the endpoint usable without parameters.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api_service/health_checker", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func (s *IntegrationTestSuite) TestTrackOpenIsIdempotent() {
	t := s.T()
	ctx := context.Background()
	s.signupAndConfirm("track@example.com", "pass123")

	s.auth.TrackOpen(ctx, "track@example.com")
	s.auth.TrackOpen(ctx, "track@example.com")
	s.auth.TrackOpen(ctx, "ghost@example.com") // never an error

	stored, err := s.userRepo.GetUserByEmail(ctx, "track@example.com")
	require.NoError(t, err)
	require.True(t, stored.OpenVerificationLetter)
}

func (s *IntegrationTestSuite) TestAvatarUpdatePersistsAndCaches() {
	t := s.T()
	ctx := context.Background()
	s.signupAndConfirm("avatar@example.com", "pass123")

	user, err := s.auth.UpdateAvatar(ctx, "avatar@example.com", nil)
	require.NoError(t, err)
	require.NotNil(t, user.Avatar)
	require.Equal(t, "https://images.example.com/contacts_api/avatar@example.com", *user.Avatar)

	cached, err := s.userCache.GetUser(ctx, "avatar@example.com")
	require.NoError(t, err)
	require.Equal(t, *user.Avatar, *cached.Avatar)
}
