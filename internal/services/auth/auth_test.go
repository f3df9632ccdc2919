package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/generation-service/internal/lib/jwt"
	"github.com/magabrotheeeer/generation-service/internal/lib/password"
	"github.com/magabrotheeeer/generation-service/internal/models"
	services "github.com/magabrotheeeer/generation-service/internal/services/auth"
	"github.com/magabrotheeeer/generation-service/internal/storage"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userID, email string) (string, error) {
	args := m.Called(userID, email)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

func notFound() error {
	return fmt.Errorf("storage.GetUserByEmail: %w", storage.ErrUserNotFound)
}

func TestAuthService_Register(t *testing.T) {
	name := "Alice"

	tests := []struct {
		name       string
		email      string
		password   string
		userName   *string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantErr    error
		errMsg     string
	}{
		{
			name:     "successful registration",
			email:    "  Alice@Example.com ",
			password: "pw123456",
			userName: &name,
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, notFound()).Once()
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Email == "alice@example.com" &&
						user.ID != "" &&
						user.PasswordHash != "" &&
						user.PasswordHash != "pw123456" &&
						password.CompareHash(user.PasswordHash, "pw123456") == nil &&
						user.Name != nil && *user.Name == "Alice"
				})).Return(&models.User{
					ID: "user-1", Email: "alice@example.com", PasswordHash: "hash", Name: &name,
				}, nil).Once()
				j.On("GenerateToken", "user-1", "alice@example.com").Return("jwt-token-123", nil).Once()
			},
		},
		{
			name:     "email already registered",
			email:    "alice@example.com",
			password: "pw123456",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "alice@example.com").
					Return(&models.User{ID: "existing"}, nil).Once()
			},
			wantErr: services.ErrDuplicateEmail,
		},
		{
			name:     "unique violation on insert",
			email:    "alice@example.com",
			password: "pw123456",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, notFound()).Once()
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("storage.CreateUser: %w", storage.ErrUserExists)).Once()
			},
			wantErr: services.ErrDuplicateEmail,
		},
		{
			name:     "repository error",
			email:    "alice@example.com",
			password: "pw123456",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, errors.New("db error")).Once()
			},
			errMsg: "db error",
		},
		{
			name:     "token generation error",
			email:    "alice@example.com",
			password: "pw123456",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, notFound()).Once()
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return(&models.User{ID: "user-1", Email: "alice@example.com"}, nil).Once()
				j.On("GenerateToken", "user-1", "alice@example.com").Return("", errors.New("token error")).Once()
			},
			errMsg: "token error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := services.NewAuthService(repo, jwtMock)

			tt.setupMocks(repo, jwtMock)

			got, err := svc.Register(context.Background(), tt.email, tt.password, tt.userName)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, got)
			default:
				require.NoError(t, err)
				assert.Equal(t, "jwt-token-123", got.Token)
				assert.Equal(t, models.PublicUser{ID: "user-1", Email: "alice@example.com", Name: &name}, got.User)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	rawPassword := "correctpassword"

	hashedPassword, err := password.GetHash(rawPassword)
	require.NoError(t, err)

	testUser := &models.User{
		ID:           "user-1",
		Email:        "test@example.com",
		PasswordHash: hashedPassword,
	}

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    error
		errMsg     string
	}{
		{
			name:     "successful login",
			email:    "Test@Example.com",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
				j.On("GenerateToken", "user-1", "test@example.com").Return("jwt-token-123", nil).Once()
			},
			wantToken: "jwt-token-123",
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, notFound()).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "wrongpassword",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "repository error",
			email:    "test@example.com",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(nil, errors.New("connection refused")).Once()
			},
			errMsg: "connection refused",
		},
		{
			name:     "token generation error",
			email:    "test@example.com",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
				j.On("GenerateToken", "user-1", "test@example.com").Return("", errors.New("token error")).Once()
			},
			errMsg: "token error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := services.NewAuthService(repo, jwtMock)

			tt.setupMocks(repo, jwtMock)

			got, err := svc.Login(context.Background(), tt.email, tt.password)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, got.Token)
				assert.Equal(t, testUser.Public(), got.User)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	hashed, err := password.GetHash("secret-1")
	require.NoError(t, err)

	repo := new(UserRepoMock)
	repo.On("GetUserByEmail", mock.Anything, "known@example.com").
		Return(&models.User{ID: "u", Email: "known@example.com", PasswordHash: hashed}, nil)
	repo.On("GetUserByEmail", mock.Anything, "unknown@example.com").Return(nil, notFound())
	svc := services.NewAuthService(repo, new(JwtMakerMock))

	_, wrongPassword := svc.Login(context.Background(), "known@example.com", "nope")
	_, unknownEmail := svc.Login(context.Background(), "unknown@example.com", "nope")

	require.ErrorIs(t, wrongPassword, services.ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, services.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		setupMocks func(r *UserRepoMock)
		want       *models.PublicUser
		wantErr    error
		errMsg     string
	}{
		{
			name:   "existing user",
			userID: "user-1",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "user-1").
					Return(&models.User{ID: "user-1", Email: "a@example.com", PasswordHash: "secret"}, nil).Once()
			},
			want: &models.PublicUser{ID: "user-1", Email: "a@example.com"},
		},
		{
			name:   "user removed after token was issued",
			userID: "ghost",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "ghost").
					Return(nil, fmt.Errorf("storage.GetUser: %w", storage.ErrUserNotFound)).Once()
			},
			wantErr: services.ErrUserNotFound,
		},
		{
			name:   "repository error",
			userID: "user-1",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, "user-1").Return(nil, errors.New("db down")).Once()
			},
			errMsg: "db down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc := services.NewAuthService(repo, new(JwtMakerMock))
			tt.setupMocks(repo)

			got, err := svc.GetCurrentUser(context.Background(), tt.userID)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		setupMocks func(j *JwtMakerMock)
		want       *models.PublicUser
		wantErr    bool
	}{
		{
			name:  "valid token",
			token: "valid-token",
			setupMocks: func(j *JwtMakerMock) {
				j.On("ParseToken", "valid-token").
					Return(&customjwt.CustomClaims{UserID: "user-1", Email: "a@example.com"}, nil).Once()
			},
			want: &models.PublicUser{ID: "user-1", Email: "a@example.com"},
		},
		{
			name:  "invalid token",
			token: "invalid-token",
			setupMocks: func(j *JwtMakerMock) {
				j.On("ParseToken", "invalid-token").Return(nil, customjwt.ErrInvalidToken).Once()
			},
			wantErr: true,
		},
		{
			name:  "unexpected parser error is still invalid token",
			token: "weird-token",
			setupMocks: func(j *JwtMakerMock) {
				j.On("ParseToken", "weird-token").Return(nil, errors.New("boom")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jwtMock := new(JwtMakerMock)
			svc := services.NewAuthService(new(UserRepoMock), jwtMock)
			tt.setupMocks(jwtMock)

			got, err := svc.ValidateToken(context.Background(), tt.token)
			if tt.wantErr {
				require.ErrorIs(t, err, customjwt.ErrInvalidToken)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			jwtMock.AssertExpectations(t)
		})
	}
}

// memUsers in-memory хранилище пользователей для сквозной проверки сервиса.
type memUsers struct {
	byEmail map[string]models.User
}

func (m *memUsers) CreateUser(_ context.Context, user models.User) (*models.User, error) {
	if _, ok := m.byEmail[user.Email]; ok {
		return nil, storage.ErrUserExists
	}
	m.byEmail[user.Email] = user
	return &user, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) GetUser(_ context.Context, userID string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == userID {
			return &u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func TestAuthService_RegisterThenLoginWithRealTokens(t *testing.T) {
	maker := customjwt.NewJWTMaker("test-secret", 0)
	svc := services.NewAuthService(&memUsers{byEmail: map[string]models.User{}}, maker)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "alice@example.com", "pw123456", nil)
	require.NoError(t, err)

	identity, err := svc.ValidateToken(ctx, reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, identity.ID)
	assert.Equal(t, "alice@example.com", identity.Email)

	_, err = svc.Register(ctx, "ALICE@example.com", "other", nil)
	require.ErrorIs(t, err, services.ErrDuplicateEmail)

	login, err := svc.Login(ctx, "alice@example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, reg.User, login.User)

	me, err := svc.GetCurrentUser(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.User, *me)
}
