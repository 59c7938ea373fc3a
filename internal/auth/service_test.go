package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/jobly/internal"
	"github.com/frahmantamala/jobly/internal/core/user"
	"github.com/frahmantamala/jobly/internal/transport"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// Mock repository for testing
type mockUserRepository struct {
	creds         map[string]*Credentials
	usersByID     map[int64]*user.User
	errorToReturn error
}

func newMockUserRepository() *mockUserRepository {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)

	return &mockUserRepository{
		creds: map[string]*Credentials{
			"recruiter@example.com": {UserID: 1, Email: "recruiter@example.com", Role: user.RoleRecruiter, PasswordHash: string(hashedPassword), IsActive: true},
			"seeker@example.com":    {UserID: 2, Email: "seeker@example.com", Role: user.RoleSeeker, PasswordHash: string(hashedPassword), IsActive: true},
			"gone@example.com":      {UserID: 3, Email: "gone@example.com", Role: user.RoleSeeker, PasswordHash: string(hashedPassword), IsActive: false},
		},
		usersByID: map[int64]*user.User{
			1: {ID: 1, Email: "recruiter@example.com", Role: user.RoleRecruiter, IsActive: true},
			2: {ID: 2, Email: "seeker@example.com", Role: user.RoleSeeker, IsActive: true},
			3: {ID: 3, Email: "gone@example.com", Role: user.RoleSeeker, IsActive: false},
		},
	}
}

func (m *mockUserRepository) GetCredentials(ctx context.Context, email string) (*Credentials, error) {
	if m.errorToReturn != nil {
		return nil, m.errorToReturn
	}
	if c, ok := m.creds[email]; ok {
		return c, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) GetUserByID(ctx context.Context, userID int64) (*user.User, error) {
	if m.errorToReturn != nil {
		return nil, m.errorToReturn
	}
	if u, ok := m.usersByID[userID]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

var _ = ginkgo.Describe("Auth Service", func() {
	var (
		repo     *mockUserRepository
		tokenGen *JWTTokenGenerator
		service  *Service
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = newMockUserRepository()
		tokenGen = NewJWTTokenGenerator("access-secret-access-secret-0001", "refresh-secret-refresh-secret-01", 15*time.Minute, 24*time.Hour)
		service = NewService(repo, tokenGen)
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.It("issues a token pair carrying the user's role", func() {
			tokens, err := service.Authenticate(ctx, LoginDTO{Email: "Recruiter@Example.com ", Password: "correct_password"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(tokens.TokenType).To(gomega.Equal("Bearer"))
			gomega.Expect(tokens.ExpiresIn).To(gomega.Equal(int64(900)))

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal("1"))
			gomega.Expect(claims.Role).To(gomega.Equal("recruiter"))
		})

		ginkgo.It("rejects a wrong password", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Email: "recruiter@example.com", Password: "nope"})
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidCredentials))
		})

		ginkgo.It("does not reveal unknown accounts", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Email: "ghost@example.com", Password: "correct_password"})
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidCredentials))
		})

		ginkgo.It("refuses inactive accounts", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Email: "gone@example.com", Password: "correct_password"})
			gomega.Expect(err).To(gomega.MatchError(ErrUserInactive))
		})

		ginkgo.It("returns a validation error for empty input", func() {
			_, err := service.Authenticate(ctx, LoginDTO{})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("wraps repository failures", func() {
			repo.errorToReturn = errors.New("db down")
			_, err := service.Authenticate(ctx, LoginDTO{Email: "recruiter@example.com", Password: "correct_password"})
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(err).ToNot(gomega.MatchError(ErrInvalidCredentials))
		})
	})

	ginkgo.Describe("token types", func() {
		ginkgo.It("does not accept a refresh token as an access token", func() {
			tokens, err := service.Authenticate(ctx, LoginDTO{Email: "recruiter@example.com", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(tokens.RefreshToken)
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidToken))
		})

		ginkgo.It("refreshes using the current role from the repository", func() {
			tokens, err := service.Authenticate(ctx, LoginDTO{Email: "seeker@example.com", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			repo.usersByID[2].Role = user.RoleRecruiter
			refreshed, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			claims, err := service.ValidateAccessToken(refreshed.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.Role).To(gomega.Equal("recruiter"))
		})

		ginkgo.It("reports expired tokens", func() {
			tokenGen.now = func() time.Time { return time.Now().Add(-time.Hour) }
			token, err := tokenGen.GenerateAccessToken("1", "recruiter@example.com", "recruiter")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			tokenGen.now = time.Now
			_, err = tokenGen.ValidateAccessToken(token)
			gomega.Expect(err).To(gomega.MatchError(ErrTokenExpired))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var handler *Handler

		ginkgo.BeforeEach(func() {
			handler = NewHandler(transport.NewBaseHandler(nil), service)
		})

		ginkgo.It("puts the user into the request context", func() {
			tokens, err := service.Authenticate(ctx, LoginDTO{Email: "recruiter@example.com", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			var seen *user.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = UserFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
			rec := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(seen).ToNot(gomega.BeNil())
			gomega.Expect(seen.ID).To(gomega.Equal(int64(1)))
		})

		ginkgo.It("rejects requests without a bearer token", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			rec := httptest.NewRecorder()
			handler.AuthMiddleware(http.NotFoundHandler()).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("returns 401 from Login on bad credentials", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"recruiter@example.com","password":"x"}`))
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("INVALID_CREDENTIALS"))
		})
	})
})
