package service

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"paperledger/internal/dto"
	"paperledger/pkg/auth"

	"github.com/google/uuid"
)

var _ = Describe("AuthService", func() {
	var (
		users   *mockUserStore
		authSvc *AuthService
		ctx     context.Context
	)

	register := func(email string) *dto.AuthResponse {
		resp, err := authSvc.Register(ctx, &dto.RegisterRequest{
			Username: "sam",
			Email:    email,
			Password: "correct horse",
		})
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	BeforeEach(func() {
		users = newMockUserStore()
		jwtManager := auth.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
		authSvc = NewAuthService(users, jwtManager, testLogger())
		ctx = context.Background()
	})

	Describe("Register", func() {
		It("creates the user and returns a token pair", func() {
			resp := register("sam@example.com")
			Expect(resp.AccessToken).NotTo(BeEmpty())
			Expect(resp.RefreshToken).NotTo(BeEmpty())
			Expect(resp.TokenType).To(Equal("Bearer"))
			Expect(resp.User.Email).To(Equal("sam@example.com"))
		})

		It("lowercases the email before storing it", func() {
			resp := register("Sam@Example.COM")
			Expect(resp.User.Email).To(Equal("sam@example.com"))

			_, err := users.GetByEmail(ctx, "sam@example.com")
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses a duplicate email regardless of case", func() {
			register("sam@example.com")
			_, err := authSvc.Register(ctx, &dto.RegisterRequest{
				Username: "sam again",
				Email:    "SAM@example.com",
				Password: "correct horse",
			})
			Expect(err).To(MatchError(ErrUserExists))
		})

		It("refuses short passwords without creating a user", func() {
			_, err := authSvc.Register(ctx, &dto.RegisterRequest{
				Username: "sam",
				Email:    "sam@example.com",
				Password: "short",
			})
			Expect(err).To(MatchError(ErrWeakPassword))
			Expect(users.users).To(BeEmpty())
		})

		It("stores a hash, not the password", func() {
			register("sam@example.com")
			u, err := users.GetByEmail(ctx, "sam@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.PasswordHash).NotTo(Equal("correct horse"))
			Expect(auth.CheckPasswordHash("correct horse", u.PasswordHash)).To(BeTrue())
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			register("sam@example.com")
		})

		It("returns tokens for valid credentials", func() {
			resp, err := authSvc.Login(ctx, &dto.LoginRequest{
				Email:    "sam@example.com",
				Password: "correct horse",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.AccessToken).NotTo(BeEmpty())
		})

		It("matches the email case-insensitively", func() {
			_, err := authSvc.Login(ctx, &dto.LoginRequest{
				Email:    "SAM@EXAMPLE.COM",
				Password: "correct horse",
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("records the login time", func() {
			_, err := authSvc.Login(ctx, &dto.LoginRequest{
				Email:    "sam@example.com",
				Password: "correct horse",
			})
			Expect(err).NotTo(HaveOccurred())

			u, err := users.GetByEmail(ctx, "sam@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.LastLoginAt).NotTo(BeNil())
		})

		It("rejects a wrong password", func() {
			_, err := authSvc.Login(ctx, &dto.LoginRequest{
				Email:    "sam@example.com",
				Password: "wrong horse",
			})
			Expect(err).To(MatchError(ErrInvalidCredentials))
		})

		It("rejects an unknown email", func() {
			_, err := authSvc.Login(ctx, &dto.LoginRequest{
				Email:    "nobody@example.com",
				Password: "correct horse",
			})
			Expect(err).To(MatchError(ErrInvalidCredentials))
		})
	})

	Describe("RefreshToken", func() {
		It("issues a new pair from a valid refresh token", func() {
			registered := register("sam@example.com")

			resp, err := authSvc.RefreshToken(ctx, registered.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.AccessToken).NotTo(BeEmpty())
			Expect(resp.RefreshToken).NotTo(BeEmpty())
			Expect(resp.User.ID).To(Equal(registered.User.ID))
		})

		It("rejects garbage tokens", func() {
			_, err := authSvc.RefreshToken(ctx, "not a token")
			Expect(err).To(MatchError(ErrInvalidCredentials))
		})

		It("rejects tokens for a user that no longer exists", func() {
			registered := register("sam@example.com")
			users.mu.Lock()
			delete(users.users, uuid.MustParse(registered.User.ID))
			users.mu.Unlock()

			_, err := authSvc.RefreshToken(ctx, registered.RefreshToken)
			Expect(err).To(MatchError(ErrInvalidCredentials))
		})
	})
})
