package services

import (
	"context"
	"errors"
	"testing"
)

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()

	newService := func() AdminService {
		return NewAdminService(newFakeAdminRepo(), newFakeCourtRepo(), "letmein")
	}

	signUp := func(t *testing.T, svc AdminService) {
		t.Helper()
		input := AdminSignUpInput{Name: "Owner", Email: "owner@example.com", Password: "secret1", Phone: "555-0101", SignupKey: "letmein"}
		if _, err := svc.SignUp(ctx, input); err != nil {
			t.Fatalf("SignUp() error = %v", err)
		}
	}

	t.Run("wrong signup key rejected", func(t *testing.T) {
		svc := newService()
		input := AdminSignUpInput{Name: "Owner", Email: "owner@example.com", Password: "secret1", Phone: "555-0101", SignupKey: "nope"}
		if _, err := svc.SignUp(ctx, input); !errors.Is(err, ErrAdminSignupKeyWrong) {
			t.Errorf("SignUp() error = %v, want ErrAdminSignupKeyWrong", err)
		}
	})

	t.Run("login succeeds and strips password hash", func(t *testing.T) {
		svc := newService()
		signUp(t, svc)

		admin, err := svc.Login(ctx, LoginInput{Email: "owner@example.com", Password: "secret1"})
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if admin.PasswordHash != "" {
			t.Error("password hash leaked from Login()")
		}
	})

	t.Run("unknown email reported separately from wrong password", func(t *testing.T) {
		svc := newService()
		signUp(t, svc)

		_, unknownErr := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"})
		if !errors.Is(unknownErr, ErrEmailNotRegistered) {
			t.Errorf("Login() error = %v, want ErrEmailNotRegistered", unknownErr)
		}

		_, mismatchErr := svc.Login(ctx, LoginInput{Email: "owner@example.com", Password: "wrong"})
		if !errors.Is(mismatchErr, ErrPasswordMismatch) {
			t.Errorf("Login() error = %v, want ErrPasswordMismatch", mismatchErr)
		}

		if unknownErr.Error() == mismatchErr.Error() {
			t.Errorf("unknown email and wrong password produce the same message %q", unknownErr.Error())
		}
	})
}
