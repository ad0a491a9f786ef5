package services

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"duobudget/internal/models"
	"duobudget/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("Seb@Example.com", "seb", "password123", "Seb", "")
		testutil.AssertNoError(t, err)

		if user.Email != "seb@example.com" {
			t.Errorf("expected lowercase email, got %s", user.Email)
		}
		if user.Role != models.RoleUser {
			t.Errorf("expected default role user, got %s", user.Role)
		}
		if !user.PasswordSet {
			t.Error("expected password set")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")); err != nil {
			t.Error("password hash should be valid bcrypt")
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("dup@example.com", "one", "password123", "", "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateUser("DUP@example.com", "two", "password123", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("duplicate_username", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("a@example.com", "same", "password123", "", "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateUser("b@example.com", "same", "password123", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_USERNAME")
	})

	t.Run("short_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("a@example.com", "a", "short", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestInviteUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	allowance := testutil.Money(t, "25")
	user, err := svc.InviteUser("kid@example.com", "kid", "Kid", models.RoleChild, &allowance)
	testutil.AssertNoError(t, err)

	if user.PasswordSet {
		t.Error("expected invited user without password")
	}
	if user.MonthlyBudget == nil || !user.MonthlyBudget.Equal(allowance) {
		t.Errorf("expected default budget 25, got %v", user.MonthlyBudget)
	}

	_, err = svc.AttemptLogin("kid", "anything-at-all")
	testutil.AssertAppError(t, err, "PASSWORD_NOT_SET")

	_, err = svc.SetPassword(user.ID, "password123")
	testutil.AssertNoError(t, err)

	logged, err := svc.AttemptLogin("kid@example.com", "password123")
	testutil.AssertNoError(t, err)
	if logged.LastLoginAt == nil {
		t.Error("expected LastLoginAt to be set after successful login")
	}
}

func TestAttemptLogin(t *testing.T) {
	t.Run("by_username", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		got, err := svc.AttemptLogin(user.Username, testutil.TestPassword)
		testutil.AssertNoError(t, err)
		if got.ID != user.ID {
			t.Errorf("expected user %d, got %d", user.ID, got.ID)
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.AttemptLogin(user.Email, "wrongpassword")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("inactive_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.AssertNoError(t, svc.DeactivateUser(user.ID))

		_, err := svc.AttemptLogin(user.Email, testutil.TestPassword)
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("nonexistent_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.AttemptLogin("nobody@example.com", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestListUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	testutil.CreateTestUser(t, db)
	testutil.CreateTestAdmin(t, db)
	testutil.CreateTestChild(t, db, nil)

	all, err := svc.ListUsers(nil)
	testutil.AssertNoError(t, err)
	if len(all) != 3 {
		t.Errorf("expected 3 users, got %d", len(all))
	}

	role := models.RoleChild
	children, err := svc.ListUsers(&role)
	testutil.AssertNoError(t, err)
	if len(children) != 1 || children[0].Role != models.RoleChild {
		t.Errorf("expected one child, got %+v", children)
	}
}

func TestUpdateUser(t *testing.T) {
	t.Run("sets_and_clears_monthly_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		child := testutil.CreateTestChild(t, db, nil)

		allowance := testutil.Money(t, "30")
		updated, err := svc.UpdateUser(child.ID, UserUpdate{MonthlyBudget: &allowance})
		testutil.AssertNoError(t, err)
		if updated.MonthlyBudget == nil || !updated.MonthlyBudget.Equal(allowance) {
			t.Errorf("expected 30, got %v", updated.MonthlyBudget)
		}

		updated, err = svc.UpdateUser(child.ID, UserUpdate{ClearMonthlyBudget: true})
		testutil.AssertNoError(t, err)
		if updated.MonthlyBudget != nil {
			t.Errorf("expected cleared budget, got %s", updated.MonthlyBudget)
		}
	})

	t.Run("email_taken", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		a := testutil.CreateTestUser(t, db)
		b := testutil.CreateTestUser(t, db)

		_, err := svc.UpdateUser(a.ID, UserUpdate{Email: &b.Email})
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		name := "x"
		_, err := svc.UpdateUser(9999, UserUpdate{FullName: &name})
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestStoreAndGetRefreshTokenHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user := testutil.CreateTestUser(t, db)

	hash := "abcdef1234567890abcdef1234567890abcdef1234567890abcdef1234567890"
	err := svc.StoreRefreshTokenHash(user.ID, hash)
	testutil.AssertNoError(t, err)

	got, err := svc.GetRefreshTokenHash(user.ID)
	testutil.AssertNoError(t, err)

	if got != hash {
		t.Errorf("expected hash %s, got %s", hash, got)
	}
}
