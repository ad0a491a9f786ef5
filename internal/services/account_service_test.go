package services

import (
	"testing"

	"duobudget/internal/models"
	"duobudget/internal/testutil"
)

func TestCreateAccount(t *testing.T) {
	t.Run("joint_by_default", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		account, err := svc.CreateAccount(AccountInput{Name: "Household", Balance: testutil.Money(t, "250")})
		testutil.AssertNoError(t, err)

		if !account.IsJoint() {
			t.Error("expected joint account")
		}
		if account.Type != models.AccountTypeChecking {
			t.Errorf("expected checking, got %s", account.Type)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		_, err := svc.CreateAccount(AccountInput{})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		_, err := svc.CreateAccount(AccountInput{Name: "x", Type: "credit_card"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListAccounts(t *testing.T) {
	t.Run("joint_and_own_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		me := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		testutil.CreateTestAccount(t, db, nil)
		testutil.CreateTestAccount(t, db, &me.ID)
		testutil.CreateTestAccount(t, db, &other.ID)

		accounts, err := svc.ListAccounts(me.ID)
		testutil.AssertNoError(t, err)

		if len(accounts) != 2 {
			t.Fatalf("expected 2 accounts, got %d", len(accounts))
		}
		if !accounts[0].IsJoint() {
			t.Error("expected joint account first")
		}
	})

	t.Run("excludes_inactive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		me := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, nil)
		testutil.AssertNoError(t, svc.DeleteAccount(me.ID, account.ID))

		accounts, err := svc.ListAccounts(me.ID)
		testutil.AssertNoError(t, err)
		if len(accounts) != 0 {
			t.Errorf("expected 0 accounts, got %d", len(accounts))
		}
	})
}

func TestGetAccount(t *testing.T) {
	t.Run("someone_elses_personal_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		me := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, &other.ID)

		_, err := svc.GetAccount(me.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestUpdateAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAccountService(db)
	me := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, &me.ID)

	name := "Savings pot"
	kind := models.AccountTypeSavings
	updated, err := svc.UpdateAccount(me.ID, account.ID, AccountUpdate{Name: &name, Type: &kind})
	testutil.AssertNoError(t, err)

	if updated.Name != name || updated.Type != kind {
		t.Errorf("unexpected account after update: %+v", updated)
	}
}

func TestAddFunds(t *testing.T) {
	t.Run("credits_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		me := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, nil)

		_, err := svc.AddFunds(me.ID, account.ID, testutil.Money(t, "100.50"))
		testutil.AssertNoError(t, err)
		updated, err := svc.AddFunds(me.ID, account.ID, testutil.Money(t, "20"))
		testutil.AssertNoError(t, err)

		if !updated.Balance.Equal(testutil.Money(t, "120.50")) {
			t.Errorf("expected 120.50, got %s", updated.Balance)
		}
	})

	t.Run("rejects_non_positive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		me := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, nil)

		_, err := svc.AddFunds(me.ID, account.ID, testutil.Money(t, "0"))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
