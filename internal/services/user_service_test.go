package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"tradedesk/internal/logger"
	"tradedesk/internal/models"
	"tradedesk/internal/testutil"
)

func init() {
	logger.Init("test")
}

var testStartingCash = decimal.NewFromInt(100000)

func TestCreateUser(t *testing.T) {
	t.Run("valid_with_default_portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, testStartingCash)

		user, err := svc.CreateUser("alice", "Alice@Example.com", "password123")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected user ID to be assigned")
		}
		if user.Email != "alice@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
		if !user.IsActive {
			t.Error("expected user to be active")
		}

		var portfolios []models.Portfolio
		db.Where("user_id = ?", user.ID).Find(&portfolios)
		if len(portfolios) != 1 {
			t.Fatalf("expected 1 portfolio, got %d", len(portfolios))
		}
		if portfolios[0].Name != models.DefaultPortfolioName {
			t.Errorf("expected default portfolio name, got %q", portfolios[0].Name)
		}
		testutil.AssertDecimal(t, "cash_balance", portfolios[0].CashBalance, "100000")
	})

	t.Run("duplicate_username", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, testStartingCash)

		_, err := svc.CreateUser("bob", "bob@example.com", "password123")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("bob", "other@example.com", "password456")
		testutil.AssertAppError(t, err, "DUPLICATE_USER")
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, testStartingCash)

		_, err := svc.CreateUser("carol", "carol@example.com", "password123")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("carol2", "CAROL@example.com", "password456")
		testutil.AssertAppError(t, err, "DUPLICATE_USER")
	})

	t.Run("missing_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, testStartingCash)

		_, err := svc.CreateUser("", "x@example.com", "password123")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateUser("dave", "dave@example.com", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, testStartingCash)

		created := testutil.CreateTestUser(t, db)
		user, err := svc.GetUserByID(created.ID)
		testutil.AssertNoError(t, err)

		if user.Username != created.Username {
			t.Errorf("expected username %s, got %s", created.Username, user.Username)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, testStartingCash)

		_, err := svc.GetUserByID("00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestAttemptLogin(t *testing.T) {
	t.Run("success_stamps_last_login", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, testStartingCash)

		created := testutil.CreateTestUser(t, db)
		user, err := svc.AttemptLogin(created.Username, testutil.TestPassword)
		testutil.AssertNoError(t, err)

		if user.ID != created.ID {
			t.Errorf("expected user %s, got %s", created.ID, user.ID)
		}
		if user.LastLoginAt == nil {
			t.Error("expected last_login_at to be set")
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, testStartingCash)

		created := testutil.CreateTestUser(t, db)
		_, err := svc.AttemptLogin(created.Username, "wrong-password")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, testStartingCash)

		_, err := svc.AttemptLogin("ghost", testutil.TestPassword)
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("inactive_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, testStartingCash)

		created := testutil.CreateTestUser(t, db)
		db.Model(created).Update("is_active", false)

		_, err := svc.AttemptLogin(created.Username, testutil.TestPassword)
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestAuditLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	user := testutil.CreateTestUser(t, db)
	svc.Log(user.ID, models.AuditLogin, models.ResourceUser, user.ID, "127.0.0.1", map[string]interface{}{"ok": true})

	var entries []models.AuditLog
	db.Where("user_id = ?", user.ID).Find(&entries)
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].Changes != `{"ok":true}` {
		t.Errorf("unexpected changes payload %q", entries[0].Changes)
	}

	svc.Log("", models.AuditUpsertStocks, models.ResourceStock, "", "127.0.0.1", nil)
	var pipeline models.AuditLog
	if err := db.Where("action = ?", models.AuditUpsertStocks).First(&pipeline).Error; err != nil {
		t.Fatalf("expected pipeline audit entry: %v", err)
	}
	if pipeline.UserID != nil {
		t.Errorf("expected no user on pipeline entry, got %v", *pipeline.UserID)
	}
}
