// Package service implements the signup workflow: payload validation,
// password hashing, and the transactional two-table insert with duplicate
// detection, backend-agnostic above the Gateway interface.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/harishgurram/PROTON/internal/models"
	"github.com/harishgurram/PROTON/internal/repository"
)

// Gateway defines the persistence operations the signup service requires
// from a database backend. The two implementations differ in provisioning:
// SQLite expects its tables bootstrapped up front, PostgreSQL creates its
// schema and tables lazily on first use.
type Gateway interface {
	// LazyProvision reports whether the backend provisions schema and
	// tables on first use instead of relying on a separate bootstrap.
	LazyProvision() bool
	// InTransaction runs fn inside a transaction, committing when fn
	// returns nil and rolling back otherwise.
	InTransaction(ctx context.Context, fn func(ctx context.Context, q repository.DBTX) error) error
	// EnsureSchema creates the target schema if the backend has schema
	// namespaces and the schema is absent. It runs outside any signup
	// transaction: a failed statement would poison the transaction and
	// turn the later commit into an error.
	EnsureSchema(ctx context.Context) error
	// UserTableExists checks whether the user registry table exists.
	UserTableExists(ctx context.Context, q repository.DBTX) (bool, error)
	// LoginTableExists checks whether the login registry table exists.
	LoginTableExists(ctx context.Context, q repository.DBTX) (bool, error)
	// CreateUserTable creates the user registry table if missing.
	CreateUserTable(ctx context.Context, q repository.DBTX) error
	// CreateLoginTable creates the login registry table if missing.
	CreateLoginTable(ctx context.Context, q repository.DBTX) error
	// UserIDByEmail looks up a user row id by email.
	UserIDByEmail(ctx context.Context, q repository.DBTX, email string) (int64, bool, error)
	// LoginIDByUserName looks up a login row id by user name.
	LoginIDByUserName(ctx context.Context, q repository.DBTX, userName string) (int64, bool, error)
	// InsertUser inserts a profile row.
	InsertUser(ctx context.Context, q repository.DBTX, user models.User) error
	// InsertLogin inserts a credentials row referencing a user row.
	InsertLogin(ctx context.Context, q repository.DBTX, login models.Login) error
	// DeleteUserByEmail removes a user row by email.
	DeleteUserByEmail(ctx context.Context, q repository.DBTX, email string) error
}

// PasswordHasher turns a plaintext password into its stored hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Signup outcome messages.
const (
	msgSuccess            = "Signup is successful! Please try login."
	msgIncompletePayload  = "Signup is unsuccessful. Input payload / Signup payload is incomplete."
	msgIncompleteDatabase = "Signup is unsuccessful due to incomplete database."
	msgServerError        = "Signup is unsuccessful due to server side error."
	msgUnsupportedFlavour = "PROTON only supports sqlite and postgresql at the moment. " +
		"Do you have a valid db_flavour in your payload?"
)

func emailConflictMessage(email string) string {
	return fmt.Sprintf("User with email %s already exists. Please try login.", email)
}

func userNameConflictMessage(userName string) string {
	return fmt.Sprintf("Username %s already exists. Please try with another unique username.", userName)
}

// Service signs up users: it validates the payload, hashes the password,
// and persists the profile and credentials rows atomically through the
// gateway selected by flavour.
type Service struct {
	// gateways maps a db flavour to its backend gateway.
	gateways map[string]Gateway
	// hasher produces the stored password hash.
	hasher PasswordHasher
	// log receives info events for rejections and error events for
	// unexpected failures.
	log *zap.Logger
}

// NewSignupService constructs a Service. gateways is keyed by flavour
// ("sqlite", "postgresql"); a signup for any other flavour is rejected.
func NewSignupService(gateways map[string]Gateway, hasher PasswordHasher, log *zap.Logger) *Service {
	return &Service{gateways: gateways, hasher: hasher, log: log}
}

// Signup validates payload, then inserts one user registry row and one
// login registry row against the backend selected by flavour. Every exit
// path yields a Result; no error escapes this method. Conflicts and
// provisioning failures are data outcomes and commit (or never write);
// only unexpected failures roll the transaction back.
func (s *Service) Signup(ctx context.Context, flavour string, payload map[string]any) models.Result {
	if !ValidatePayload(payload) {
		s.log.Info("signup rejected: incomplete payload")
		return models.Result{Status: false, Message: msgIncompletePayload}
	}

	gateway, ok := s.gateways[flavour]
	if !ok {
		s.log.Info("signup rejected: unsupported db flavour", zap.String("flavour", flavour))
		return models.Result{Status: false, Message: msgUnsupportedFlavour}
	}

	// Profile / credentials split: identity fields go to the user
	// registry, authentication fields to the login registry.
	creationDateTime, _ := payload["creation_date_time"].(time.Time)
	user := models.User{
		FirstName:        fmt.Sprint(payload["first_name"]),
		LastName:         fmt.Sprint(payload["last_name"]),
		Email:            fmt.Sprint(payload["email"]),
		CreationDateTime: creationDateTime,
	}

	passwordHash, err := s.hasher.Hash(fmt.Sprint(payload["password"]))
	if err != nil {
		s.log.Error("signup failed: password hashing", zap.Error(err))
		return models.Result{Status: false, Message: msgServerError}
	}
	login := models.Login{
		UserName:     fmt.Sprint(payload["user_name"]),
		PasswordHash: passwordHash,
	}

	// Self-provisioning backends create their schema before the
	// transaction opens, so a provisioning failure leaves no
	// transaction side effects behind.
	if gateway.LazyProvision() {
		if err := gateway.EnsureSchema(ctx); err != nil {
			s.log.Info("signup rejected: schema provisioning failed", zap.Error(err))
			return models.Result{Status: false, Message: msgIncompleteDatabase}
		}
	}

	var result models.Result
	err = gateway.InTransaction(ctx, func(ctx context.Context, q repository.DBTX) error {
		var txErr error
		if gateway.LazyProvision() {
			result, txErr = s.signupLazyProvision(ctx, gateway, q, user, login)
		} else {
			result, txErr = s.signupPrebootstrapped(ctx, gateway, q, user, login)
		}
		return txErr
	})
	if err != nil {
		s.log.Error("signup failed",
			zap.String("flavour", flavour),
			zap.String("user_name", login.UserName),
			zap.Error(err))
		return models.Result{Status: false, Message: msgServerError}
	}

	if result.Status {
		s.log.Info("signup completed",
			zap.String("flavour", flavour),
			zap.String("user_name", login.UserName))
	}
	return result
}

// signupPrebootstrapped handles backends whose tables exist before any
// signup runs (SQLite). Both uniqueness checks happen before the first
// insert, so a conflict never leaves partial state behind.
func (s *Service) signupPrebootstrapped(ctx context.Context, gateway Gateway, q repository.DBTX, user models.User, login models.Login) (models.Result, error) {
	_, emailTaken, err := gateway.UserIDByEmail(ctx, q, user.Email)
	if err != nil {
		return models.Result{}, fmt.Errorf("email lookup: %w", err)
	}
	if emailTaken {
		s.log.Info("signup rejected: email already registered", zap.String("email", user.Email))
		return models.Result{Status: false, Message: emailConflictMessage(user.Email)}, nil
	}

	_, userNameTaken, err := gateway.LoginIDByUserName(ctx, q, login.UserName)
	if err != nil {
		return models.Result{}, fmt.Errorf("user name lookup: %w", err)
	}
	if userNameTaken {
		s.log.Info("signup rejected: username already registered",
			zap.String("email", user.Email),
			zap.String("user_name", login.UserName))
		return models.Result{Status: false, Message: userNameConflictMessage(login.UserName)}, nil
	}

	if err := gateway.InsertUser(ctx, q, user); err != nil {
		return models.Result{}, fmt.Errorf("insert user: %w", err)
	}
	userID, found, err := gateway.UserIDByEmail(ctx, q, user.Email)
	if err != nil {
		return models.Result{}, fmt.Errorf("inserted user lookup: %w", err)
	}
	if !found {
		return models.Result{}, fmt.Errorf("inserted user %s not found", user.Email)
	}

	login.UserRegistryID = userID
	if err := gateway.InsertLogin(ctx, q, login); err != nil {
		return models.Result{}, fmt.Errorf("insert login: %w", err)
	}

	return models.Result{Status: true, Message: msgSuccess}, nil
}

// signupLazyProvision handles backends that create their tables on first
// use (PostgreSQL). The schema itself was ensured before this transaction
// opened. The username check runs only after the profile row is inserted;
// on conflict the row is removed by a compensating delete and the
// transaction still commits. A crash between the insert and the delete
// leaves a profile row with no login row.
func (s *Service) signupLazyProvision(ctx context.Context, gateway Gateway, q repository.DBTX, user models.User, login models.Login) (models.Result, error) {
	userTableExists, err := gateway.UserTableExists(ctx, q)
	if err != nil {
		return models.Result{}, fmt.Errorf("user table check: %w", err)
	}
	if userTableExists {
		_, emailTaken, err := gateway.UserIDByEmail(ctx, q, user.Email)
		if err != nil {
			return models.Result{}, fmt.Errorf("email lookup: %w", err)
		}
		if emailTaken {
			s.log.Info("signup rejected: email already registered", zap.String("email", user.Email))
			return models.Result{Status: false, Message: emailConflictMessage(user.Email)}, nil
		}
	} else {
		if err := gateway.CreateUserTable(ctx, q); err != nil {
			return models.Result{}, fmt.Errorf("create user table: %w", err)
		}
	}

	if err := gateway.InsertUser(ctx, q, user); err != nil {
		return models.Result{}, fmt.Errorf("insert user: %w", err)
	}
	userID, found, err := gateway.UserIDByEmail(ctx, q, user.Email)
	if err != nil {
		return models.Result{}, fmt.Errorf("inserted user lookup: %w", err)
	}
	if !found {
		return models.Result{}, fmt.Errorf("inserted user %s not found", user.Email)
	}
	login.UserRegistryID = userID

	loginTableExists, err := gateway.LoginTableExists(ctx, q)
	if err != nil {
		return models.Result{}, fmt.Errorf("login table check: %w", err)
	}
	if !loginTableExists {
		if err := gateway.CreateLoginTable(ctx, q); err != nil {
			return models.Result{}, fmt.Errorf("create login table: %w", err)
		}
	}

	_, userNameTaken, err := gateway.LoginIDByUserName(ctx, q, login.UserName)
	if err != nil {
		return models.Result{}, fmt.Errorf("user name lookup: %w", err)
	}
	if userNameTaken {
		// Compensating delete: the profile row is already written, so it
		// is removed by hand rather than by aborting the transaction.
		if err := gateway.DeleteUserByEmail(ctx, q, user.Email); err != nil {
			return models.Result{}, fmt.Errorf("compensating delete: %w", err)
		}
		s.log.Info("signup rejected: username already registered, profile insert compensated",
			zap.String("email", user.Email),
			zap.String("user_name", login.UserName))
		return models.Result{Status: false, Message: userNameConflictMessage(login.UserName)}, nil
	}

	if err := gateway.InsertLogin(ctx, q, login); err != nil {
		return models.Result{}, fmt.Errorf("insert login: %w", err)
	}

	return models.Result{Status: true, Message: msgSuccess}, nil
}
