package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/harishgurram/PROTON/internal/models"
	"github.com/harishgurram/PROTON/internal/repository"
)

// fakeGateway implements Gateway with overridable behavior and records
// which operations ran.
type fakeGateway struct {
	lazy bool

	ensureSchemaErr error

	userTableExists  bool
	loginTableExists bool

	emailLookups   int
	emailTakenID   int64
	emailTaken     bool
	emailLookupErr error

	userNameTaken     bool
	userNameLookupErr error

	insertedUsers  []models.User
	insertedLogins []models.Login
	deletedEmails  []string

	createdUserTable  bool
	createdLoginTable bool

	txCount   int
	committed bool
}

func (f *fakeGateway) LazyProvision() bool { return f.lazy }

func (f *fakeGateway) InTransaction(ctx context.Context, fn func(ctx context.Context, q repository.DBTX) error) error {
	f.txCount++
	err := fn(ctx, nil)
	f.committed = err == nil
	return err
}

func (f *fakeGateway) EnsureSchema(ctx context.Context) error {
	return f.ensureSchemaErr
}

func (f *fakeGateway) UserTableExists(ctx context.Context, q repository.DBTX) (bool, error) {
	return f.userTableExists, nil
}

func (f *fakeGateway) LoginTableExists(ctx context.Context, q repository.DBTX) (bool, error) {
	return f.loginTableExists, nil
}

func (f *fakeGateway) CreateUserTable(ctx context.Context, q repository.DBTX) error {
	f.createdUserTable = true
	f.userTableExists = true
	return nil
}

func (f *fakeGateway) CreateLoginTable(ctx context.Context, q repository.DBTX) error {
	f.createdLoginTable = true
	f.loginTableExists = true
	return nil
}

func (f *fakeGateway) UserIDByEmail(ctx context.Context, q repository.DBTX, email string) (int64, bool, error) {
	f.emailLookups++
	if f.emailLookupErr != nil {
		return 0, false, f.emailLookupErr
	}
	if f.emailTaken {
		return f.emailTakenID, true, nil
	}
	// After an insert the lookup must find the generated id.
	for _, u := range f.insertedUsers {
		if u.Email == email {
			return 42, true, nil
		}
	}
	return 0, false, nil
}

func (f *fakeGateway) LoginIDByUserName(ctx context.Context, q repository.DBTX, userName string) (int64, bool, error) {
	if f.userNameLookupErr != nil {
		return 0, false, f.userNameLookupErr
	}
	if f.userNameTaken {
		return 7, true, nil
	}
	return 0, false, nil
}

func (f *fakeGateway) InsertUser(ctx context.Context, q repository.DBTX, user models.User) error {
	f.insertedUsers = append(f.insertedUsers, user)
	return nil
}

func (f *fakeGateway) InsertLogin(ctx context.Context, q repository.DBTX, login models.Login) error {
	f.insertedLogins = append(f.insertedLogins, login)
	return nil
}

func (f *fakeGateway) DeleteUserByEmail(ctx context.Context, q repository.DBTX, email string) error {
	f.deletedEmails = append(f.deletedEmails, email)
	return nil
}

// fakeHasher marks the plaintext so tests can tell hash from input.
type fakeHasher struct{ err error }

func (f fakeHasher) Hash(password string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "hashed:" + password, nil
}

func newTestService(gw *fakeGateway) *Service {
	gateways := map[string]Gateway{}
	if gw != nil {
		flavour := "sqlite"
		if gw.lazy {
			flavour = "postgresql"
		}
		gateways[flavour] = gw
	}
	return NewSignupService(gateways, fakeHasher{}, zap.NewNop())
}

func TestSignup_IncompletePayload_NoGatewayContact(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw)

	payload := validPayload()
	delete(payload, "email")

	res := svc.Signup(context.Background(), "sqlite", payload)
	if res.Status {
		t.Error("expected rejection")
	}
	if !strings.Contains(res.Message, "incomplete") {
		t.Errorf("message = %q; want incomplete-payload message", res.Message)
	}
	if gw.txCount != 0 {
		t.Errorf("gateway transactions = %d; want 0", gw.txCount)
	}
}

func TestSignup_UnsupportedFlavour(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw)

	res := svc.Signup(context.Background(), "mysql", validPayload())
	if res.Status {
		t.Error("expected rejection")
	}
	if !strings.Contains(res.Message, "sqlite and postgresql") {
		t.Errorf("message = %q; want supported flavours listed", res.Message)
	}
	if gw.txCount != 0 {
		t.Errorf("gateway transactions = %d; want 0", gw.txCount)
	}
}

func TestSignup_SQLite_Success(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw)

	res := svc.Signup(context.Background(), "sqlite", validPayload())
	if !res.Status {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if len(gw.insertedUsers) != 1 || len(gw.insertedLogins) != 1 {
		t.Fatalf("inserted %d users, %d logins; want 1 and 1", len(gw.insertedUsers), len(gw.insertedLogins))
	}
	login := gw.insertedLogins[0]
	if login.UserRegistryID != 42 {
		t.Errorf("login.UserRegistryID = %d; want 42", login.UserRegistryID)
	}
	if login.PasswordHash != "hashed:secret-password" {
		t.Errorf("login.PasswordHash = %q; want hashed value", login.PasswordHash)
	}
	if !gw.committed {
		t.Error("expected transaction to commit")
	}
}

func TestSignup_SQLite_EmailConflict(t *testing.T) {
	gw := &fakeGateway{emailTaken: true, emailTakenID: 3}
	svc := newTestService(gw)

	res := svc.Signup(context.Background(), "sqlite", validPayload())
	if res.Status {
		t.Error("expected rejection")
	}
	if !strings.Contains(res.Message, "ada@example.com") {
		t.Errorf("message = %q; want conflicting email named", res.Message)
	}
	if len(gw.insertedUsers) != 0 || len(gw.insertedLogins) != 0 {
		t.Error("expected no writes on email conflict")
	}
}

func TestSignup_SQLite_UserNameConflict_NoWrites(t *testing.T) {
	gw := &fakeGateway{userNameTaken: true}
	svc := newTestService(gw)

	res := svc.Signup(context.Background(), "sqlite", validPayload())
	if res.Status {
		t.Error("expected rejection")
	}
	if !strings.Contains(res.Message, "ada") {
		t.Errorf("message = %q; want conflicting username named", res.Message)
	}
	// The SQLite ordering checks the username before any insert, so no
	// compensation is ever needed.
	if len(gw.insertedUsers) != 0 || len(gw.deletedEmails) != 0 {
		t.Error("expected no user insert and no compensating delete")
	}
}

func TestSignup_Postgres_LazyTableCreation(t *testing.T) {
	gw := &fakeGateway{lazy: true}
	svc := newTestService(gw)

	res := svc.Signup(context.Background(), "postgresql", validPayload())
	if !res.Status {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if !gw.createdUserTable || !gw.createdLoginTable {
		t.Error("expected both registry tables to be created lazily")
	}
	if len(gw.insertedUsers) != 1 || len(gw.insertedLogins) != 1 {
		t.Error("expected one user and one login insert")
	}
}

func TestSignup_Postgres_EmailConflict(t *testing.T) {
	gw := &fakeGateway{lazy: true, userTableExists: true, loginTableExists: true, emailTaken: true}
	svc := newTestService(gw)

	res := svc.Signup(context.Background(), "postgresql", validPayload())
	if res.Status {
		t.Error("expected rejection")
	}
	if len(gw.insertedUsers) != 0 {
		t.Error("expected no profile insert on email conflict")
	}
}

func TestSignup_Postgres_UserNameConflict_CompensatingDelete(t *testing.T) {
	gw := &fakeGateway{lazy: true, userTableExists: true, loginTableExists: true, userNameTaken: true}
	svc := newTestService(gw)

	res := svc.Signup(context.Background(), "postgresql", validPayload())
	if res.Status {
		t.Error("expected rejection")
	}
	if !strings.Contains(res.Message, "ada") {
		t.Errorf("message = %q; want conflicting username named", res.Message)
	}
	if len(gw.insertedUsers) != 1 {
		t.Fatalf("inserted users = %d; want the profile row written before the check", len(gw.insertedUsers))
	}
	if len(gw.deletedEmails) != 1 || gw.deletedEmails[0] != "ada@example.com" {
		t.Fatalf("deleted emails = %v; want the inserted profile compensated", gw.deletedEmails)
	}
	if len(gw.insertedLogins) != 0 {
		t.Error("expected no login insert")
	}
	if !gw.committed {
		t.Error("expected the compensated transaction to commit, not roll back")
	}
}

func TestSignup_Postgres_ProvisioningFailure(t *testing.T) {
	gw := &fakeGateway{lazy: true, ensureSchemaErr: errors.New("permission denied for database")}
	svc := newTestService(gw)

	res := svc.Signup(context.Background(), "postgresql", validPayload())
	if res.Status {
		t.Error("expected rejection")
	}
	if !strings.Contains(res.Message, "incomplete database") {
		t.Errorf("message = %q; want incomplete-database message", res.Message)
	}
	if len(gw.insertedUsers) != 0 {
		t.Error("expected no writes after provisioning failure")
	}
	// Provisioning runs before the transaction opens, so a failure must
	// leave no transaction side effects at all.
	if gw.txCount != 0 {
		t.Errorf("gateway transactions = %d; want 0", gw.txCount)
	}
}

func TestSignup_UnexpectedError_RollsBack(t *testing.T) {
	gw := &fakeGateway{emailLookupErr: errors.New("connection reset")}
	svc := newTestService(gw)

	res := svc.Signup(context.Background(), "sqlite", validPayload())
	if res.Status {
		t.Error("expected rejection")
	}
	if !strings.Contains(res.Message, "server side error") {
		t.Errorf("message = %q; want generic server-side message", res.Message)
	}
	if gw.committed {
		t.Error("expected transaction rollback on unexpected error")
	}
}

func TestSignup_HasherFailure(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewSignupService(map[string]Gateway{"sqlite": gw}, fakeHasher{err: errors.New("cost out of range")}, zap.NewNop())

	res := svc.Signup(context.Background(), "sqlite", validPayload())
	if res.Status {
		t.Error("expected rejection")
	}
	if gw.txCount != 0 {
		t.Error("expected no transaction when hashing fails")
	}
}
