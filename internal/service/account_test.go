package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/kalendar-app/kalendar/internal/apperror"
	"github.com/kalendar-app/kalendar/internal/auth"
	"github.com/kalendar-app/kalendar/internal/model"
	"github.com/kalendar-app/kalendar/internal/policy"
)

// fakeUserRepo is an in-memory repository.UserRepository. A fake (not a mock
// framework) keeps the tests readable: what it does is right here.
type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	// set to simulate a database failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Conflict("username already exists")
		}
		if u.Email == user.Email {
			return apperror.Conflict("email already exists")
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now().UTC()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (f *fakeUserRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	for id := int64(1); id < f.nextID; id++ {
		if u, ok := f.users[id]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (f *fakeUserRepo) DeleteUser(ctx context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	return nil
}

// newTestAccountService wires an AccountService with fake persistence and
// fast test-grade crypto.
func newTestAccountService(t *testing.T, repo *fakeUserRepo) *AccountService {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	// Cost 4 is bcrypt minimum — makes tests fast
	passwords := auth.NewPasswordServiceForTest(4)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	return NewAccountService(repo, tokens, passwords, logger)
}

// The admin identity uses a high id so it never collides with ids the fake
// repo assigns — self-deletion denial must not trigger by accident.
func asAdmin() policy.Identity { return policy.Identity{UserID: 100, Role: model.RoleAdmin} }
func asUser(id int64) policy.Identity {
	return policy.Identity{UserID: id, Role: model.RoleUser}
}

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == 0 {
		t.Error("Register() did not assign an ID")
	}
	if user.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleUser)
	}
	if user.PasswordHash == "secret123" || user.PasswordHash == "" {
		t.Error("Register() must store a hash, never the plaintext password")
	}
}

func TestRegister_TrimsWhitespace(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	user, err := svc.Register(context.Background(), "  alice  ", " alice@example.com ", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Username != "alice" || user.Email != "alice@example.com" {
		t.Errorf("fields not trimmed: %q, %q", user.Username, user.Email)
	}
}

func TestRegister_Validation(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@example.com", "pw"},
		{"blank username", "   ", "a@example.com", "pw"},
		{"empty email", "alice", "", "pw"},
		{"empty password", "alice", "a@example.com", ""},
		{"username too long", strings.Repeat("x", MaxUsernameLength+1), "a@example.com", "pw"},
		{"email too long", "alice", strings.Repeat("x", MaxEmailLength+1), "pw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "pw"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err := svc.Register(context.Background(), "alice", "other@example.com", "pw")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Register(duplicate) error = %v, want ErrConflict", err)
	}
}

func TestCreateUser_AdminOnly(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	_, err := svc.CreateUser(context.Background(), asUser(5), "bob", "bob@example.com", "pw", model.RoleUser)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("CreateUser(as user) error = %v, want ErrForbidden", err)
	}
}

func TestCreateUser_AdminMayAssignAdminRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	user, err := svc.CreateUser(context.Background(), asAdmin(), "bob", "bob@example.com", "pw", model.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleAdmin)
	}
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	_, err := svc.CreateUser(context.Background(), asAdmin(), "bob", "bob@example.com", "pw", "superuser")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("CreateUser(bad role) error = %v, want ErrValidation", err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret123"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	result, err := svc.Authenticate(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Authenticate() returned empty token")
	}
	if result.User.Username != "alice" {
		t.Errorf("User.Username = %q", result.User.Username)
	}
}

func TestAuthenticate_IdenticalFailures(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret123"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	// Unknown username and wrong password must be indistinguishable.
	_, ghostErr := svc.Authenticate(context.Background(), "ghost", "whatever")
	_, wrongErr := svc.Authenticate(context.Background(), "alice", "wrong-password")

	if !errors.Is(ghostErr, apperror.ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", ghostErr)
	}
	if !errors.Is(wrongErr, apperror.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", wrongErr)
	}
	if ghostErr.Error() != wrongErr.Error() {
		t.Errorf("error messages differ: %q vs %q — username probing is possible",
			ghostErr.Error(), wrongErr.Error())
	}
}

func TestAuthenticate_EmptyCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	_, err := svc.Authenticate(context.Background(), "", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Authenticate(empty) error = %v, want ErrValidation", err)
	}
}

func TestListUsers_AdminOnly(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	if _, err := svc.ListUsers(context.Background(), asUser(5)); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("ListUsers(as user) error = %v, want ErrForbidden", err)
	}

	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "pw"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	users, err := svc.ListUsers(context.Background(), asAdmin())
	if err != nil {
		t.Fatalf("ListUsers(as admin) error = %v", err)
	}
	if len(users) != 1 {
		t.Errorf("len(users) = %d, want 1", len(users))
	}
}

func TestDeleteAccount_SelfDeletionDenied(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	// Even an admin cannot delete their own account.
	admin := asAdmin()
	err := svc.DeleteAccount(context.Background(), admin, admin.UserID)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("DeleteAccount(self) error = %v, want ErrForbidden", err)
	}
}

func TestDeleteAccount_AdminDeletesOther(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	user, err := svc.Register(context.Background(), "bob", "bob@example.com", "pw")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := svc.DeleteAccount(context.Background(), asAdmin(), user.ID); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}
	if _, err := repo.GetUserByID(context.Background(), user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Error("user still exists after DeleteAccount()")
	}
}

func TestDeleteAccount_NonAdminDenied(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	err := svc.DeleteAccount(context.Background(), asUser(5), 9)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("DeleteAccount(as user) error = %v, want ErrForbidden", err)
	}
}
