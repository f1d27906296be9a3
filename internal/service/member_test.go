package service

import (
	"errors"
	"testing"

	"memberchat/internal/config"
	"memberchat/internal/db"
	"memberchat/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func testConfig() config.Config {
	return config.Config{Port: "0", DatabaseDSN: "memory", Env: "test", BcryptCost: bcrypt.MinCost}
}

func newMemberService(t *testing.T) (*MemberService, *gorm.DB) {
	t.Helper()
	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return NewMemberService(gdb, testConfig()), gdb
}

func TestRegister(t *testing.T) {
	svc, gdb := newMemberService(t)

	result, err := svc.Register("alice", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Register() should issue a token immediately")
	}
	if result.Member.Username != "alice" {
		t.Errorf("Register() username = %q, want alice", result.Member.Username)
	}

	var stored models.Member
	if err := gdb.First(&stored, result.Member.ID).Error; err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if stored.Token != result.Token {
		t.Error("issued token should be persisted")
	}
	if stored.PasswordHash == "secret1" || stored.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, gdb := newMemberService(t)

	if _, err := svc.Register("alice", "secret1"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	_, err := svc.Register("alice", "other-password")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("second Register() error = %v, want ErrUsernameTaken", err)
	}

	var count int64
	gdb.Model(&models.Member{}).Count(&count)
	if count != 1 {
		t.Errorf("member count = %d, want 1", count)
	}
}

func TestLogin_NewTokenEachTime(t *testing.T) {
	svc, _ := newMemberService(t)

	reg, err := svc.Register("alice", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	first, err := svc.Login("alice", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	second, err := svc.Login("alice", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if first.Token == reg.Token || second.Token == first.Token {
		t.Error("each login must issue a fresh token")
	}
	if !first.Member.IsOnline {
		t.Error("login must mark the member online")
	}
}

func TestLogin_EnumerationProof(t *testing.T) {
	svc, _ := newMemberService(t)

	if _, err := svc.Register("alice", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, wrongPW := svc.Login("alice", "wrong")
	_, unknown := svc.Login("nobody", "whatever")

	if !errors.Is(wrongPW, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", wrongPW)
	}
	if !errors.Is(unknown, ErrInvalidCredentials) {
		t.Errorf("unknown username error = %v, want ErrInvalidCredentials", unknown)
	}
}

func TestLogout(t *testing.T) {
	svc, gdb := newMemberService(t)

	if _, err := svc.Register("alice", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	result, err := svc.Login("alice", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.Logout(result.Member.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	var stored models.Member
	if err := gdb.First(&stored, result.Member.ID).Error; err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if stored.Token != "" {
		t.Error("Logout() must clear the token")
	}
	if stored.IsOnline {
		t.Error("Logout() must mark the member offline")
	}

	// second logout is a no-op at the data level
	if err := svc.Logout(result.Member.ID); err != nil {
		t.Errorf("repeated Logout() error = %v", err)
	}
}

func TestOnline(t *testing.T) {
	svc, _ := newMemberService(t)

	if _, err := svc.Register("alice", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Register("bob", "secret2"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// registration alone does not mark anyone online
	members, err := svc.Online()
	if err != nil {
		t.Fatalf("Online() error = %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("Online() = %d members, want 0", len(members))
	}

	if _, err := svc.Login("alice", "secret1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	members, err = svc.Online()
	if err != nil {
		t.Fatalf("Online() error = %v", err)
	}
	if len(members) != 1 || members[0].Username != "alice" {
		t.Errorf("Online() = %+v, want only alice", members)
	}
}
