package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"memberchat/internal/db"
	"memberchat/internal/models"

	"gorm.io/gorm"
)

func newMessageService(t *testing.T) (*MessageService, *gorm.DB) {
	t.Helper()
	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return NewMessageService(gdb), gdb
}

func seedMember(t *testing.T, gdb *gorm.DB, username string) models.Member {
	t.Helper()
	m := models.Member{Username: username, PasswordHash: "x"}
	if err := gdb.Create(&m).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m
}

func TestCreate_Validation(t *testing.T) {
	svc, gdb := newMessageService(t)
	sender := seedMember(t, gdb, "alice")

	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"empty text", "", ErrEmptyText},
		{"whitespace only", "   \t\n ", ErrEmptyText},
		{"too long", strings.Repeat("a", MaxTextLen+1), ErrTextTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(sender, tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	var count int64
	gdb.Model(&models.Message{}).Count(&count)
	if count != 0 {
		t.Errorf("message count = %d, rejected texts must not be stored", count)
	}
}

func TestCreate_BoundaryAndTrim(t *testing.T) {
	svc, gdb := newMessageService(t)
	sender := seedMember(t, gdb, "alice")

	msg, err := svc.Create(sender, "  hello  ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if msg.Text != "hello" {
		t.Errorf("Create() text = %q, want trimmed %q", msg.Text, "hello")
	}
	if msg.SenderUsername != "alice" {
		t.Errorf("Create() sender_username = %q, want alice", msg.SenderUsername)
	}

	if _, err := svc.Create(sender, strings.Repeat("b", MaxTextLen)); err != nil {
		t.Errorf("Create() at max length error = %v", err)
	}
}

func TestList_AscendingRegardlessOfInsertOrder(t *testing.T) {
	svc, gdb := newMessageService(t)
	alice := seedMember(t, gdb, "alice")
	bob := seedMember(t, gdb, "bob")

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	// insert out of order on purpose
	rows := []models.Message{
		{SenderID: bob.ID, Text: "third", CreatedAt: base.Add(3 * time.Minute)},
		{SenderID: alice.ID, Text: "first", CreatedAt: base.Add(1 * time.Minute)},
		{SenderID: alice.ID, Text: "second", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range rows {
		if err := gdb.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	msgs, err := svc.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("List() = %d messages, want 3", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Text != want {
			t.Errorf("List()[%d].Text = %q, want %q", i, msgs[i].Text, want)
		}
	}
	if msgs[0].SenderUsername != "alice" || msgs[2].SenderUsername != "bob" {
		t.Error("List() should resolve sender usernames")
	}
}

func TestList_Empty(t *testing.T) {
	svc, _ := newMessageService(t)

	msgs, err := svc.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Errorf("List() = %v, want empty non-nil slice", msgs)
	}
}
