package tests

import (
	"errors"
	"testing"
)

func TestSignupAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	c := env.newClient()

	login, err := c.signup("abc", "abc@mail.com", "password123")
	if err != nil {
		t.Fatal(err)
	}

	err = c.login(login)
	if err != nil {
		t.Fatal(err)
	}

	info, err := c.userInfo()
	if err != nil {
		t.Fatal(err)
	}

	if info.Username != "abc" || info.Email != "abc@mail.com" {
		t.Fatalf("incorrect user info returned: %v", info)
	}
	if info.IsAdmin || info.Approved {
		t.Fatal("new signups should be unapproved non admins")
	}
}

func TestLoginWithBadCredentials(t *testing.T) {
	env := setupTestEnv(t)

	c := env.newClient()

	login, err := c.signup("abc", "abc@mail.com", "password123")
	if err != nil {
		t.Fatal(err)
	}

	err = c.login(loginInfo{Email: login.Email, Password: "wrong_password"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestDuplicateSignup(t *testing.T) {
	env := setupTestEnv(t)

	c := env.newClient()

	_, err := c.signup("abc", "abc@mail.com", "password123")
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.signup("xyz", "abc@mail.com", "password123")
	if err == nil {
		t.Fatal("duplicate email should be rejected")
	}

	_, err = c.signup("abc", "other@mail.com", "password123")
	if err == nil {
		t.Fatal("duplicate username should be rejected")
	}
}

func TestUserApprovalFlow(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}

	// Unapproved accounts can authenticate but not reach content.
	_, err = user.listVideos("")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	err = admin.approveUser(user.userId)
	if err != nil {
		t.Fatal(err)
	}

	videos, err := user.listVideos("")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 0 {
		t.Fatalf("expected no videos, got %d", len(videos))
	}
}

func TestListUsersIsAdminOnly(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}

	_, err = user.listUsers()
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	users, err := admin.listUsers()
	if err != nil {
		t.Fatal(err)
	}

	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestDeleteUser(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("abc")
	if err != nil {
		t.Fatal(err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	// Admins cannot remove their own account.
	err = admin.deleteUser(admin.userId)
	if err == nil {
		t.Fatal("self delete should be rejected")
	}

	err = admin.deleteUser(user.userId)
	if err != nil {
		t.Fatal(err)
	}

	users, err := admin.listUsers()
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 {
		t.Fatalf("expected only the admin to remain, got %d users", len(users))
	}

	_, err = user.userInfo()
	if err == nil {
		t.Fatal("deleted user token should no longer resolve")
	}
}
