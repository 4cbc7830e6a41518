package tests

import (
	"bytes"
	"testing"

	"cleanmaster_platform/platform/auth"
	"cleanmaster_platform/platform/resources"
	"cleanmaster_platform/platform/schema"
	"cleanmaster_platform/platform/services"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	platform services.Platform
	api      chi.Router
	store    resources.Store
	db       *gorm.DB
}

const (
	adminUsername = "admin123"
	adminEmail    = "admin123@mail.com"
	adminPassword = "admin_password123"
)

func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	err = db.AutoMigrate(&schema.User{})
	if err != nil {
		t.Fatal(err)
	}

	store, err := resources.NewEmbeddedStore(db, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	userAuth, err := auth.NewBasicIdentityProvider(
		db,
		auth.NewAuditLogger(new(bytes.Buffer)),
		auth.BasicProviderArgs{
			Secret:        []byte("290zcv02ai249"),
			AdminUsername: adminUsername,
			AdminEmail:    adminEmail,
			AdminPassword: adminPassword,
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	platform := services.NewPlatform(db, store, userAuth)

	return &testEnv{platform: platform, api: platform.Routes(), store: store, db: db}
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

// newUser signs up a fresh account and logs it in. The account is not
// approved, content endpoints will reject it until an admin approves.
func (t *testEnv) newUser(username string) (client, error) {
	c := t.newClient()
	login, err := c.signup(username, username+"@mail.com", username+"_password")
	if err != nil {
		return client{}, err
	}

	err = c.login(login)
	if err != nil {
		return client{}, err
	}

	return c, nil
}

// newApprovedUser signs up an account and has the admin approve it.
func (t *testEnv) newApprovedUser(username string) (client, error) {
	c, err := t.newUser(username)
	if err != nil {
		return client{}, err
	}

	admin, err := t.adminClient()
	if err != nil {
		return client{}, err
	}

	err = admin.approveUser(c.userId)
	if err != nil {
		return client{}, err
	}

	return c, nil
}

func (t *testEnv) adminClient() (client, error) {
	c := t.newClient()
	err := c.login(loginInfo{Email: adminEmail, Password: adminPassword})
	return c, err
}
