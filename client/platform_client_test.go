package client_test

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cleanmaster_platform/client"
	"cleanmaster_platform/platform/auth"
	"cleanmaster_platform/platform/resources"
	"cleanmaster_platform/platform/schema"
	"cleanmaster_platform/platform/services"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	adminEmail    = "admin@mail.com"
	adminPassword = "admin_password123"
)

// startTestServer stands up the full api over an embedded store and returns
// its base url.
func startTestServer(t *testing.T) string {
	dir := t.TempDir()

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "platform.db")), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.AutoMigrate(&schema.User{}); err != nil {
		t.Fatal(err)
	}

	store, err := resources.NewEmbeddedStore(db, dir)
	if err != nil {
		t.Fatal(err)
	}

	userAuth, err := auth.NewBasicIdentityProvider(
		db,
		auth.NewAuditLogger(new(bytes.Buffer)),
		auth.BasicProviderArgs{
			Secret:        []byte("8d2j3nf92mfa0"),
			AdminUsername: "admin",
			AdminEmail:    adminEmail,
			AdminPassword: adminPassword,
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	platform := services.NewPlatform(db, store, userAuth)

	r := chi.NewRouter()
	r.Mount("/api/v1", platform.Routes())

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return server.URL
}

func writeTestFile(t *testing.T, name string, payload []byte) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, payload, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClientAgainstLiveServer(t *testing.T) {
	baseUrl := startTestServer(t)

	admin := client.New(baseUrl)
	if err := admin.Health(); err != nil {
		t.Fatal(err)
	}
	if err := admin.Login(adminEmail, adminPassword); err != nil {
		t.Fatal(err)
	}

	pdfPath := writeTestFile(t, "unger.pdf", []byte("%PDF-1.4 catalog bytes"))
	if err := admin.UploadCatalog(schema.BrandUnger, pdfPath); err != nil {
		t.Fatal(err)
	}

	catalog, err := admin.GetCatalog(schema.BrandUnger)
	if err != nil {
		t.Fatal(err)
	}
	if catalog == nil {
		t.Fatal("expected a catalog after upload")
	}
	if catalog.Name != "unger.pdf" {
		t.Fatalf("wrong catalog name: %v", catalog.Name)
	}
	if !strings.HasPrefix(catalog.PayloadRef, "data:application/pdf;base64,") {
		t.Fatalf("wrong payload ref: %v", catalog.PayloadRef)
	}

	video, err := admin.AddLinkVideo("glass cleaning basics", schema.BrandUnger, "https://example.com/v1")
	if err != nil {
		t.Fatal(err)
	}
	if video.PayloadRef != "https://example.com/v1" {
		t.Fatalf("link not stored verbatim: %v", video.PayloadRef)
	}

	videos, err := admin.ListVideos("")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 1 || videos[0].Id != video.Id {
		t.Fatalf("unexpected video list: %v", videos)
	}

	if err := admin.DeleteVideo(video.Id); err != nil {
		t.Fatal(err)
	}
	videos, err = admin.ListVideos("")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 0 {
		t.Fatalf("video list should be empty, got %v", videos)
	}

	if err := admin.DeleteCatalog(schema.BrandUnger); err != nil {
		t.Fatal(err)
	}
	catalog, err = admin.GetCatalog(schema.BrandUnger)
	if err != nil {
		t.Fatal(err)
	}
	if catalog != nil {
		t.Fatalf("catalog should be gone, got %v", catalog)
	}
}

func TestClientApprovalFlow(t *testing.T) {
	baseUrl := startTestServer(t)

	user := client.New(baseUrl)
	if err := user.Signup("worker", "worker@mail.com", "worker_password"); err != nil {
		t.Fatal(err)
	}
	if err := user.Login("worker@mail.com", "worker_password"); err != nil {
		t.Fatal(err)
	}

	if _, err := user.ListVideos(""); err == nil {
		t.Fatal("unapproved user should not be able to list videos")
	}

	admin := client.New(baseUrl)
	if err := admin.Login(adminEmail, adminPassword); err != nil {
		t.Fatal(err)
	}
	if err := admin.ApproveUser(user.UserId()); err != nil {
		t.Fatal(err)
	}

	if _, err := user.ListVideos(""); err != nil {
		t.Fatal(err)
	}
}

func TestClientFileUploadSetsContentType(t *testing.T) {
	baseUrl := startTestServer(t)

	admin := client.New(baseUrl)
	if err := admin.Login(adminEmail, adminPassword); err != nil {
		t.Fatal(err)
	}

	// The server validates the part content type, so an upload under a
	// non-pdf extension has to be rejected.
	gifPath := writeTestFile(t, "poster.gif", []byte("GIF89a"))
	err := admin.UploadCatalog(schema.BrandUnger, gifPath)
	if err == nil {
		t.Fatal("non-pdf upload should be rejected")
	}
	if !strings.Contains(err.Error(), "status 422") {
		t.Fatalf("unexpected error: %v", err)
	}
}
