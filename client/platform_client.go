// Package client is a typed client for the cleanmaster platform API, used by
// integration tests and operational scripts.
package client

import (
	"fmt"

	"cleanmaster_platform/platform/schema"
)

type PlatformClient struct {
	BaseClient
	userId string
}

func New(baseUrl string) *PlatformClient {
	return &PlatformClient{BaseClient: BaseClient{baseUrl: baseUrl}}
}

func (c *PlatformClient) Signup(username, email, password string) error {
	body := map[string]string{
		"email": email, "username": username, "password": password,
	}

	return c.Post("/api/v1/user/signup").Json(body).Do(nil)
}

func (c *PlatformClient) Login(email, password string) error {
	var data map[string]string
	err := c.Get("/api/v1/user/login").Login(email, password).Do(&data)
	if err != nil {
		return err
	}

	c.authToken = data["access_token"]
	c.userId = data["user_id"]

	return nil
}

func (c *PlatformClient) UserId() string {
	return c.userId
}

func (c *PlatformClient) UserInfo() (schema.User, error) {
	var res schema.User
	err := c.Get("/api/v1/user/info").Do(&res)
	return res, err
}

func (c *PlatformClient) ListUsers() ([]schema.User, error) {
	var res []schema.User
	err := c.Get("/api/v1/user/list").Do(&res)
	return res, err
}

func (c *PlatformClient) ApproveUser(userId string) error {
	return c.Post(fmt.Sprintf("/api/v1/user/%v/approve", userId)).Do(nil)
}

func (c *PlatformClient) DeleteUser(userId string) error {
	return c.Delete(fmt.Sprintf("/api/v1/user/%v", userId)).Do(nil)
}

// UploadCatalog uploads the pdf at path as the catalog for the given brand,
// replacing any catalog previously stored for it.
func (c *PlatformClient) UploadCatalog(brand schema.Brand, path string) error {
	return c.Post(fmt.Sprintf("/api/v1/catalog/%v", brand)).File(path, nil).Do(nil)
}

// GetCatalog returns the catalog record for the brand, or nil if the brand
// has no catalog.
func (c *PlatformClient) GetCatalog(brand schema.Brand) (*schema.Catalog, error) {
	var res *schema.Catalog
	err := c.Get(fmt.Sprintf("/api/v1/catalog/%v", brand)).Do(&res)
	return res, err
}

func (c *PlatformClient) DeleteCatalog(brand schema.Brand) error {
	return c.Delete(fmt.Sprintf("/api/v1/catalog/%v", brand)).Do(nil)
}

func (c *PlatformClient) AddLinkVideo(title string, brand schema.Brand, url string) (schema.Video, error) {
	body := map[string]string{
		"title": title, "brand": string(brand), "url": url,
	}

	var res schema.Video
	err := c.Post("/api/v1/video/").Json(body).Do(&res)
	return res, err
}

func (c *PlatformClient) AddFileVideo(title string, brand schema.Brand, path string) (schema.Video, error) {
	fields := map[string]string{
		"title": title, "brand": string(brand),
	}

	var res schema.Video
	err := c.Post("/api/v1/video/").File(path, fields).Do(&res)
	return res, err
}

// ListVideos returns videos newest first. Pass an empty brand to list across
// all brands.
func (c *PlatformClient) ListVideos(brand schema.Brand) ([]schema.Video, error) {
	r := c.Get("/api/v1/video/list")
	if brand != "" {
		r = r.Param("brand", string(brand))
	}

	var res []schema.Video
	err := r.Do(&res)
	return res, err
}

func (c *PlatformClient) DeleteVideo(id string) error {
	return c.Delete(fmt.Sprintf("/api/v1/video/%v", id)).Do(nil)
}

func (c *PlatformClient) Health() error {
	return c.Get("/api/v1/health").Do(nil)
}
