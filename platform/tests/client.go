package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"

	"cleanmaster_platform/platform/schema"

	"github.com/go-chi/chi/v5"
)

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
	login    *loginInfo
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{
		api:      api,
		method:   method,
		endpoint: endpoint,
		headers:  nil,
		json:     nil,
		body:     nil,
	}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Login(email, password string) *httpTestRequest {
	r.login = &loginInfo{Email: email, Password: password}
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

func (r *httpTestRequest) Body(body io.Reader) *httpTestRequest {
	r.body = body
	return r
}

// Multipart builds a form body with the given fields plus one file part. The
// part's content type is set explicitly since the handlers inspect it.
func (r *httpTestRequest) Multipart(fields map[string]string, fileName, contentType string, payload []byte) *httpTestRequest {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			panic(err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%v"`, fileName))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		panic(err)
	}
	if _, err := part.Write(payload); err != nil {
		panic(err)
	}
	if err := writer.Close(); err != nil {
		panic(err)
	}

	r.body = body
	return r.Header("Content-Type", writer.FormDataContentType())
}

// response body will be parsed into result, passing nil indicates that no result is returned.
func (r *httpTestRequest) Do(result interface{}) error {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	if r.headers != nil {
		for k, v := range r.headers {
			req.Header.Add(k, v)
		}
	}

	if r.login != nil {
		req.SetBasicAuth(r.login.Email, r.login.Password)
	}

	w := httptest.NewRecorder()

	r.api.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		switch res.StatusCode {
		case http.StatusUnauthorized:
			return ErrUnauthorized
		case http.StatusForbidden:
			return ErrForbidden
		}
		return fmt.Errorf("%v request to endpoint %v returned status %d, content '%v'", r.method, r.endpoint, res.StatusCode, w.Body.String())
	}

	if result != nil {
		err := json.NewDecoder(res.Body).Decode(result)
		if err != nil {
			return fmt.Errorf("error parsing %v response from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}

	return nil
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type client struct {
	api       chi.Router
	authToken string
	userId    string
}

func (c *client) Get(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "GET", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Post(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "POST", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Delete(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "DELETE", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

type loginInfo struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *client) signup(username, email, password string) (loginInfo, error) {
	body := map[string]string{
		"email": email, "username": username, "password": password,
	}

	err := c.Post("/user/signup").Json(body).Do(nil)
	if err != nil {
		return loginInfo{}, err
	}

	return loginInfo{Email: email, Password: password}, nil
}

func (c *client) login(login loginInfo) error {
	var res map[string]string
	err := c.Get("/user/login").Login(login.Email, login.Password).Do(&res)
	if err != nil {
		return err
	}

	c.authToken = res["access_token"]
	c.userId = res["user_id"]

	return nil
}

func (c *client) userInfo() (schema.User, error) {
	var res schema.User
	err := c.Get("/user/info").Do(&res)
	return res, err
}

func (c *client) listUsers() ([]schema.User, error) {
	var res []schema.User
	err := c.Get("/user/list").Do(&res)
	return res, err
}

func (c *client) approveUser(userId string) error {
	return c.Post(fmt.Sprintf("/user/%v/approve", userId)).Do(nil)
}

func (c *client) deleteUser(userId string) error {
	return c.Delete(fmt.Sprintf("/user/%v", userId)).Do(nil)
}

func (c *client) uploadCatalog(brand schema.Brand, fileName, contentType string, payload []byte) error {
	return c.Post(fmt.Sprintf("/catalog/%v", brand)).
		Multipart(nil, fileName, contentType, payload).
		Do(nil)
}

func (c *client) getCatalog(brand schema.Brand) (*schema.Catalog, error) {
	var res *schema.Catalog
	err := c.Get(fmt.Sprintf("/catalog/%v", brand)).Do(&res)
	return res, err
}

func (c *client) deleteCatalog(brand schema.Brand) error {
	return c.Delete(fmt.Sprintf("/catalog/%v", brand)).Do(nil)
}

func (c *client) addLinkVideo(title string, brand schema.Brand, videoUrl string) (schema.Video, error) {
	body := map[string]string{
		"title": title, "brand": string(brand), "url": videoUrl,
	}

	var res schema.Video
	err := c.Post("/video/").Json(body).Do(&res)
	return res, err
}

func (c *client) addFileVideo(title string, brand schema.Brand, fileName string, payload []byte) (schema.Video, error) {
	fields := map[string]string{
		"title": title, "brand": string(brand),
	}

	var res schema.Video
	err := c.Post("/video/").
		Multipart(fields, fileName, "video/mp4", payload).
		Do(&res)
	return res, err
}

func (c *client) listVideos(brand schema.Brand) ([]schema.Video, error) {
	endpoint := "/video/list"
	if brand != "" {
		endpoint += "?brand=" + url.QueryEscape(string(brand))
	}

	var res []schema.Video
	err := c.Get(endpoint).Do(&res)
	return res, err
}

func (c *client) deleteVideo(id string) error {
	return c.Delete(fmt.Sprintf("/video/%v", id)).Do(nil)
}
