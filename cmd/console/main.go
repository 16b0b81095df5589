// Command console is a terminal client for the VESCOM API. It owns one
// session: the access token lives in a state file between runs and is
// resolved to an admin profile on startup before any protected call.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vescom/vescom-api/internal/model"
	"github.com/vescom/vescom-api/internal/session"
)

var serverBaseURL = "http://localhost:8080"

func main() {
	cmd := flag.String("cmd", "me", "Command: login|logout|me|identify|events|summary|report")
	email := flag.String("email", "", "Login email")
	password := flag.String("password", "", "Login password")
	image := flag.String("image", "", "Probe image path (identify)")
	camera := flag.String("camera", "", "Camera id filter")
	typ := flag.String("type", "", "Access type filter: Authorized|Unauthorized")
	limit := flag.String("limit", "", "Max records")
	dateFrom := flag.String("from", "", "Report start date (YYYY-MM-DD)")
	dateTo := flag.String("to", "", "Report end date (YYYY-MM-DD)")
	serverFlag := flag.String("server", "", "Override server base URL")
	flag.Parse()

	if env := os.Getenv("VESCOM_SERVER"); env != "" {
		serverBaseURL = strings.TrimRight(env, "/")
	}
	if *serverFlag != "" {
		serverBaseURL = strings.TrimRight(*serverFlag, "/")
	}

	cli := &console{
		base:  serverBaseURL,
		http:  &http.Client{Timeout: 60 * time.Second},
		guard: session.New(loadToken()),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	var err error
	switch *cmd {
	case "login":
		err = cli.login(ctx, *email, *password)
	case "logout":
		err = cli.logout()
	case "me":
		err = cli.me(ctx)
	case "identify":
		err = cli.identify(ctx, *image, *camera)
	case "events":
		err = cli.events(ctx, "/v1/recognition/events", *typ, *camera, *limit)
	case "summary":
		err = cli.events(ctx, "/v1/recognition/events/summary", *typ, *camera, *limit)
	case "report":
		err = cli.report(ctx, *dateFrom, *dateTo, *typ, *camera, *limit)
	default:
		err = fmt.Errorf("unknown command %q", *cmd)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type console struct {
	base  string
	http  *http.Client
	guard *session.Guard
}

// hydrate resolves the stored token before the first protected call. A
// rejected token is cleared from disk so the next run starts anonymous.
func (c *console) hydrate(ctx context.Context) error {
	err := c.guard.Hydrate(ctx, func(ctx context.Context, token string) (model.Admin, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/v1/auth/admins/me", nil)
		if err != nil {
			return model.Admin{}, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := c.http.Do(req)
		if err != nil {
			return model.Admin{}, err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return model.Admin{}, fmt.Errorf("session rejected (%d)", resp.StatusCode)
		}
		var a model.Admin
		if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
			return model.Admin{}, err
		}
		return a, nil
	})
	if err != nil && c.guard.State() == session.Anonymous {
		clearToken()
	}
	return err
}

func (c *console) login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return errors.New("-email and -password are required")
	}
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	var lr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return err
	}
	// The profile arrives with the first hydration; the guard only needs
	// the token to become the session owner.
	c.guard.Login(lr.AccessToken, model.Admin{Email: email})
	if err := saveToken(lr.AccessToken); err != nil {
		return err
	}
	fmt.Println("logged in as", email)
	return nil
}

func (c *console) logout() error {
	c.guard.Logout()
	clearToken()
	fmt.Println("logged out")
	return nil
}

func (c *console) me(ctx context.Context) error {
	if err := c.hydrate(ctx); err != nil {
		return err
	}
	a, ok := c.guard.Admin()
	if !ok {
		return session.ErrNotAuthenticated
	}
	out, _ := json.MarshalIndent(a, "", "  ")
	fmt.Println(string(out))
	return nil
}

func (c *console) identify(ctx context.Context, imagePath, camera string) error {
	if imagePath == "" {
		return errors.New("-image is required")
	}
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return err
	}
	if _, err := part.Write(img); err != nil {
		return err
	}
	if camera != "" {
		if err := mw.WriteField("camera_id", camera); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.call(ctx, http.MethodPost, "/v1/recognition/identify", &body, mw.FormDataContentType(), os.Stdout)
}

func (c *console) events(ctx context.Context, path, typ, camera, limit string) error {
	q := make([]string, 0, 3)
	if typ != "" {
		q = append(q, "type="+typ)
	}
	if camera != "" {
		q = append(q, "camera_id="+camera)
	}
	if limit != "" {
		q = append(q, "limit="+limit)
	}
	if len(q) > 0 {
		path += "?" + strings.Join(q, "&")
	}
	return c.call(ctx, http.MethodGet, path, nil, "", os.Stdout)
}

// report fetches the CSV export and writes it under the server-chosen
// filename in the working directory.
func (c *console) report(ctx context.Context, from, to, typ, camera, limit string) error {
	if from == "" || to == "" {
		return errors.New("-from and -to are required (YYYY-MM-DD)")
	}
	q := []string{"date_from=" + from, "date_to=" + to}
	if typ != "" {
		q = append(q, "type="+typ)
	}
	if camera != "" {
		q = append(q, "camera_id="+camera)
	}
	if limit != "" {
		q = append(q, "limit="+limit)
	}
	name := fmt.Sprintf("reporte_vescom_%s_%s.csv", from, to)
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := c.call(ctx, http.MethodGet, "/v1/recognition/report?"+strings.Join(q, "&"), nil, "", f); err != nil {
		return err
	}
	fmt.Println("wrote", name)
	return nil
}

// call performs one authenticated request. An authorization failure tears
// the session down: the token is discarded and the command fails without
// retry.
func (c *console) call(ctx context.Context, method, path string, body io.Reader, contentType string, out io.Writer) error {
	if err := c.hydrate(ctx); err != nil {
		return err
	}
	token, err := c.guard.Token()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusUnauthorized {
		c.guard.Invalidate()
		clearToken()
		return errors.New("session expired, log in again")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	_, err = io.Copy(out, resp.Body)
	return err
}

func apiError(resp *http.Response) error {
	var e struct {
		Error string `json:"error"`
	}
	if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
		return fmt.Errorf("%s (%d)", e.Error, resp.StatusCode)
	}
	return fmt.Errorf("request failed (%d)", resp.StatusCode)
}

// tokenPath resolves the session state file, overridable for tests and
// multi-profile setups.
func tokenPath() string {
	if p := os.Getenv("VESCOM_TOKEN_FILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vescom_token"
	}
	return filepath.Join(home, ".vescom", "token")
}

func loadToken() string {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func saveToken(token string) error {
	p := tokenPath()
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p, []byte(token), 0o600)
}

func clearToken() {
	_ = os.Remove(tokenPath())
}
