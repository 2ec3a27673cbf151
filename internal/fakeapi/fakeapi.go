// ABOUTME: In-memory fake of the catalog REST API for tests and local E2E runs
// ABOUTME: Serves products, uploads, countries, inquiries, settings and login over net/http

package fakeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/sgu-admin/internal/api"
)

// Request is one request the server saw.
type Request struct {
	Method        string
	Path          string
	Authorization string
	Body          string
}

type account struct {
	password string
	user     api.User
}

type failure struct {
	status int
	body   string
}

// Server is a fake catalog API. All handlers except login require a bearer
// token previously issued by Login or IssueToken.
type Server struct {
	mu        sync.Mutex
	mux       *http.ServeMux
	accounts  map[string]account
	tokens    map[string]api.User
	products  map[int]json.RawMessage
	nextID    int
	inquiries []api.Inquiry
	settings  map[string]string
	countries []string
	failures  map[string]failure
	requests  []Request
	uploadSeq int

	// UploadBase prefixes returned upload URLs.
	UploadBase string
}

// New returns an empty Server.
func New() *Server {
	s := &Server{
		accounts:   make(map[string]account),
		tokens:     make(map[string]api.User),
		products:   make(map[int]json.RawMessage),
		nextID:     1,
		settings:   make(map[string]string),
		failures:   make(map[string]failure),
		UploadBase: "https://cdn.example.test/uploads/",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /users/me/", s.authed(s.handleMe))
	mux.HandleFunc("GET /products/", s.authed(s.handleListProducts))
	mux.HandleFunc("POST /products/", s.authed(s.handleCreateProduct))
	mux.HandleFunc("GET /products/{id}", s.authed(s.handleGetProduct))
	mux.HandleFunc("PUT /products/{id}", s.authed(s.handleUpdateProduct))
	mux.HandleFunc("DELETE /products/{id}", s.authed(s.handleDeleteProduct))
	mux.HandleFunc("POST /upload/", s.authed(s.handleUpload))
	mux.HandleFunc("GET /countries/", s.authed(s.handleCountries))
	mux.HandleFunc("GET /inquiries/", s.authed(s.handleListInquiries))
	mux.HandleFunc("DELETE /inquiries/{id}", s.authed(s.handleDeleteInquiry))
	mux.HandleFunc("GET /settings/", s.authed(s.handleListSettings))
	mux.HandleFunc("POST /settings/", s.authed(s.handleUpdateSetting))
	s.mux = mux
	return s
}

// AddUser registers credentials.
func (s *Server) AddUser(username, password, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[username] = account{password: password, user: api.User{Username: username, Role: role}}
}

// IssueToken returns a valid token for a registered user.
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(s.accounts[username].user)
}

func (s *Server) issueLocked(u api.User) string {
	token := "tok-" + uuid.New().String()
	s.tokens[token] = u
	return token
}

// Revoke invalidates token.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// AddProduct stores p with the next identifier.
func (s *Server) AddProduct(p api.Product) api.Product {
	data, err := json.Marshal(p)
	if err != nil {
		panic(fmt.Sprintf("fakeapi: encoding product: %v", err))
	}
	p.ID = s.AddRawProduct(string(data))
	return p
}

// AddRawProduct stores a product given as a JSON object, exactly as the API
// would hold it, and returns its identifier.
func (s *Server) AddRawProduct(object string) int {
	id, err := s.insert([]byte(object))
	if err != nil {
		panic(fmt.Sprintf("fakeapi: %v", err))
	}
	return id
}

func (s *Server) insert(object []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	stored, err := withID(object, id)
	if err != nil {
		return 0, err
	}
	s.nextID++
	s.products[id] = stored
	return id, nil
}

// Product returns a stored product.
func (s *Server) Product(id int) (api.Product, bool) {
	raw, ok := s.RawProduct(id)
	if !ok {
		return api.Product{}, false
	}
	var p api.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return api.Product{}, false
	}
	return p, true
}

// RawProduct returns the stored JSON object for a product.
func (s *Server) RawProduct(id int) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.products[id]
	return append(json.RawMessage(nil), raw...), ok
}

// AddInquiry stores inq, assigning an identifier and timestamp if missing.
func (s *Server) AddInquiry(inq api.Inquiry) api.Inquiry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inq.ID == 0 {
		inq.ID = len(s.inquiries) + 1
		for _, existing := range s.inquiries {
			if existing.ID >= inq.ID {
				inq.ID = existing.ID + 1
			}
		}
	}
	if inq.CreatedAt == "" {
		inq.CreatedAt = time.Now().UTC().Format("2006-01-02T15:04:05.000000")
	}
	s.inquiries = append(s.inquiries, inq)
	return inq
}

// Inquiries returns the stored inquiries.
func (s *Server) Inquiries() []api.Inquiry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Inquiry(nil), s.inquiries...)
}

// SetSetting stores a setting directly.
func (s *Server) SetSetting(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
}

// Settings returns a copy of the settings.
func (s *Server) Settings() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	return out
}

// SetCountries sets the country list.
func (s *Server) SetCountries(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countries = names
}

// Fail makes every request matching method and path answer with status and
// a {"detail": detail} body until Recover is called.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, _ := json.Marshal(map[string]string{"detail": detail})
	s.failures[method+" "+path] = failure{status: status, body: string(body)}
}

// Recover clears a failure set with Fail.
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Requests returns every request seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		body = data
		r.Body = io.NopCloser(bytes.NewReader(data))
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		Body:          string(body),
	})
	f, failing := s.failures[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if failing {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) authed(next func(http.ResponseWriter, *http.Request, api.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		user, valid := s.tokens[token]
		s.mu.Unlock()
		if !ok || !valid {
			writeError(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r, user)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	s.mu.Lock()
	acct, ok := s.accounts[username]
	var token string
	if ok && acct.password == password {
		token = s.issueLocked(acct.user)
	}
	s.mu.Unlock()

	if token == "" {
		writeError(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, api.Token{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, user api.User) {
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListProducts(w http.ResponseWriter, _ *http.Request, _ api.User) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.products[id])
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request, _ api.User) {
	body, p, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	id, err := s.insert(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	raw, _ := s.RawProduct(id)
	writeJSON(w, http.StatusOK, raw)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request, _ api.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	raw, found := s.RawProduct(id)
	if !found {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request, _ api.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	body, _, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	stored, err := withID(body, id)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	_, found := s.products[id]
	if found {
		s.products[id] = stored
	}
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// decodeProduct reads a product body, keeping the raw object alongside the
// decoded fields.
func decodeProduct(w http.ResponseWriter, r *http.Request) ([]byte, api.Product, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, api.Product{}, false
	}
	var p api.Product
	if err := json.Unmarshal(body, &p); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, api.Product{}, false
	}
	return body, p, true
}

// withID returns object with its "id" member set, leaving every other member
// as sent.
func withID(object []byte, id int) (json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(object, &fields); err != nil {
		return nil, fmt.Errorf("product must be a JSON object: %w", err)
	}
	fields["id"] = json.RawMessage(strconv.Itoa(id))
	return json.Marshal(fields)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request, _ api.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.products[id]
	delete(s.products, id)
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, _ api.User) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.uploadSeq++
	url := fmt.Sprintf("%s%d-%s", s.UploadBase, s.uploadSeq, header.Filename)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.Upload{URL: url})
}

func (s *Server) handleCountries(w http.ResponseWriter, _ *http.Request, _ api.User) {
	s.mu.Lock()
	out := make([]api.Country, 0, len(s.countries))
	for _, name := range s.countries {
		out = append(out, api.Country{Name: name})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListInquiries(w http.ResponseWriter, _ *http.Request, _ api.User) {
	writeJSON(w, http.StatusOK, s.Inquiries())
}

func (s *Server) handleDeleteInquiry(w http.ResponseWriter, r *http.Request, _ api.User) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	found := false
	for i, inq := range s.inquiries {
		if inq.ID == id {
			s.inquiries = append(s.inquiries[:i], s.inquiries[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "Inquiry not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Inquiry deleted"})
}

func (s *Server) handleListSettings(w http.ResponseWriter, _ *http.Request, _ api.User) {
	settings := s.Settings()
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]api.Setting, 0, len(keys))
	for _, k := range keys {
		out = append(out, api.Setting{Key: k, Value: settings[k]})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateSetting(w http.ResponseWriter, r *http.Request, _ api.User) {
	var st api.Setting
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil || st.Key == "" {
		writeError(w, http.StatusUnprocessableEntity, "key is required")
		return
	}
	s.SetSetting(st.Key, st.Value)
	writeJSON(w, http.StatusOK, st)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "id must be an integer")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
