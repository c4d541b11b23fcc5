// Package apitest runs an in-process storefront API for tests. It keeps
// guest and user carts server side and records every request it serves.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gamexpress/storefront/internal/api"
	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xsrfCookie = "XSRF-TOKEN"

// Request is one recorded API call. Path is relative to the /api prefix.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]interface{}
	Bearer string
}

// Upload is a recorded multipart product submission.
type Upload struct {
	Path   string
	Query  url.Values
	Fields map[string]string
	Files  []string
}

type User struct {
	Principal model.Principal
	Password  string
}

type failure struct {
	status  int
	message string
	drop    bool
}

type cartLine struct {
	ID        uint
	ProductID uint
	Quantity  int
}

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	products    []model.Product
	categories  []model.Category
	users       map[string]*User
	tokens      map[string]string // token -> email
	guestCarts  map[string][]cartLine
	userCarts   map[uint][]cartLine
	nextItemID  uint
	nextUserID  uint
	nextCatID   uint
	nextProdID  uint
	nextGuest   int
	sessionIDs  []string
	failures    map[string]failure
	requests    []Request
	uploads     []Upload
	csrfFetches int
}

// NewServer starts a fake API. Callers close it with t.Cleanup(srv.Close).
func NewServer() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		users:      map[string]*User{},
		tokens:     map[string]string{},
		guestCarts: map[string][]cartLine{},
		userCarts:  map[uint][]cartLine{},
		failures:   map[string]failure{},
		nextItemID: 100,
		nextUserID: 1,
		nextCatID:  1,
		nextProdID: 1000,
	}

	r := gin.New()
	r.GET("/sanctum/csrf-cookie", s.csrfCookie)

	g := r.Group("/api", s.record, s.injectFailures)
	g.POST("/login", s.requireCSRF, s.login)
	g.POST("/register", s.requireCSRF, s.register)
	g.GET("/user", s.currentUser)
	g.POST("/logout", s.logout)

	g.GET("/products", s.listProducts)
	g.GET("/products/:id", s.getProduct)

	g.GET("/v2/cart/items", s.cartItems)
	g.POST("/v2/cart/add", s.addToCart)
	g.POST("/v2/cart/update", s.updateCart)
	g.DELETE("/v2/cart/remove/:id", s.removeFromCart)
	g.POST("/v2/cart/clear", s.clearCart)
	g.POST("/v2/cart/merge", s.mergeCart)

	admin := g.Group("/v1/admin")
	admin.GET("/categories", s.listCategories)
	admin.GET("/categories/:id", s.getCategory)
	admin.POST("/categories", s.requireRole(model.RoleSuperAdmin), s.createCategory)
	admin.POST("/categories/:id", s.requireRole(model.RoleSuperAdmin), s.updateCategory)
	admin.DELETE("/categories/:id", s.requireRole(model.RoleSuperAdmin), s.deleteCategory)
	admin.GET("/products", s.requireRole(model.RoleSuperAdmin, model.RoleProductManager), s.listProducts)
	admin.GET("/products/:id", s.requireRole(model.RoleSuperAdmin, model.RoleProductManager), s.getProduct)
	admin.POST("/products", s.requireRole(model.RoleSuperAdmin, model.RoleProductManager), s.saveProduct)
	admin.POST("/products/:id", s.requireRole(model.RoleSuperAdmin, model.RoleProductManager), s.saveProduct)
	admin.DELETE("/products/:id", s.requireRole(model.RoleSuperAdmin, model.RoleProductManager), s.deleteProduct)
	admin.GET("/dashboard", s.requireRole(model.RoleSuperAdmin, model.RoleProductManager), s.dashboard)

	s.Server = httptest.NewServer(r)
	return s
}

// Config returns an API client configuration pointing at the server.
func (s *Server) Config() api.Config {
	return api.Config{
		BaseURL: s.URL + "/api",
		CSRFURL: s.URL + "/sanctum/csrf-cookie",
		Timeout: 5 * time.Second,
	}
}

// ==================== Fixtures ====================

func (s *Server) AddProduct(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
}

func (s *Server) AddCategory(c model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, c)
	if c.ID >= s.nextCatID {
		s.nextCatID = c.ID + 1
	}
}

// AddUser registers an account and returns its principal.
func (s *Server) AddUser(name, email, password string, role model.UserRole) model.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, email, password, role)
}

func (s *Server) addUserLocked(name, email, password string, role model.UserRole) model.Principal {
	p := model.Principal{ID: s.nextUserID, Name: name, Email: email, Role: role}
	s.nextUserID++
	s.users[email] = &User{Principal: p, Password: password}
	return p
}

// IssueToken returns a valid bearer token for email.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.tokens[token] = email
	return token
}

// SetUserCart replaces a user's server side cart.
func (s *Server) SetUserCart(userID uint, items map[uint]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var lines []cartLine
	for productID, qty := range items {
		lines = append(lines, cartLine{ID: s.newItemIDLocked(), ProductID: productID, Quantity: qty})
	}
	s.userCarts[userID] = lines
}

// QueueSessionIDs makes the next guest adds mint these ids, in order.
func (s *Server) QueueSessionIDs(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionIDs = append(s.sessionIDs, ids...)
}

// Fail makes every later "METHOD /path" call answer status with message.
// The path uses gin's route syntax, e.g. "DELETE /v2/cart/remove/:id".
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// Drop makes every later call of route close the connection unanswered.
func (s *Server) Drop(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{drop: true}
}

// Recover removes a failure set with Fail or Drop.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// ==================== Inspection ====================

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo returns the recorded calls of "METHOD /path".
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Upload, len(s.uploads))
	copy(out, s.uploads)
	return out
}

func (s *Server) Categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

func (s *Server) CSRFFetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.csrfFetches
}

// GuestCart returns product id -> quantity for a guest session.
func (s *Server) GuestCart(sessionID string) map[uint]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return quantities(s.guestCarts[sessionID])
}

// UserCart returns product id -> quantity for a user.
func (s *Server) UserCart(userID uint) map[uint]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return quantities(s.userCarts[userID])
}

func quantities(lines []cartLine) map[uint]int {
	out := map[uint]int{}
	for _, l := range lines {
		out[l.ProductID] += l.Quantity
	}
	return out
}

// ==================== Middleware ====================

func (s *Server) record(c *gin.Context) {
	req := Request{
		Method: c.Request.Method,
		Path:   strings.TrimPrefix(c.Request.URL.Path, "/api"),
		Query:  c.Request.URL.Query(),
		Bearer: strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "),
	}

	if strings.HasPrefix(c.ContentType(), "application/json") && c.Request.Body != nil {
		raw, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		if len(raw) > 0 {
			body := map[string]interface{}{}
			if err := json.Unmarshal(raw, &body); err == nil {
				req.Body = body
			}
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	c.Next()
}

func (s *Server) injectFailures(c *gin.Context) {
	route := c.Request.Method + " " + strings.TrimPrefix(c.FullPath(), "/api")

	s.mu.Lock()
	f, ok := s.failures[route]
	s.mu.Unlock()
	if !ok {
		c.Next()
		return
	}

	if f.drop {
		if conn, _, err := c.Writer.Hijack(); err == nil {
			conn.Close()
		}
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(f.status, gin.H{"message": f.message})
}

func (s *Server) requireCSRF(c *gin.Context) {
	cookie, err := c.Cookie(xsrfCookie)
	header := c.GetHeader("X-XSRF-TOKEN")
	if err != nil || cookie == "" || header == "" {
		c.AbortWithStatusJSON(419, gin.H{"message": "CSRF token mismatch."})
		return
	}
	if decoded, err := url.QueryUnescape(cookie); err == nil {
		cookie = decoded
	}
	if cookie != header {
		c.AbortWithStatusJSON(419, gin.H{"message": "CSRF token mismatch."})
		return
	}
	c.Next()
}

// principal resolves the bearer token. Callers hold s.mu.
func (s *Server) principalLocked(c *gin.Context) *model.Principal {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		return nil
	}
	email, ok := s.tokens[token]
	if !ok {
		return nil
	}
	u := s.users[email]
	p := u.Principal
	return &p
}

func (s *Server) requireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		p := s.principalLocked(c)
		s.mu.Unlock()
		if p == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}
		if !p.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "This action is unauthorized."})
			return
		}
		c.Next()
	}
}

// ==================== Auth ====================

func (s *Server) csrfCookie(c *gin.Context) {
	s.mu.Lock()
	s.csrfFetches++
	s.mu.Unlock()
	c.SetCookie(xsrfCookie, uuid.NewString()+"=", 3600, "/", "", false, false)
	c.Status(http.StatusNoContent)
}

func (s *Server) login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid payload"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[body.Email]
	if !ok || u.Password != body.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	token := uuid.NewString()
	s.tokens[token] = body.Email
	c.JSON(http.StatusOK, gin.H{"token": token, "user": u.Principal})
}

func (s *Server) register(c *gin.Context) {
	var body struct {
		Name                 string `json:"name"`
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid payload"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[body.Email]; exists {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "The email has already been taken.",
			"errors":  gin.H{"email": []string{"The email has already been taken."}},
		})
		return
	}
	p := s.addUserLocked(body.Name, body.Email, body.Password, model.RoleCustomer)
	token := uuid.NewString()
	s.tokens[token] = body.Email
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": p})
}

func (s *Server) currentUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.principalLocked(c)
	if p == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) logout(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if _, ok := s.tokens[token]; !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}
	delete(s.tokens, token)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// ==================== Catalog ====================

func (s *Server) listProducts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]model.Product, len(s.products))
	copy(list, s.products)
	c.JSON(http.StatusOK, gin.H{"products_list": list})
}

func (s *Server) findProductLocked(id uint) (int, bool) {
	for i, p := range s.products {
		if p.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *Server) getProduct(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findProductLocked(uint(id))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, s.products[i])
}

// ==================== Cart ====================

type cartBody struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	SessionID string `json:"session_id"`
}

func (s *Server) newItemIDLocked() uint {
	s.nextItemID++
	return s.nextItemID
}

// cartLocked resolves the cart addressed by the request: the bearer's user
// cart, else the guest cart of sessionID.
func (s *Server) cartLocked(c *gin.Context, sessionID string) ([]cartLine, bool) {
	if p := s.principalLocked(c); p != nil {
		return s.userCarts[p.ID], true
	}
	if sessionID == "" {
		return nil, false
	}
	return s.guestCarts[sessionID], true
}

func (s *Server) storeLocked(c *gin.Context, sessionID string, lines []cartLine) {
	if p := s.principalLocked(c); p != nil {
		s.userCarts[p.ID] = lines
		return
	}
	s.guestCarts[sessionID] = lines
}

func (s *Server) renderLocked(lines []cartLine) []model.CartItem {
	items := make([]model.CartItem, 0, len(lines))
	for _, l := range lines {
		item := model.CartItem{ID: l.ID, ProductID: l.ProductID, Quantity: l.Quantity}
		if i, ok := s.findProductLocked(l.ProductID); ok {
			p := s.products[i]
			item.Product = &p
		}
		items = append(items, item)
	}
	return items
}

func (s *Server) cartItems(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.cartLocked(c, c.Query("session_id"))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"items": []model.CartItem{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": s.renderLocked(cart)})
}

func (s *Server) addToCart(c *gin.Context) {
	var body cartBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Quantity < 1 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "The quantity must be at least 1."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findProductLocked(body.ProductID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	if s.products[i].SoldOut() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Product is out of stock"})
		return
	}

	guest := s.principalLocked(c) == nil
	sessionID := body.SessionID
	if guest && sessionID == "" {
		if len(s.sessionIDs) > 0 {
			sessionID = s.sessionIDs[0]
			s.sessionIDs = s.sessionIDs[1:]
		} else {
			s.nextGuest++
			sessionID = fmt.Sprintf("guest-%d", s.nextGuest)
		}
	}

	cart, _ := s.cartLocked(c, sessionID)
	lines := addLine(cart, body.ProductID, body.Quantity, s.newItemIDLocked)
	s.storeLocked(c, sessionID, lines)

	if guest {
		c.JSON(http.StatusOK, gin.H{"message": "Added to cart", "session_id": sessionID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Added to cart"})
}

func addLine(lines []cartLine, productID uint, qty int, newID func() uint) []cartLine {
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity += qty
			return lines
		}
	}
	return append(lines, cartLine{ID: newID(), ProductID: productID, Quantity: qty})
}

func (s *Server) updateCart(c *gin.Context) {
	var body cartBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Quantity < 1 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "The quantity must be at least 1."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lines, ok := s.cartLocked(c, body.SessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Cart not found"})
		return
	}
	for i := range lines {
		if lines[i].ProductID == body.ProductID {
			lines[i].Quantity = body.Quantity
			s.storeLocked(c, body.SessionID, lines)
			c.JSON(http.StatusOK, gin.H{"message": "Cart updated"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Item not found in cart"})
}

func (s *Server) removeFromCart(c *gin.Context) {
	id64, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	id := uint(id64)

	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.principalLocked(c); p != nil {
		if lines, ok := removeLine(s.userCarts[p.ID], id); ok {
			s.userCarts[p.ID] = lines
			c.JSON(http.StatusOK, gin.H{"message": "Item removed"})
			return
		}
	} else {
		for sid, cart := range s.guestCarts {
			if lines, ok := removeLine(cart, id); ok {
				s.guestCarts[sid] = lines
				c.JSON(http.StatusOK, gin.H{"message": "Item removed"})
				return
			}
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Item not found in cart"})
}

func removeLine(lines []cartLine, id uint) ([]cartLine, bool) {
	for i, l := range lines {
		if l.ID == id {
			return append(lines[:i:i], lines[i+1:]...), true
		}
	}
	return lines, false
}

func (s *Server) clearCart(c *gin.Context) {
	var body cartBody
	_ = c.ShouldBindJSON(&body)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cartLocked(c, body.SessionID); ok {
		s.storeLocked(c, body.SessionID, nil)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

func (s *Server) mergeCart(c *gin.Context) {
	var body cartBody
	_ = c.ShouldBindJSON(&body)

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.principalLocked(c)
	if p == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}
	guest, ok := s.guestCarts[body.SessionID]
	if !ok {
		c.JSON(http.StatusOK, gin.H{"message": "Nothing to merge"})
		return
	}

	lines := s.userCarts[p.ID]
	for _, g := range guest {
		lines = addLine(lines, g.ProductID, g.Quantity, s.newItemIDLocked)
	}
	s.userCarts[p.ID] = lines
	delete(s.guestCarts, body.SessionID)
	c.JSON(http.StatusOK, gin.H{"message": "Cart merged"})
}

// ==================== Admin ====================

func (s *Server) listCategories(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]model.Category, len(s.categories))
	copy(list, s.categories)
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (s *Server) findCategoryLocked(id uint) (int, bool) {
	for i, cat := range s.categories {
		if cat.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *Server) getCategory(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findCategoryLocked(uint(id))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Category not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.categories[i]})
}

type categoryBody struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Method string `json:"_method"`
}

func (s *Server) createCategory(c *gin.Context) {
	var body categoryBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "The name field is required."})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cat := model.Category{ID: s.nextCatID, Name: body.Name, Slug: body.Slug}
	s.nextCatID++
	s.categories = append(s.categories, cat)
	c.JSON(http.StatusCreated, gin.H{"data": cat})
}

func (s *Server) updateCategory(c *gin.Context) {
	var body categoryBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Method != http.MethodPut {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "Method not allowed"})
		return
	}
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findCategoryLocked(uint(id))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Category not found"})
		return
	}
	s.categories[i].Name = body.Name
	s.categories[i].Slug = body.Slug
	c.JSON(http.StatusOK, gin.H{"data": s.categories[i]})
}

func (s *Server) deleteCategory(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findCategoryLocked(uint(id))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Category not found"})
		return
	}
	s.categories = append(s.categories[:i], s.categories[i+1:]...)
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

func (s *Server) saveProduct(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Expected a multipart form"})
		return
	}

	up := Upload{
		Path:   strings.TrimPrefix(c.Request.URL.Path, "/api"),
		Query:  c.Request.URL.Query(),
		Fields: map[string]string{},
	}
	for k, v := range form.Value {
		if len(v) > 0 {
			up.Fields[k] = v[0]
		}
	}
	for _, fh := range form.File["images[]"] {
		up.Files = append(up.Files, fh.Filename)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, up)

	if c.Param("id") == "" {
		p := model.Product{ID: s.nextProdID, Name: up.Fields["name"], Slug: up.Fields["slug"]}
		s.nextProdID++
		s.products = append(s.products, p)
		c.JSON(http.StatusCreated, gin.H{"message": "Product created", "product": p})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated"})
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findProductLocked(uint(id))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (s *Server) dashboard(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	low := 0
	for _, p := range s.products {
		if p.Stock < 5 {
			low++
		}
	}
	latest := s.products
	if len(latest) > 5 {
		latest = latest[len(latest)-5:]
	}
	c.JSON(http.StatusOK, gin.H{"data": model.DashboardStats{
		TotalProducts:  len(s.products),
		TotalUsers:     len(s.users),
		TotalLowStock:  low,
		LatestProducts: latest,
	}})
}
