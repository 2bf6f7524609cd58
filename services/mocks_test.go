package services_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"grocery-backend/models"
	"grocery-backend/payment"
	"grocery-backend/repository"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

// --- Mock ProductRepository ---

type mockProductRepo struct {
	products map[uuid.UUID]*models.Product
}

func newMockProductRepo(products ...*models.Product) *mockProductRepo {
	m := &mockProductRepo{products: make(map[uuid.UUID]*models.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (m *mockProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var result []models.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.Compare(result[i].ID.String(), result[j].ID.String()) < 0
	})
	return result, nil
}

func (m *mockProductRepo) DecrementStock(_ *gorm.DB, id uuid.UUID, qty int) error {
	p, ok := m.products[id]
	if !ok || p.StockQuantity < qty {
		return gorm.ErrRecordNotFound
	}
	p.StockQuantity -= qty
	return nil
}

func (m *mockProductRepo) RestoreStock(_ *gorm.DB, id uuid.UUID, qty int) error {
	if p, ok := m.products[id]; ok {
		p.StockQuantity += qty
	}
	return nil
}

// --- Mock CartRepository ---

type mockCartRepo struct {
	lines    map[uuid.UUID]map[uuid.UUID]int
	products *mockProductRepo
	failAdd  bool
}

func newMockCartRepo(products *mockProductRepo) *mockCartRepo {
	return &mockCartRepo{
		lines:    make(map[uuid.UUID]map[uuid.UUID]int),
		products: products,
	}
}

func (m *mockCartRepo) FindByAccount(_ context.Context, accountID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	for productID, qty := range m.lines[accountID] {
		item := models.CartItem{AccountID: accountID, ProductID: productID, Quantity: qty}
		if p, ok := m.products.products[productID]; ok {
			item.Product = p
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return strings.Compare(items[i].ProductID.String(), items[j].ProductID.String()) < 0
	})
	return items, nil
}

func (m *mockCartRepo) FindLine(_ context.Context, accountID, productID uuid.UUID) (*models.CartItem, error) {
	if qty, ok := m.lines[accountID][productID]; ok {
		return &models.CartItem{AccountID: accountID, ProductID: productID, Quantity: qty}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCartRepo) AddQuantity(_ context.Context, accountID, productID uuid.UUID, qty int) error {
	if m.failAdd {
		return errors.New("write failed")
	}
	if m.lines[accountID] == nil {
		m.lines[accountID] = make(map[uuid.UUID]int)
	}
	m.lines[accountID][productID] += qty
	return nil
}

func (m *mockCartRepo) SetQuantity(_ context.Context, accountID, productID uuid.UUID, qty int) error {
	if _, ok := m.lines[accountID][productID]; ok {
		m.lines[accountID][productID] = qty
	}
	return nil
}

func (m *mockCartRepo) DeleteLine(_ context.Context, accountID, productID uuid.UUID) error {
	delete(m.lines[accountID], productID)
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, accountID uuid.UUID) error {
	delete(m.lines, accountID)
	return nil
}

func (m *mockCartRepo) ClearTx(_ *gorm.DB, accountID uuid.UUID) error {
	delete(m.lines, accountID)
	return nil
}

// --- Mock GuestCartStore ---

type mockGuestCartStore struct {
	carts map[string]*models.GuestCart
}

func newMockGuestCartStore() *mockGuestCartStore {
	return &mockGuestCartStore{carts: make(map[string]*models.GuestCart)}
}

func (m *mockGuestCartStore) GetCart(_ context.Context, guestToken string) (*models.GuestCart, error) {
	return m.carts[guestToken], nil
}

func (m *mockGuestCartStore) SaveCart(_ context.Context, cart *models.GuestCart) error {
	m.carts[cart.GuestToken] = cart
	return nil
}

func (m *mockGuestCartStore) DeleteCart(_ context.Context, guestToken string) error {
	delete(m.carts, guestToken)
	return nil
}

// --- Mock VoucherRepository ---

type mockVoucherRepo struct {
	vouchers map[uuid.UUID]*models.Voucher
	usages   map[uuid.UUID]map[uuid.UUID]bool // voucherID -> accountID
}

func newMockVoucherRepo(vouchers ...*models.Voucher) *mockVoucherRepo {
	m := &mockVoucherRepo{
		vouchers: make(map[uuid.UUID]*models.Voucher),
		usages:   make(map[uuid.UUID]map[uuid.UUID]bool),
	}
	for _, v := range vouchers {
		m.vouchers[v.ID] = v
	}
	return m
}

func (m *mockVoucherRepo) Create(_ context.Context, voucher *models.Voucher) error {
	if voucher.ID == uuid.Nil {
		voucher.ID = uuid.New()
	}
	for _, existing := range m.vouchers {
		if existing.Code == voucher.Code {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	m.vouchers[voucher.ID] = voucher
	return nil
}

func (m *mockVoucherRepo) FindByCode(_ context.Context, code string) (*models.Voucher, error) {
	for _, v := range m.vouchers {
		if strings.EqualFold(v.Code, code) {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVoucherRepo) HasUsage(_ context.Context, voucherID, accountID uuid.UUID) (bool, error) {
	return m.usages[voucherID][accountID], nil
}

func (m *mockVoucherRepo) Consume(_ *gorm.DB, voucher *models.Voucher, accountID, _ uuid.UUID) error {
	v, ok := m.vouchers[voucher.ID]
	if !ok || !v.IsActive {
		return repository.ErrUsageLimitReached
	}
	if v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit {
		return repository.ErrUsageLimitReached
	}
	if m.usages[v.ID][accountID] {
		return repository.ErrAlreadyUsed
	}
	v.UsedCount++
	if m.usages[v.ID] == nil {
		m.usages[v.ID] = make(map[uuid.UUID]bool)
	}
	m.usages[v.ID][accountID] = true
	return nil
}

func (m *mockVoucherRepo) Deactivate(_ context.Context, code string) error {
	for _, v := range m.vouchers {
		if strings.EqualFold(v.Code, code) {
			v.IsActive = false
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockVoucherRepo) FindAll(_ context.Context, _, _ int) ([]models.Voucher, int64, error) {
	var result []models.Voucher
	for _, v := range m.vouchers {
		result = append(result, *v)
	}
	return result, int64(len(result)), nil
}

// --- Mock AddressRepository ---

type mockAddressRepo struct {
	addresses map[uuid.UUID]*models.Address
}

func newMockAddressRepo(addresses ...*models.Address) *mockAddressRepo {
	m := &mockAddressRepo{addresses: make(map[uuid.UUID]*models.Address)}
	for _, a := range addresses {
		m.addresses[a.ID] = a
	}
	return m
}

func (m *mockAddressRepo) FindByIDAndAccount(_ context.Context, id, accountID uuid.UUID) (*models.Address, error) {
	a, ok := m.addresses[id]
	if !ok || a.AccountID != accountID {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

// --- Mock StoreRepository ---

type mockStoreRepo struct {
	stores map[uuid.UUID]*models.Store
}

func newMockStoreRepo(stores ...*models.Store) *mockStoreRepo {
	m := &mockStoreRepo{stores: make(map[uuid.UUID]*models.Store)}
	for _, s := range stores {
		m.stores[s.ID] = s
	}
	return m
}

func (m *mockStoreRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Store, error) {
	s, ok := m.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (m *mockStoreRepo) FindAll(_ context.Context) ([]models.Store, error) {
	var result []models.Store
	for _, s := range m.stores {
		result = append(result, *s)
	}
	return result, nil
}

// --- Mock OrderRepository ---

type mockOrderRepo struct {
	orders  map[uuid.UUID]*models.Order
	history map[uuid.UUID][]models.OrderHistory
}

func newMockOrderRepo(orders ...*models.Order) *mockOrderRepo {
	m := &mockOrderRepo{
		orders:  make(map[uuid.UUID]*models.Order),
		history: make(map[uuid.UUID][]models.OrderHistory),
	}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *mockOrderRepo) CreateTx(_ *gorm.DB, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) AppendHistoryTx(_ *gorm.DB, entry *models.OrderHistory) error {
	entry.EventTimestamp = time.Now()
	m.history[entry.OrderID] = append(m.history[entry.OrderID], *entry)
	return nil
}

func (m *mockOrderRepo) UpdateStatusTx(_ *gorm.DB, order *models.Order) error {
	stored, ok := m.orders[order.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.ShippingStatus = order.ShippingStatus
	stored.PaymentStatus = order.PaymentStatus
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	return m.find(id)
}

func (m *mockOrderRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*models.Order, error) {
	return m.find(id)
}

func (m *mockOrderRepo) find(id uuid.UUID) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *o
	copied.History = m.history[id]
	return &copied, nil
}

func (m *mockOrderRepo) FindByIDAndAccount(_ context.Context, id, accountID uuid.UUID) (*models.Order, error) {
	o, err := m.find(id)
	if err != nil || o.AccountID != accountID {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) FindByAccount(_ context.Context, accountID uuid.UUID, _, _ int) ([]models.Order, int64, error) {
	var result []models.Order
	for _, o := range m.orders {
		if o.AccountID == accountID {
			result = append(result, *o)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockOrderRepo) FindAll(_ context.Context, _, _ int) ([]models.Order, int64, error) {
	var result []models.Order
	for _, o := range m.orders {
		result = append(result, *o)
	}
	return result, int64(len(result)), nil
}

func (m *mockOrderRepo) SetPaymentTransactionID(_ context.Context, id uuid.UUID, transactionID string) error {
	if o, ok := m.orders[id]; ok {
		o.PaymentTransactionID = transactionID
	}
	return nil
}

// --- Mock TxManager ---

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	m.calls++
	return fn(nil)
}

// --- Mock SNS Publisher ---

type mockSNSPublisher struct {
	published [][]byte
}

func (m *mockSNSPublisher) Publish(_ context.Context, _ string, message []byte) error {
	m.published = append(m.published, message)
	return nil
}

// --- Mock payment gateway ---

type mockGateway struct {
	session *payment.CheckoutSession
	err     error
	orders  []*models.Order
}

func (m *mockGateway) CreateCheckout(_ context.Context, order *models.Order) (*payment.CheckoutSession, error) {
	m.orders = append(m.orders, order)
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

// --- Mock CheckoutStore ---

type mockCheckoutStore struct {
	details map[uuid.UUID]*models.CheckoutDetails
}

func newMockCheckoutStore() *mockCheckoutStore {
	return &mockCheckoutStore{details: make(map[uuid.UUID]*models.CheckoutDetails)}
}

func (m *mockCheckoutStore) GetDetails(_ context.Context, accountID uuid.UUID) (*models.CheckoutDetails, error) {
	if d, ok := m.details[accountID]; ok {
		copied := *d
		return &copied, nil
	}
	return &models.CheckoutDetails{}, nil
}

func (m *mockCheckoutStore) SaveDetails(_ context.Context, accountID uuid.UUID, details *models.CheckoutDetails) error {
	copied := *details
	m.details[accountID] = &copied
	return nil
}

func (m *mockCheckoutStore) DeleteDetails(_ context.Context, accountID uuid.UUID) error {
	delete(m.details, accountID)
	return nil
}

// --- Fixtures ---

func productFixture(price float64, stock int) *models.Product {
	return &models.Product{
		ID:            uuid.New(),
		Name:          "Test Product",
		Price:         price,
		StockQuantity: stock,
	}
}

func saleProductFixture(price, salePrice float64, stock int) *models.Product {
	p := productFixture(price, stock)
	p.DiscountPrice = &salePrice
	p.IsOnSale = true
	return p
}

func voucherFixture(code string, vtype models.VoucherType, value float64) *models.Voucher {
	return &models.Voucher{
		ID:         uuid.New(),
		Code:       strings.ToUpper(code),
		Type:       vtype,
		Value:      value,
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(24 * time.Hour),
		IsActive:   true,
	}
}

func addressFixture(accountID uuid.UUID, lat, lon float64) *models.Address {
	return &models.Address{
		ID:        uuid.New(),
		AccountID: accountID,
		Latitude:  &lat,
		Longitude: &lon,
	}
}
