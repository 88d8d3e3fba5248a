package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/emarastore/emara/internal/cache"
	"github.com/emarastore/emara/internal/db"
	"github.com/emarastore/emara/internal/logging"
	"github.com/emarastore/emara/internal/observability"
	"github.com/emarastore/emara/internal/payments/mercadopago"
	"github.com/emarastore/emara/internal/payments/webpay"
)

const webhookDedupTTL = 24 * time.Hour

type paymentOrderStore interface {
	GetByID(ctx context.Context, orderID uuid.UUID) (*db.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*db.Order, error)
	ItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]db.OrderItem, error)
	RecordPaymentResult(ctx context.Context, orderID uuid.UUID, result db.PaymentResult) error
}

type webpayGateway interface {
	Create(ctx context.Context, buyOrder, sessionID string, amount int, returnURL string) (*webpay.CreateResponse, error)
	Commit(ctx context.Context, token string) (*webpay.CommitResponse, error)
}

type mercadoPagoGateway interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

type orderCommenter interface {
	AddOrderComment(ctx context.Context, incrementID, comment string) error
}

type PaymentService struct {
	orders      paymentOrderStore
	provider    string
	webpay      webpayGateway
	mercadopago mercadoPagoGateway
	dedup       cache.Provider
	emailSender OrderEmailSender
	magento     orderCommenter
	baseURL     string
	logger      *slog.Logger
}

// NewPaymentService wires the configured gateway. magento may be nil; email
// falls back to a no-op sender.
func NewPaymentService(orders paymentOrderStore, provider string, wp webpayGateway, mp mercadoPagoGateway, dedup cache.Provider, emailSender OrderEmailSender, magento orderCommenter, baseURL string, logger *slog.Logger) *PaymentService {
	if emailSender == nil {
		emailSender = noopOrderEmailSender{}
	}
	return &PaymentService{
		orders:      orders,
		provider:    provider,
		webpay:      wp,
		mercadopago: mp,
		dedup:       dedup,
		emailSender: emailSender,
		magento:     magento,
		baseURL:     baseURL,
		logger:      logger,
	}
}

func (s *PaymentService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// InitiateResult tells the storefront how to hand the buyer to the gateway.
// Webpay requires a form POST of token_ws to URL; MercadoPago is a plain
// redirect.
type InitiateResult struct {
	Provider    string `json:"provider"`
	Token       string `json:"token,omitempty"`
	URL         string `json:"url"`
	FormField   string `json:"form_field,omitempty"`
	OrderNumber string `json:"order_number"`
}

// Initiate opens a payment for a pending order with the configured gateway.
// Gateway failure leaves the order untouched.
func (s *PaymentService) Initiate(ctx context.Context, orderID uuid.UUID) (*InitiateResult, error) {
	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	order, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.PaymentStatus != db.PaymentPending {
		return nil, UserError{Message: fmt.Sprintf("order %s is already %s", order.OrderNumber, order.PaymentStatus)}
	}

	meter.Count("payment.initiated", 1, sentry.WithAttributes(
		attribute.String("provider", s.provider),
	))

	switch s.provider {
	case "mercadopago":
		return s.initiateMercadoPago(ctx, order)
	default:
		return s.initiateWebpay(ctx, logger, order)
	}
}

func (s *PaymentService) initiateWebpay(ctx context.Context, logger *slog.Logger, order *db.Order) (*InitiateResult, error) {
	sessionID := webpay.NewSessionID(order.ID.String())
	returnURL := s.baseURL + "/api/payments/webpay/commit"
	created, err := s.webpay.Create(ctx, order.OrderNumber, sessionID, order.Total, returnURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	logger.Info("webpay transaction created",
		"order_number", order.OrderNumber,
		"amount", order.Total)
	return &InitiateResult{
		Provider:    "webpay",
		Token:       created.Token,
		URL:         created.URL,
		FormField:   "token_ws",
		OrderNumber: order.OrderNumber,
	}, nil
}

func (s *PaymentService) initiateMercadoPago(ctx context.Context, order *db.Order) (*InitiateResult, error) {
	items, err := s.orders.ItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	req := mercadopago.PreferenceRequest{
		BackURLs: mercadopago.BackURLs{
			Success: fmt.Sprintf("%s/checkout/success?order=%s", s.baseURL, order.OrderNumber),
			Failure: fmt.Sprintf("%s/checkout/failure?order=%s", s.baseURL, order.OrderNumber),
			Pending: fmt.Sprintf("%s/checkout/pending?order=%s", s.baseURL, order.OrderNumber),
		},
		AutoReturn:          "approved",
		ExternalReference:   order.ID.String(),
		NotificationURL:     s.baseURL + "/webhooks/mercadopago",
		StatementDescriptor: "EMARA",
	}
	for _, item := range items {
		req.Items = append(req.Items, mercadopago.PreferenceItem{
			Title:      item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.Price,
			CurrencyID: "CLP",
		})
	}
	// Shipping and tax ride along as extra lines so the hosted checkout
	// charges the full order total.
	if order.Shipping > 0 {
		req.Items = append(req.Items, mercadopago.PreferenceItem{
			Title: "Envío", Quantity: 1, UnitPrice: order.Shipping, CurrencyID: "CLP",
		})
	}
	if order.Tax > 0 {
		req.Items = append(req.Items, mercadopago.PreferenceItem{
			Title: "IVA", Quantity: 1, UnitPrice: order.Tax, CurrencyID: "CLP",
		})
	}

	pref, err := s.mercadopago.CreatePreference(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	url := pref.InitPoint
	if url == "" {
		url = pref.SandboxInitPoint
	}
	return &InitiateResult{
		Provider:    "mercadopago",
		URL:         url,
		OrderNumber: order.OrderNumber,
	}, nil
}

// ConfirmWebpay commits a transaction after the gateway redirect and applies
// the outcome. Committing the same token twice lands on the same final state.
func (s *PaymentService) ConfirmWebpay(ctx context.Context, token string) (*db.Order, error) {
	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	commit, err := s.webpay.Commit(ctx, token)
	if err != nil {
		meter.Count("payment.confirm.failed", 1, sentry.WithAttributes(
			attribute.String("provider", "webpay"),
			attribute.String("reason", "gateway"),
		))
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	order, err := s.orders.GetByOrderNumber(ctx, commit.BuyOrder)
	if errors.Is(err, db.ErrNotFound) {
		meter.Count("payment.confirm.failed", 1, sentry.WithAttributes(
			attribute.String("provider", "webpay"),
			attribute.String("reason", "unknown_order"),
		))
		return nil, fmt.Errorf("%w: buy order %s", ErrOrderNotFound, commit.BuyOrder)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to locate order: %w", err)
	}

	responseCode := commit.ResponseCode
	result := db.PaymentResult{
		PaymentStatus:     db.PaymentFailed,
		Status:            db.StatusCancelled,
		PaymentMethod:     webpay.PaymentMethodFor(commit.PaymentTypeCode),
		AuthorizationCode: commit.AuthorizationCode,
		CardNumber:        commit.CardDetail.CardNumber,
		ResponseCode:      &responseCode,
		TransactionDate:   commit.TransactionDate,
	}
	if commit.Approved() {
		result.PaymentStatus = db.PaymentPaid
		result.Status = db.StatusProcessing
	}

	if err := s.orders.RecordPaymentResult(ctx, order.ID, result); err != nil {
		return nil, fmt.Errorf("failed to record payment result: %w", err)
	}

	meter.Count("payment.confirmed", 1, sentry.WithAttributes(
		attribute.String("provider", "webpay"),
		attribute.String("status", string(result.PaymentStatus)),
	))
	logger.Info("webpay payment confirmed",
		"order_number", order.OrderNumber,
		"response_code", commit.ResponseCode,
		"payment_status", result.PaymentStatus)

	// Side effects fire only on the transition into paid; committing the same
	// token again must not resend the confirmation email.
	if result.PaymentStatus == db.PaymentPaid && order.PaymentStatus != db.PaymentPaid {
		s.afterPaid(ctx, order.ID)
	}

	return s.orders.GetByID(ctx, order.ID)
}

// MercadoPagoEvent is the webhook notification body. Only payment events
// carry state; everything else is acknowledged and dropped.
type MercadoPagoEvent struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HandleMercadoPagoEvent resolves a webhook to the authoritative payment and
// applies it. Events are deduplicated by payment ID; replays are dropped.
func (s *PaymentService) HandleMercadoPagoEvent(ctx context.Context, event MercadoPagoEvent) error {
	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	if event.Type != "payment" || event.Data.ID == "" {
		logger.Debug("ignoring non-payment webhook", "type", event.Type)
		return nil
	}

	dedupKey := cache.WebhookKey("mercadopago", event.Data.ID)
	if s.dedup != nil {
		if _, err := s.dedup.Get(ctx, dedupKey); err == nil {
			logger.Info("skipping duplicate webhook", "payment_id", event.Data.ID)
			meter.Count("payment.webhook.duplicate", 1)
			return nil
		}
	}

	payment, err := s.mercadopago.GetPayment(ctx, event.Data.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	orderID, err := uuid.Parse(payment.ExternalReference)
	if err != nil {
		return fmt.Errorf("%w: external reference %q", ErrOrderNotFound, payment.ExternalReference)
	}

	prior, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}

	var result db.PaymentResult
	switch payment.Status {
	case mercadopago.StatusApproved:
		result = db.PaymentResult{
			PaymentStatus:     db.PaymentPaid,
			Status:            db.StatusProcessing,
			PaymentMethod:     "mercadopago_" + payment.PaymentTypeID,
			AuthorizationCode: payment.AuthorizationCode,
			CardNumber:        payment.Card.LastFourDigits,
			TransactionDate:   payment.DateApproved,
		}
	case mercadopago.StatusRejected, mercadopago.StatusCancelled:
		result = db.PaymentResult{
			PaymentStatus:   db.PaymentFailed,
			Status:          db.StatusCancelled,
			PaymentMethod:   "mercadopago_" + payment.PaymentTypeID,
			TransactionDate: payment.DateCreated,
		}
	default:
		// pending / in_process: no terminal state yet, wait for the next
		// notification.
		logger.Info("payment not terminal yet", "payment_id", event.Data.ID, "status", payment.Status)
		return nil
	}

	if err := s.orders.RecordPaymentResult(ctx, orderID, result); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return fmt.Errorf("failed to record payment result: %w", err)
	}

	if s.dedup != nil {
		if err := s.dedup.Set(ctx, dedupKey, payment.Status, webhookDedupTTL); err != nil {
			logger.Warn("failed to record webhook dedup key", "error", err)
		}
	}

	meter.Count("payment.confirmed", 1, sentry.WithAttributes(
		attribute.String("provider", "mercadopago"),
		attribute.String("status", string(result.PaymentStatus)),
	))
	logger.Info("mercadopago payment applied",
		"payment_id", event.Data.ID,
		"order_id", orderID,
		"payment_status", result.PaymentStatus)

	// A replay that outlives the dedup TTL still reaches this point; the
	// overwrite above is idempotent, but the email must only go out on the
	// first transition into paid.
	if result.PaymentStatus == db.PaymentPaid && prior.PaymentStatus != db.PaymentPaid {
		s.afterPaid(ctx, orderID)
	}
	return nil
}

// afterPaid runs the side effects of a successful payment. Both are
// best-effort; the confirmation itself is already durable.
func (s *PaymentService) afterPaid(ctx context.Context, orderID uuid.UUID) {
	logger := s.loggerFromContext(ctx)

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		logger.Error("failed to reload order for side effects", "order_id", orderID, "error", err)
		return
	}
	items, err := s.orders.ItemsByOrder(ctx, orderID)
	if err != nil {
		logger.Error("failed to load items for confirmation email", "order_id", orderID, "error", err)
		items = nil
	}

	if err := s.emailSender.SendOrderConfirmation(ctx, order, items); err != nil {
		logger.Error("failed to send confirmation email", "order_id", orderID, "error", err)
	}

	if s.magento != nil {
		if err := s.magento.AddOrderComment(ctx, order.OrderNumber, "Pago confirmado en tienda nueva"); err != nil {
			logger.Warn("failed to post legacy order comment", "order_number", order.OrderNumber, "error", err)
		}
	}
}
