package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/gameshop/internal/metrics"
	"github.com/mcoot/gameshop/internal/model"
	"github.com/mcoot/gameshop/internal/services/catalog"
	"github.com/mcoot/gameshop/internal/services/credential"
	"github.com/mcoot/gameshop/internal/services/ledger"
	"github.com/mcoot/gameshop/internal/services/profile"
	"github.com/mcoot/gameshop/internal/services/purchase"
	"github.com/mcoot/gameshop/internal/storage"
)

// Action is a coin mutation requested by a client
type Action string

const (
	ActionAdd    Action = "add"
	ActionDeduct Action = "deduct"
)

// ParseAction validates a client-supplied action name
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionAdd, ActionDeduct:
		return a, nil
	default:
		return "", model.ErrInvalidAction
	}
}

// Grant is what a client receives after registering or logging in
type Grant struct {
	IdentityID model.IdentityID
	Username   string
	Secret     string
}

// Summary is the full account view
type Summary struct {
	Username  string
	Coins     int64
	Purchases []*model.Purchase
}

// Controller orchestrates registration, authorization and every privileged
// account operation. Each call is authenticated by the credential it carries.
type Controller struct {
	storage     storage.Storage
	credentials *credential.Service
	ledger      *ledger.Service
	profiles    *profile.Service
	purchases   *purchase.Service
	catalog     catalog.Provider
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

// NewController creates a new account Controller
func NewController(
	storage storage.Storage,
	credentials *credential.Service,
	ledger *ledger.Service,
	profiles *profile.Service,
	purchases *purchase.Service,
	catalog catalog.Provider,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	tracer trace.Tracer,
) *Controller {
	return &Controller{
		storage:     storage,
		credentials: credentials,
		ledger:      ledger,
		profiles:    profiles,
		purchases:   purchases,
		catalog:     catalog,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
	}
}

func (c *Controller) startSpan(ctx context.Context, name string, id model.IdentityID) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, "account."+name)
	if id != "" {
		span.SetAttributes(attribute.String("identity.id", string(id)))
	}
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Register creates an identity and returns its id and secret. The secret is only ever returned here and on login.
func (c *Controller) Register(ctx context.Context, username, password string) (grant *Grant, err error) {
	ctx, span := c.startSpan(ctx, "Register", "")
	defer func() { endSpan(span, err) }()
	defer func() { c.metrics.RecordRegistration(err) }()

	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password", model.ErrMissingField)
	}

	identity, err := c.credentials.Register(ctx, username, password)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateUsername) {
			c.logger.Info("registration rejected, username taken", slog.String("username", username))
		}
		return nil, err
	}

	c.logger.Info("account created",
		slog.String("user_id", string(identity.ID)),
		slog.String("username", identity.Username),
	)
	return &Grant{IdentityID: identity.ID, Username: identity.Username, Secret: identity.Secret}, nil
}

// Authenticate exchanges username and password for the identity's id and secret
func (c *Controller) Authenticate(ctx context.Context, username, password string) (grant *Grant, err error) {
	ctx, span := c.startSpan(ctx, "Authenticate", "")
	defer func() { endSpan(span, err) }()
	defer func() { c.metrics.RecordLogin(err) }()

	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password", model.ErrMissingField)
	}

	identity, err := c.credentials.VerifyPassword(ctx, username, password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			c.logger.Warn("login failed", slog.String("username", username))
		}
		return nil, err
	}

	c.logger.Info("login successful",
		slog.String("user_id", string(identity.ID)),
		slog.String("username", identity.Username),
	)
	return &Grant{IdentityID: identity.ID, Username: identity.Username, Secret: identity.Secret}, nil
}

// Authorize grants access to the identity if any supplied credential matches.
// Returns model.ErrIdentityNotFound for an unknown id and model.ErrUnauthorized
// when no credential (or no matching credential) was supplied.
func (c *Controller) Authorize(ctx context.Context, id model.IdentityID, creds ...model.Credential) (*model.Identity, error) {
	identity, err := c.storage.GetIdentity(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, cred := range creds {
		if cred.IsZero() {
			continue
		}
		var ok bool
		switch cred.Kind() {
		case model.CredentialPassword:
			ok = credential.CheckPassword(identity, cred.Value())
		case model.CredentialSecret:
			ok = credential.CheckSecret(identity, cred.Value())
		}
		if ok {
			c.metrics.RecordAuthorization(cred.Kind().String(), nil)
			return identity, nil
		}
		c.metrics.RecordAuthorization(cred.Kind().String(), model.ErrUnauthorized)
	}

	c.logger.Warn("unauthorized access attempt", slog.String("user_id", string(id)))
	return nil, model.ErrUnauthorized
}

// Summary returns username, balance and purchase history
func (c *Controller) Summary(ctx context.Context, id model.IdentityID, creds ...model.Credential) (summary *Summary, err error) {
	ctx, span := c.startSpan(ctx, "Summary", id)
	defer func() { endSpan(span, err) }()

	identity, err := c.Authorize(ctx, id, creds...)
	if err != nil {
		return nil, err
	}

	purchases, err := c.purchases.ListFor(ctx, id)
	if err != nil {
		return nil, err
	}

	c.logger.Info("account data retrieved", slog.String("user_id", string(id)))
	return &Summary{
		Username:  identity.Username,
		Coins:     identity.Coins,
		Purchases: purchases,
	}, nil
}

// MutateCoins adds or deducts a positive amount and returns the new balance
func (c *Controller) MutateCoins(ctx context.Context, id model.IdentityID, secret string, action string, amount int64) (balance int64, err error) {
	ctx, span := c.startSpan(ctx, "MutateCoins", id)
	span.SetAttributes(attribute.String("ledger.action", action), attribute.Int64("ledger.amount", amount))
	defer func() { endSpan(span, err) }()

	if _, err := c.Authorize(ctx, id, model.SecretCredential(secret)); err != nil {
		return 0, err
	}

	act, err := ParseAction(action)
	if err != nil {
		c.logger.Warn("invalid coin action",
			slog.String("user_id", string(id)),
			slog.String("action", action),
		)
		return 0, err
	}
	defer func() { c.metrics.RecordCoinMutation(string(act), amount, err) }()

	if amount <= 0 {
		return 0, model.ErrInvalidAmount
	}

	delta := amount
	if act == ActionDeduct {
		delta = -amount
	}

	balance, err = c.ledger.Apply(ctx, id, delta)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientFunds) {
			c.logger.Warn("insufficient coins",
				slog.String("user_id", string(id)),
				slog.Int64("requested", amount),
				slog.Int64("balance", balance),
			)
		}
		return 0, err
	}

	c.logger.Info("coins updated",
		slog.String("user_id", string(id)),
		slog.String("action", string(act)),
		slog.Int64("amount", amount),
		slog.Int64("balance", balance),
	)
	return balance, nil
}

// Profile returns the identity's profile document
func (c *Controller) Profile(ctx context.Context, id model.IdentityID, secret string) (doc model.Profile, err error) {
	ctx, span := c.startSpan(ctx, "Profile", id)
	defer func() { endSpan(span, err) }()

	if _, err := c.Authorize(ctx, id, model.SecretCredential(secret)); err != nil {
		return nil, err
	}
	return c.profiles.Read(ctx, id)
}

// UpdateProfile merges patch into the profile. Disallowed keys reject the whole write.
func (c *Controller) UpdateProfile(ctx context.Context, id model.IdentityID, secret string, patch model.Profile) (doc model.Profile, err error) {
	ctx, span := c.startSpan(ctx, "UpdateProfile", id)
	defer func() { endSpan(span, err) }()

	if _, err := c.Authorize(ctx, id, model.SecretCredential(secret)); err != nil {
		return nil, err
	}
	defer func() { c.metrics.RecordProfileWrite(err) }()

	doc, err = c.profiles.Write(ctx, id, patch)
	if err != nil {
		var rejected *model.RejectedKeysError
		if errors.As(err, &rejected) {
			c.logger.Warn("profile write rejected",
				slog.String("user_id", string(id)),
				slog.String("invalid_keys", strings.Join(rejected.Keys, ",")),
			)
		}
		return nil, err
	}

	c.logger.Info("profile updated",
		slog.String("user_id", string(id)),
		slog.String("keys", strings.Join(patch.Keys(), ",")),
	)
	return doc, nil
}

// RecordPurchase appends a purchase after an external payment already completed
func (c *Controller) RecordPurchase(ctx context.Context, id model.IdentityID, productName string, at time.Time) (p *model.Purchase, err error) {
	ctx, span := c.startSpan(ctx, "RecordPurchase", id)
	defer func() { endSpan(span, err) }()

	p, err = c.purchases.Record(ctx, id, productName, at)
	if err != nil {
		return nil, err
	}

	c.logger.Info("purchase recorded",
		slog.String("user_id", string(id)),
		slog.String("product_name", productName),
		slog.Int64("purchase_id", int64(p.ID)),
	)
	return p, nil
}

// Purchase charges the catalog provider for a product and records the purchase.
// The charge runs before any storage write, and coins are not touched.
func (c *Controller) Purchase(ctx context.Context, id model.IdentityID, secret string, productID string) (p *model.Purchase, receipt *catalog.Receipt, err error) {
	ctx, span := c.startSpan(ctx, "Purchase", id)
	span.SetAttributes(attribute.String("catalog.product_id", productID))
	defer func() { endSpan(span, err) }()

	if _, err := c.Authorize(ctx, id, model.SecretCredential(secret)); err != nil {
		return nil, nil, err
	}
	defer func() { c.metrics.RecordPurchase(err) }()

	if strings.TrimSpace(productID) == "" {
		return nil, nil, fmt.Errorf("%w: product_id", model.ErrMissingField)
	}

	receipt, err = c.catalog.Charge(ctx, id, productID)
	if err != nil {
		c.logger.Warn("charge failed",
			slog.String("user_id", string(id)),
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return nil, nil, err
	}

	p, err = c.RecordPurchase(ctx, id, receipt.ProductName, receipt.ChargedAt)
	if err != nil {
		// payment captured but not recorded; the receipt id lets support reconcile
		c.logger.Error("purchase not recorded after charge",
			slog.String("user_id", string(id)),
			slog.String("receipt_id", receipt.ID),
			slog.String("error", err.Error()),
		)
		return nil, receipt, err
	}
	return p, receipt, nil
}
