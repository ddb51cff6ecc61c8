package pricing

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/holiman/uint256"

	"ultrachain/crypto"
	"ultrachain/native/roles"
)

// PriceStatus captures the health classification assigned to a stored quote.
type PriceStatus string

const (
	// PriceStatusOK indicates the quote is within the freshness window.
	PriceStatusOK PriceStatus = "ok"
	// PriceStatusStale signals the quote exceeded the configured freshness window.
	PriceStatusStale PriceStatus = "stale"
)

var (
	ErrNoPrice      = errors.New("pricing: no price published")
	ErrStalePrice   = errors.New("pricing: price is stale")
	ErrInvalidPrice = errors.New("pricing: price must be positive")
)

// Quote is the published collateral price scaled by 1e18.
type Quote struct {
	Price      *uint256.Int `json:"price"`
	UpdatedAt  time.Time    `json:"updated_at"`
	AgeSeconds uint32       `json:"age_seconds"`
	Status     PriceStatus  `json:"status"`
}

type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// Authorizer checks the caller against the role provider.
type Authorizer interface {
	AssertRole(caller crypto.Address, required ...roles.Role) error
}

type storedQuote struct {
	Price     *big.Int
	Timestamp uint64
}

// Feed stores the latest price pushed by the protocol owner. Computing prices
// is left to whoever publishes them.
type Feed struct {
	store     storage
	namespace string
	auth      Authorizer
	maxAge    time.Duration
	now       func() time.Time
}

// NewFeed binds a feed to a state namespace. A zero maxAge disables the
// staleness guard.
func NewFeed(store storage, namespace string, auth Authorizer, maxAge time.Duration) *Feed {
	return &Feed{store: store, namespace: namespace, auth: auth, maxAge: maxAge, now: time.Now}
}

// SetClock overrides the time source.
func (f *Feed) SetClock(now func() time.Time) {
	if f == nil || now == nil {
		return
	}
	f.now = now
}

func (f *Feed) quoteKey() []byte {
	return []byte(f.namespace + "/quote")
}

// SetPrice publishes a new price. Only the owner role may publish.
func (f *Feed) SetPrice(caller crypto.Address, price *uint256.Int) error {
	if f == nil || f.store == nil {
		return fmt.Errorf("pricing: feed not initialised")
	}
	if f.auth == nil {
		return fmt.Errorf("pricing: authorizer not configured")
	}
	if err := f.auth.AssertRole(caller, roles.Owner); err != nil {
		return err
	}
	if price == nil || price.IsZero() {
		return ErrInvalidPrice
	}
	return f.store.KVPut(f.quoteKey(), &storedQuote{
		Price:     price.ToBig(),
		Timestamp: uint64(f.now().UTC().Unix()),
	})
}

// Quote returns the stored price with its age and status.
func (f *Feed) Quote() (Quote, error) {
	if f == nil || f.store == nil {
		return Quote{}, fmt.Errorf("pricing: feed not initialised")
	}
	var stored storedQuote
	ok, err := f.store.KVGet(f.quoteKey(), &stored)
	if err != nil {
		return Quote{}, err
	}
	if !ok || stored.Price == nil || stored.Price.Sign() <= 0 {
		return Quote{}, ErrNoPrice
	}
	price, overflow := uint256.FromBig(stored.Price)
	if overflow {
		return Quote{}, fmt.Errorf("pricing: stored price out of range")
	}
	observed := time.Unix(int64(stored.Timestamp), 0).UTC()
	age := computeAgeSeconds(observed, f.now())
	status := PriceStatusOK
	if f.maxAge > 0 && time.Duration(age)*time.Second > f.maxAge {
		status = PriceStatusStale
	}
	return Quote{Price: price, UpdatedAt: observed, AgeSeconds: age, Status: status}, nil
}

// LatestPrice returns the stored price, refusing stale quotes.
func (f *Feed) LatestPrice() (*uint256.Int, error) {
	quote, err := f.Quote()
	if err != nil {
		return nil, err
	}
	if quote.Status == PriceStatusStale {
		return nil, fmt.Errorf("%w: age %ds", ErrStalePrice, quote.AgeSeconds)
	}
	return quote.Price, nil
}

func computeAgeSeconds(observed, now time.Time) uint32 {
	if observed.IsZero() || now.IsZero() {
		return math.MaxUint32
	}
	observed = observed.UTC()
	now = now.UTC()
	if observed.After(now) {
		return 0
	}
	seconds := now.Sub(observed) / time.Second
	if seconds > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(seconds)
}
