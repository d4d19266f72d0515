// Package session keeps the authenticated identity of each browser, its cart
// and its pending notifications.
//
// A Store moves through three states. It starts Unknown until Restore has read
// the persisted session, then becomes Anonymous or Authenticated. Login and
// Logout move between the last two. Readers that see Unknown must wait rather
// than assume the visitor is anonymous.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"coffeelink/cart"
	"coffeelink/models"
	"coffeelink/storage"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
)

// Keys under which the session is persisted. Both are written and removed
// together.
const (
	TokenKey = "authToken"
	UserKey  = "authUser"
)

// State is the lifecycle state of a Store.
type State int

const (
	Unknown State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Store holds the session of one client. The zero value is not usable; call
// NewStore.
type Store struct {
	clientID string
	storage  storage.Storage
	log      *zap.Logger
	now      func() time.Time

	mu    sync.RWMutex
	state State
	user  models.UserIdentity
	token string
	cart  *cart.Cart
}

// NewStore returns a store in the Unknown state. The cart reports to n.
func NewStore(clientID string, st storage.Storage, n cart.Notifier, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		clientID: clientID,
		storage:  st,
		log:      log,
		now:      time.Now,
		cart:     cart.New(n),
	}
}

// Restore loads the persisted session. Both keys must be present and the user
// must decode; anything else leaves the store anonymous. A token that is a JWT
// past its expiry is discarded along with the user. Storage failures are
// logged and treated as an empty storage. A Login or Logout that lands while
// Restore is reading wins over the persisted values.
func (s *Store) Restore(ctx context.Context) {
	values, err := s.storage.Load(ctx, s.clientID)
	if err != nil {
		s.log.Warn("restore session", zap.String("client", s.clientID), zap.Error(err))
		values = nil
	}

	token, user, ok := decodeSession(values)
	if ok && s.expired(token) {
		s.log.Info("discarding expired session", zap.String("client", s.clientID))
		if err := s.storage.Delete(ctx, s.clientID, TokenKey, UserKey); err != nil {
			s.log.Warn("remove expired session", zap.String("client", s.clientID), zap.Error(err))
		}
		ok = false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Unknown {
		return
	}
	if ok {
		s.state, s.user, s.token = Authenticated, user, token
		return
	}
	s.state, s.user, s.token = Anonymous, models.UserIdentity{}, ""
}

// Login replaces the current session and persists it.
func (s *Store) Login(ctx context.Context, user models.UserIdentity, token string) {
	s.mu.Lock()
	s.state, s.user, s.token = Authenticated, user, token
	s.mu.Unlock()

	raw, err := json.Marshal(user)
	if err != nil {
		s.log.Warn("encode session user", zap.Error(err))
		return
	}
	err = s.storage.Save(ctx, s.clientID, map[string]string{TokenKey: token, UserKey: string(raw)})
	if err != nil {
		s.log.Warn("persist session", zap.String("client", s.clientID), zap.Error(err))
	}
}

// Logout clears the session and the cart and removes the persisted session.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.state, s.user, s.token = Anonymous, models.UserIdentity{}, ""
	s.mu.Unlock()
	s.cart.Clear()

	if err := s.storage.Delete(ctx, s.clientID, TokenKey, UserKey); err != nil {
		s.log.Warn("remove session", zap.String("client", s.clientID), zap.Error(err))
	}
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CurrentUser returns the user and whether there is one.
func (s *Store) CurrentUser() (models.UserIdentity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.state == Authenticated
}

// Token returns the bearer token, empty when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool { return s.State() == Authenticated }

// IsLoading is true until Restore has completed.
func (s *Store) IsLoading() bool { return s.State() == Unknown }

// Cart returns the cart owned by this session.
func (s *Store) Cart() *cart.Cart { return s.cart }

// ClientID returns the id of the browser this store belongs to.
func (s *Store) ClientID() string { return s.clientID }

func decodeSession(values map[string]string) (string, models.UserIdentity, bool) {
	token, user := values[TokenKey], values[UserKey]
	if token == "" || user == "" {
		return "", models.UserIdentity{}, false
	}
	var u models.UserIdentity
	if err := json.Unmarshal([]byte(user), &u); err != nil {
		return "", models.UserIdentity{}, false
	}
	return token, u, true
}

// expired reports whether token is a JWT whose exp claim is in the past. Opaque
// tokens never expire on this side.
func (s *Store) expired(token string) bool {
	claims := jwt.MapClaims{}
	_, _, err := new(jwt.Parser).ParseUnverified(token, claims)
	if err != nil {
		return false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return false
	}
	return !s.now().Before(time.Unix(int64(exp), 0))
}

// errNoClient is returned by registry lookups without a client id.
var errNoClient = errors.New("session: empty client id")
