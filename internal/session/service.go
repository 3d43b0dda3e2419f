package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/trellislab/trellis/backend-go/internal/engine"
	"github.com/trellislab/trellis/backend-go/internal/sketch"
	"github.com/trellislab/trellis/backend-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("sketch not found")
	ErrForbidden = errors.New("forbidden")
)

// Session is one live sketch and the engine that owns it. Sessions are
// held in memory only: deleting one, or stopping the server, discards
// the sketch for good.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`

	Engine *engine.Engine `json:"-"`
}

// Service is the in-memory sketch registry. Edit tokens are JWTs scoped
// to a single sketch ID; anyone without one can still view and export.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	jwtSecret []byte
}

func NewService(jwtSecret string) *Service {
	return &Service{
		sessions:  make(map[string]*Session),
		jwtSecret: []byte(jwtSecret),
	}
}

// Create registers an empty sketch and returns it with the edit token
// that makes its creator the editor.
func (s *Service) Create(name string) (*Session, string, error) {
	return s.CreateWith(name, sketch.New())
}

// CreateWith registers a session around an existing sketch, e.g. the
// bundled sample.
func (s *Service) CreateWith(name string, sk *sketch.Sketch) (*Session, string, error) {
	sess := &Session{
		ID:        typeid.NewSketchID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Engine:    engine.NewWith(sk),
	}

	token, err := s.issueEditToken(sess.ID)
	if err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess, token, nil
}

func (s *Service) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// List returns every session, oldest first.
func (s *Service) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// ValidateEditToken checks the signature and that the token was issued
// for this sketch. A valid token for a different sketch is ErrForbidden,
// so callers can answer 403 instead of 401.
func (s *Service) ValidateEditToken(tokenString, sketchID string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return errors.New("invalid token subject")
	}
	if sub != sketchID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) issueEditToken(sketchID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": sketchID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}
