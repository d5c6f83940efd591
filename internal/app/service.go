package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"plantpal/api/internal/aichat"
	"plantpal/api/internal/auth"
	"plantpal/api/internal/authpw"
	"plantpal/api/internal/config"
	"plantpal/api/internal/email"
	"plantpal/api/internal/media"
	"plantpal/api/internal/notify"
	"plantpal/api/internal/search"
	"plantpal/api/internal/session"
	"plantpal/api/internal/store"
)

// Session is a resolved caller identity for one request.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	Email        string
	Name         string
	JTI          string
	ExpiresAt    time.Time
}

// dataStore is the slice of the document store the service consumes.
type dataStore interface {
	Ping(ctx context.Context) error

	CreateUser(context.Context, store.User) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	ListUsersExcept(context.Context, string) ([]store.User, error)
	SetFollowing(context.Context, string, []string) error
	SetFollowers(context.Context, string, []string) error

	InsertChat(context.Context, store.ChatMessage) (store.ChatMessage, error)
	ChatsBetween(context.Context, string, string) ([]store.ChatMessage, error)
	MarkChatsRead(context.Context, string, string) error
	ChatsTouching(context.Context, string) ([]store.ChatMessage, error)
	CountUnreadChats(context.Context, string, string) (int64, error)

	NotificationsFor(context.Context, string, int64) ([]store.Notification, error)
	CountUnreadNotifications(context.Context, string) (int64, error)
	MarkNotificationRead(context.Context, string, string) (store.Notification, error)
	MarkAllNotificationsRead(context.Context, string) error
	DeleteNotification(context.Context, string, string) error
	ClearNotifications(context.Context, string) (int64, error)

	InsertPost(context.Context, store.Post) (store.Post, error)
	ListPosts(context.Context) ([]store.Post, error)
	GetPost(context.Context, string) (store.Post, error)
	UpdatePost(context.Context, store.Post) error
	DeletePost(context.Context, string) error

	InsertPlant(context.Context, store.Plant) (store.Plant, error)
	PlantsFor(context.Context, string) ([]store.Plant, error)
	GetPlant(context.Context, string) (store.Plant, error)
	UpdatePlant(context.Context, store.Plant) error
	DeletePlant(context.Context, string, string) error
}

// sessionStore holds opaque refresh tokens; nil when Redis is not configured.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, data session.TokenData, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (session.TokenData, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// notifier schedules notification fan-out after the primary write commits.
type notifier interface {
	MessageCreatedAsync(msg store.ChatMessage, senderName string)
	PostCreatedAsync(post store.Post, authorName string)
}

type aiClient interface {
	IsConfigured() bool
	Complete(ctx context.Context, message string) (string, error)
}

type mailerClient interface {
	IsConfigured() bool
	SendOTP(to, message string) error
}

type mediaStore interface {
	StoreImage(ctx context.Context, dataURL string) (string, error)
	RemoveImage(ctx context.Context, imageURL string)
}

type postSearcher interface {
	Search(ctx context.Context, q search.Query) search.Response
	IndexPost(p store.Post)
	DeletePost(id string)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	accounts *authpw.Service
	sessions sessionStore
	notifier notifier
	ai       aiClient
	mailer   mailerClient
	media    mediaStore
	search   postSearcher
}

func New(
	cfg config.Config,
	mongo *store.Mongo,
	sessions *session.RedisStore,
	engine *notify.Engine,
	ai *aichat.Service,
	mailer *email.Service,
	mediaSvc *media.Service,
	searchSvc *search.Service,
) *Service {
	s := &Service{
		cfg:      cfg,
		store:    mongo,
		accounts: authpw.NewService(mongo),
		notifier: engine,
		ai:       ai,
		mailer:   mailer,
		media:    mediaSvc,
		search:   searchSvc,
	}
	if sessions != nil {
		s.sessions = sessions
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// --- Account and session lifecycle ---

func (s *Service) SignUp(ctx context.Context, req authpw.SignUpRequest) (Session, error) {
	user, err := s.accounts.SignUp(ctx, req)
	if err != nil {
		if errors.Is(err, authpw.ErrEmailTaken) {
			return Session{}, domainError(http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
		}
		return Session{}, domainError(http.StatusBadRequest, "SIGNUP_FAILED", err.Error(), nil)
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, emailAddr, password string) (Session, error) {
	user, err := s.accounts.SignIn(ctx, emailAddr, password)
	if err != nil {
		if errors.Is(err, authpw.ErrInvalidCredentials) {
			return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		}
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := uuid.NewString()

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), user.ID.Hex(), user.Email, jti, s.cfg.AccessTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}

	result := Session{
		Token:     token,
		UserID:    user.ID.Hex(),
		Email:     user.Email,
		Name:      user.Name,
		JTI:       jti,
		ExpiresAt: expiresAt,
	}

	if s.sessions != nil {
		refresh := uuid.NewString() + uuid.NewString()
		data := session.TokenData{UserID: user.ID.Hex(), Email: user.Email, Name: user.Name}
		if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), data, now.Add(s.cfg.RefreshTTL)); err != nil {
			return Session{}, fmt.Errorf("save refresh session: %w", err)
		}
		result.RefreshToken = refresh
	}

	return result, nil
}

// Refresh rotates a refresh token: the presented token is revoked before a new
// pair is issued, so a replayed token fails.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if s.sessions == nil {
		return Session{}, domainError(http.StatusServiceUnavailable, "SESSIONS_UNAVAILABLE", "Refresh sessions not configured", nil)
	}

	tokenHash := auth.HashToken(refreshToken)
	data, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Session{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
		}
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}

	user, err := s.store.GetUserByEmail(ctx, data.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
		}
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if s.sessions == nil || refreshToken == "" {
		return nil
	}
	return s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
}

// SessionFromToken resolves a bearer token to a live identity. A token whose
// user no longer exists is indistinguishable from an invalid one.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}

	user, err := s.store.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID.Hex(),
		Email:     user.Email,
		Name:      user.Name,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifyConnection validates a websocket registration token and returns the
// identity the connection should join under.
func (s *Service) VerifyConnection(ctx context.Context, token string) (string, error) {
	resolved, err := s.SessionFromToken(ctx, token)
	if err != nil {
		return "", err
	}
	return resolved.Email, nil
}

// Profile returns the caller's own account record.
func (s *Service) Profile(ctx context.Context, callerEmail string) (store.User, error) {
	user, err := s.store.GetUserByEmail(ctx, callerEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, domainError(http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		}
		return store.User{}, err
	}
	return user, nil
}
