package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/joaquin771/rentalia/internal/apperror"
	"github.com/joaquin771/rentalia/internal/config"
	"github.com/joaquin771/rentalia/internal/model"
	"github.com/joaquin771/rentalia/internal/repository"
)

// ResetMailer delivers the password reset link.
type ResetMailer interface {
	SendPasswordReset(to, link string) error
}

var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	maxLoginAttempts = 5
	attemptWindow    = 15 * time.Minute
)

type sessionState struct {
	uid        uuid.UUID
	usuario    Usuario
	token      string
	lastAuthAt time.Time
}

// LocalProvider implements Provider against the usuario repository: bcrypt
// credentials, HS256 session tokens, single-use reset tokens delivered by
// mail. One instance holds at most one signed-in session, mirroring the
// single-user client the app is.
type LocalProvider struct {
	repo   repository.UsuarioRepository
	mailer ResetMailer
	cfg    *config.Config

	mu        sync.Mutex
	session   *sessionState
	observers map[int]AuthStateFunc
	nextObs   int
	attempts  map[string][]time.Time
}

func NewLocalProvider(repo repository.UsuarioRepository, mailer ResetMailer, cfg *config.Config) *LocalProvider {
	return &LocalProvider{
		repo:      repo,
		mailer:    mailer,
		cfg:       cfg,
		observers: make(map[int]AuthStateFunc),
		attempts:  make(map[string][]time.Time),
	}
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Usuario, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return nil, apperror.NewAuth(apperror.AuthInvalidEmail)
	}
	if p.tooManyAttempts(email) {
		return nil, apperror.NewAuth(apperror.AuthTooManyRequests)
	}

	u, err := p.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p.recordAttempt(email)
			return nil, apperror.NewAuth(apperror.AuthUserNotFound)
		}
		return nil, apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		p.recordAttempt(email)
		return nil, apperror.NewAuth(apperror.AuthWrongPassword)
	}

	now := time.Now()
	u.LastLoginAt = &now
	if err := p.repo.Update(ctx, u); err != nil {
		log.Error().Err(err).Msg("no se pudo registrar el ultimo login")
	}

	p.clearAttempts(email)
	return p.openSession(u)
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Usuario, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return nil, apperror.NewAuth(apperror.AuthInvalidEmail)
	}
	if !passwordValida(password) {
		return nil, apperror.NewAuth(apperror.AuthWeakPassword)
	}

	if _, err := p.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.NewAuth(apperror.AuthEmailInUse)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}

	u := &model.Usuario{Email: email, PasswordHash: string(hash)}
	if err := p.repo.Create(ctx, u); err != nil {
		return nil, apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}

	// Like the managed provider: a fresh account is signed in right away.
	return p.openSession(u)
}

func (p *LocalProvider) SignOut(context.Context) error {
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()
	p.notify()
	return nil
}

func (p *LocalProvider) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return apperror.NewAuth(apperror.AuthInvalidEmail)
	}

	u, err := p.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NewAuth(apperror.AuthUserNotFound)
		}
		return apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}

	token := uuid.NewString()
	expires := time.Now().Add(time.Duration(p.cfg.ResetTokenTTLMinutes) * time.Minute)
	u.ResetToken = &token
	u.ResetExpiresAt = &expires
	if err := p.repo.Update(ctx, u); err != nil {
		return apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}

	link := fmt.Sprintf("%s?token=%s", p.cfg.ResetBaseURL, token)
	if err := p.mailer.SendPasswordReset(u.Email, link); err != nil {
		return apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}
	log.Info().Str("email", u.Email).Msg("correo de restablecimiento enviado")
	return nil
}

func (p *LocalProvider) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if !passwordValida(newPassword) {
		return apperror.NewAuth(apperror.AuthWeakPassword)
	}

	u, err := p.repo.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NewAuth(apperror.AuthUserNotFound)
		}
		return apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}
	if u.ResetExpiresAt == nil || time.Now().After(*u.ResetExpiresAt) {
		return apperror.NewAuth(apperror.AuthUserNotFound)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), 12)
	if err != nil {
		return apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}
	u.PasswordHash = string(hash)
	u.ResetToken = nil
	u.ResetExpiresAt = nil
	if err := p.repo.Update(ctx, u); err != nil {
		return apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}
	return nil
}

func (p *LocalProvider) Reauthenticate(ctx context.Context, password string) error {
	p.mu.Lock()
	sess := p.session
	p.mu.Unlock()
	if sess == nil {
		return apperror.NewAuth(apperror.AuthRequiresRecentLogin)
	}

	u, err := p.repo.FindByID(ctx, sess.uid)
	if err != nil {
		return apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return apperror.NewAuth(apperror.AuthWrongPassword)
	}

	p.mu.Lock()
	if p.session != nil {
		p.session.lastAuthAt = time.Now()
	}
	p.mu.Unlock()
	return nil
}

func (p *LocalProvider) UpdatePassword(ctx context.Context, newPassword string) error {
	p.mu.Lock()
	sess := p.session
	p.mu.Unlock()
	if sess == nil {
		return apperror.NewAuth(apperror.AuthRequiresRecentLogin)
	}

	window := time.Duration(p.cfg.ReauthWindowMinutes) * time.Minute
	if time.Since(sess.lastAuthAt) > window {
		return apperror.NewAuth(apperror.AuthRequiresRecentLogin)
	}
	if !passwordValida(newPassword) {
		return apperror.NewAuth(apperror.AuthWeakPassword)
	}

	u, err := p.repo.FindByID(ctx, sess.uid)
	if err != nil {
		return apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), 12)
	if err != nil {
		return apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}
	u.PasswordHash = string(hash)
	if err := p.repo.Update(ctx, u); err != nil {
		return apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}
	return nil
}

func (p *LocalProvider) UpdateProfile(ctx context.Context, displayName, photoURL *string) error {
	p.mu.Lock()
	sess := p.session
	p.mu.Unlock()
	if sess == nil {
		return apperror.NewAuth(apperror.AuthRequiresRecentLogin)
	}

	u, err := p.repo.FindByID(ctx, sess.uid)
	if err != nil {
		return apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}
	if displayName != nil {
		u.DisplayName = strings.TrimSpace(*displayName)
	}
	if photoURL != nil {
		u.PhotoURL = *photoURL
	}
	if err := p.repo.Update(ctx, u); err != nil {
		return apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}

	p.mu.Lock()
	if p.session != nil && p.session.uid == u.ID {
		p.session.usuario.DisplayName = u.DisplayName
		p.session.usuario.PhotoURL = u.PhotoURL
	}
	p.mu.Unlock()
	p.notify()
	return nil
}

func (p *LocalProvider) Current() *Usuario {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	u := p.session.usuario
	return &u
}

// Token returns the current session token, empty when signed out.
func (p *LocalProvider) Token() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return ""
	}
	return p.session.token
}

func (p *LocalProvider) SubscribeAuthState(fn AuthStateFunc) func() {
	p.mu.Lock()
	id := p.nextObs
	p.nextObs++
	p.observers[id] = fn
	p.mu.Unlock()

	fn(p.Current())

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.observers, id)
			p.mu.Unlock()
		})
	}
}

// ─── internals ───────────────────────────────────────────────────────────────

func (p *LocalProvider) openSession(u *model.Usuario) (*Usuario, error) {
	token, err := p.generateToken(u)
	if err != nil {
		return nil, apperror.WrapAuth(apperror.AuthNetworkFailed, err)
	}

	usuario := Usuario{
		UID:         u.ID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
	}

	p.mu.Lock()
	p.session = &sessionState{
		uid:        u.ID,
		usuario:    usuario,
		token:      token,
		lastAuthAt: time.Now(),
	}
	p.mu.Unlock()

	p.notify()
	out := usuario
	return &out, nil
}

func (p *LocalProvider) generateToken(u *model.Usuario) (string, error) {
	claims := jwt.MapClaims{
		"user_id": u.ID.String(),
		"email":   u.Email,
		"exp":     time.Now().Add(time.Duration(p.cfg.SessionHours) * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(p.cfg.JWTSecret))
}

func (p *LocalProvider) notify() {
	p.mu.Lock()
	fns := make([]AuthStateFunc, 0, len(p.observers))
	for _, fn := range p.observers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	current := p.Current()
	for _, fn := range fns {
		fn(current)
	}
}

func (p *LocalProvider) tooManyAttempts(email string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	cutoff := time.Now().Add(-attemptWindow)
	recent := p.attempts[email][:0]
	for _, t := range p.attempts[email] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	p.attempts[email] = recent
	return len(recent) >= maxLoginAttempts
}

func (p *LocalProvider) recordAttempt(email string) {
	p.mu.Lock()
	p.attempts[email] = append(p.attempts[email], time.Now())
	p.mu.Unlock()
}

func (p *LocalProvider) clearAttempts(email string) {
	p.mu.Lock()
	delete(p.attempts, email)
	p.mu.Unlock()
}

// passwordValida enforces the signup requirements: at least 8 characters,
// one digit and one uppercase letter.
func passwordValida(password string) bool {
	if len(password) < 8 {
		return false
	}
	var digit, upper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	return digit && upper
}
