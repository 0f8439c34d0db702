package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/joaquin771/rentalia/internal/apperror"
	"github.com/joaquin771/rentalia/internal/config"
	"github.com/joaquin771/rentalia/internal/model"
)

// ─── In-memory UsuarioRepository stub ────────────────────────────────────────

type stubUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	copia := *u
	r.usuarios[u.ID] = &copia
	return nil
}

func (r *stubUsuarioRepo) FindByEmail(_ context.Context, email string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if strings.EqualFold(u.Email, email) {
			copia := *u
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *u
	return &copia, nil
}

func (r *stubUsuarioRepo) FindByResetToken(_ context.Context, token string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.ResetToken != nil && *u.ResetToken == token {
			copia := *u
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	copia := *u
	r.usuarios[u.ID] = &copia
	return nil
}

// ─── Reset mailer stub ───────────────────────────────────────────────────────

type stubMailer struct {
	to    []string
	links []string
}

func (m *stubMailer) SendPasswordReset(to, link string) error {
	m.to = append(m.to, to)
	m.links = append(m.links, link)
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:            "secreto-de-test",
		SessionHours:         8,
		ReauthWindowMinutes:  5,
		ResetTokenTTLMinutes: 30,
		ResetBaseURL:         "https://rentalia.app/reset",
	}
}

func newTestProvider(t *testing.T) (*LocalProvider, *stubUsuarioRepo, *stubMailer) {
	t.Helper()
	repo := newStubUsuarioRepo()
	mailer := &stubMailer{}
	return NewLocalProvider(repo, mailer, testConfig()), repo, mailer
}

func seedUsuario(t *testing.T, repo *stubUsuarioRepo, email, password string) *model.Usuario {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.Usuario{Email: email, PasswordHash: string(hash)}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func kindOf(t *testing.T, err error) apperror.AuthKind {
	t.Helper()
	var aerr *apperror.AuthError
	require.ErrorAs(t, err, &aerr)
	return aerr.Kind
}

// ─── tests ───────────────────────────────────────────────────────────────────

func TestSignInCorrecto(t *testing.T) {
	p, repo, _ := newTestProvider(t)
	seedUsuario(t, repo, "ana@example.com", "Secreta123")

	u, err := p.SignIn(context.Background(), "Ana@Example.com", "Secreta123")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotNil(t, p.Current())
	assert.NotEmpty(t, p.Token())
}

func TestSignInErrores(t *testing.T) {
	p, repo, _ := newTestProvider(t)
	seedUsuario(t, repo, "ana@example.com", "Secreta123")

	_, err := p.SignIn(context.Background(), "no-es-un-correo", "x")
	assert.Equal(t, apperror.AuthInvalidEmail, kindOf(t, err))

	_, err = p.SignIn(context.Background(), "nadie@example.com", "x")
	assert.Equal(t, apperror.AuthUserNotFound, kindOf(t, err))

	_, err = p.SignIn(context.Background(), "ana@example.com", "incorrecta")
	assert.Equal(t, apperror.AuthWrongPassword, kindOf(t, err))
	assert.Nil(t, p.Current())
}

func TestSignInDemasiadosIntentos(t *testing.T) {
	p, repo, _ := newTestProvider(t)
	seedUsuario(t, repo, "ana@example.com", "Secreta123")

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := p.SignIn(context.Background(), "ana@example.com", "incorrecta")
		assert.Equal(t, apperror.AuthWrongPassword, kindOf(t, err))
	}

	// Even the right password is refused while throttled
	_, err := p.SignIn(context.Background(), "ana@example.com", "Secreta123")
	assert.Equal(t, apperror.AuthTooManyRequests, kindOf(t, err))
}

func TestSignUp(t *testing.T) {
	p, _, _ := newTestProvider(t)

	_, err := p.SignUp(context.Background(), "ana@example.com", "corta")
	assert.Equal(t, apperror.AuthWeakPassword, kindOf(t, err))

	// Missing uppercase / digit
	_, err = p.SignUp(context.Background(), "ana@example.com", "sinmayusculas1")
	assert.Equal(t, apperror.AuthWeakPassword, kindOf(t, err))

	u, err := p.SignUp(context.Background(), "ana@example.com", "Secreta123")
	require.NoError(t, err)
	assert.NotEmpty(t, u.UID)
	// A fresh account is signed in right away
	require.NotNil(t, p.Current())

	_, err = p.SignUp(context.Background(), "ana@example.com", "Secreta123")
	assert.Equal(t, apperror.AuthEmailInUse, kindOf(t, err))
}

func TestSignOutNotificaObservadores(t *testing.T) {
	p, repo, _ := newTestProvider(t)
	seedUsuario(t, repo, "ana@example.com", "Secreta123")

	var estados []*Usuario
	cancel := p.SubscribeAuthState(func(u *Usuario) { estados = append(estados, u) })
	defer cancel()

	// Immediate invocation with the current (signed-out) state
	require.Len(t, estados, 1)
	assert.Nil(t, estados[0])

	_, err := p.SignIn(context.Background(), "ana@example.com", "Secreta123")
	require.NoError(t, err)
	require.Len(t, estados, 2)
	require.NotNil(t, estados[1])

	require.NoError(t, p.SignOut(context.Background()))
	require.Len(t, estados, 3)
	assert.Nil(t, estados[2])

	// Disposed observers stop receiving
	cancel()
	_, err = p.SignIn(context.Background(), "ana@example.com", "Secreta123")
	require.NoError(t, err)
	assert.Len(t, estados, 3)
}

func TestResetDePassword(t *testing.T) {
	p, repo, mailer := newTestProvider(t)
	seed := seedUsuario(t, repo, "ana@example.com", "Secreta123")

	err := p.SendPasswordReset(context.Background(), "nadie@example.com")
	assert.Equal(t, apperror.AuthUserNotFound, kindOf(t, err))

	require.NoError(t, p.SendPasswordReset(context.Background(), "ana@example.com"))
	require.Len(t, mailer.to, 1)
	assert.Equal(t, "ana@example.com", mailer.to[0])

	guardado, err := repo.FindByID(context.Background(), seed.ID)
	require.NoError(t, err)
	require.NotNil(t, guardado.ResetToken)
	assert.Contains(t, mailer.links[0], *guardado.ResetToken)

	// Redeem: weak password rejected, strong accepted, token single-use
	err = p.ConfirmPasswordReset(context.Background(), *guardado.ResetToken, "corta")
	assert.Equal(t, apperror.AuthWeakPassword, kindOf(t, err))

	token := *guardado.ResetToken
	require.NoError(t, p.ConfirmPasswordReset(context.Background(), token, "Renovada456"))

	err = p.ConfirmPasswordReset(context.Background(), token, "Renovada456")
	assert.Equal(t, apperror.AuthUserNotFound, kindOf(t, err))

	_, err = p.SignIn(context.Background(), "ana@example.com", "Renovada456")
	assert.NoError(t, err)
}

func TestUpdatePasswordExigeReautenticacion(t *testing.T) {
	p, repo, _ := newTestProvider(t)
	seedUsuario(t, repo, "ana@example.com", "Secreta123")

	// Signed out: nothing to update
	err := p.UpdatePassword(context.Background(), "Renovada456")
	assert.Equal(t, apperror.AuthRequiresRecentLogin, kindOf(t, err))

	_, err = p.SignIn(context.Background(), "ana@example.com", "Secreta123")
	require.NoError(t, err)

	// Stale re-auth window
	p.mu.Lock()
	p.session.lastAuthAt = time.Now().Add(-time.Hour)
	p.mu.Unlock()
	err = p.UpdatePassword(context.Background(), "Renovada456")
	assert.Equal(t, apperror.AuthRequiresRecentLogin, kindOf(t, err))

	// Re-authenticate, then the change goes through
	err = p.Reauthenticate(context.Background(), "incorrecta")
	assert.Equal(t, apperror.AuthWrongPassword, kindOf(t, err))
	require.NoError(t, p.Reauthenticate(context.Background(), "Secreta123"))
	require.NoError(t, p.UpdatePassword(context.Background(), "Renovada456"))

	require.NoError(t, p.SignOut(context.Background()))
	_, err = p.SignIn(context.Background(), "ana@example.com", "Renovada456")
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	p, repo, _ := newTestProvider(t)
	seedUsuario(t, repo, "ana@example.com", "Secreta123")

	_, err := p.SignIn(context.Background(), "ana@example.com", "Secreta123")
	require.NoError(t, err)

	nombre := "Ana García"
	require.NoError(t, p.UpdateProfile(context.Background(), &nombre, nil))
	assert.Equal(t, "Ana García", p.Current().DisplayName)

	foto := "https://cdn/avatar.jpg"
	require.NoError(t, p.UpdateProfile(context.Background(), nil, &foto))
	u := p.Current()
	assert.Equal(t, "Ana García", u.DisplayName)
	assert.Equal(t, foto, u.PhotoURL)
}
