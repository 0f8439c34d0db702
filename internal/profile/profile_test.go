package profile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaquin771/rentalia/internal/apperror"
	"github.com/joaquin771/rentalia/internal/auth"
	"github.com/joaquin771/rentalia/internal/prefs"
)

// fakeProvider is a signed-in identity provider with a mutable profile.
type fakeProvider struct {
	usuario *auth.Usuario
}

func (f *fakeProvider) SignIn(context.Context, string, string) (*auth.Usuario, error) { return nil, nil }
func (f *fakeProvider) SignUp(context.Context, string, string) (*auth.Usuario, error) { return nil, nil }
func (f *fakeProvider) SignOut(context.Context) error { return nil }
func (f *fakeProvider) SendPasswordReset(context.Context, string) error { return nil }
func (f *fakeProvider) ConfirmPasswordReset(context.Context, string, string) error { return nil }
func (f *fakeProvider) Reauthenticate(context.Context, string) error { return nil }
func (f *fakeProvider) UpdatePassword(context.Context, string) error { return nil }
func (f *fakeProvider) SubscribeAuthState(fn auth.AuthStateFunc) func() {
	fn(f.usuario)
	return func() {}
}

func (f *fakeProvider) Current() *auth.Usuario {
	if f.usuario == nil {
		return nil
	}
	u := *f.usuario
	return &u
}

func (f *fakeProvider) UpdateProfile(_ context.Context, displayName, photoURL *string) error {
	if displayName != nil {
		f.usuario.DisplayName = *displayName
	}
	if photoURL != nil {
		f.usuario.PhotoURL = *photoURL
	}
	return nil
}

type fakeUploader struct {
	url  string
	err  error
	data []byte
}

func (f *fakeUploader) Upload(_ context.Context, data []byte, _ string) (string, error) {
	f.data = data
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newTestService(t *testing.T) (*Service, *fakeProvider, prefs.Store, *fakeUploader) {
	t.Helper()
	store, err := prefs.NewFileStore(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)
	prov := &fakeProvider{usuario: &auth.Usuario{
		UID:         "uid-1",
		Email:       "ana@example.com",
		DisplayName: "Ana",
	}}
	up := &fakeUploader{url: "https://cdn/avatar.jpg"}
	return NewService(prov, store, up, "rentalia_unsigned"), prov, store, up
}

func TestSaveYLoadDelPerfil(t *testing.T) {
	svc, prov, _, _ := newTestService(t)

	err := svc.Save(context.Background(), Perfil{
		DisplayName:     "Ana García",
		DNI:             "30123456",
		Direccion:       "Av. Siempre Viva 742",
		Genero:          "femenino",
		FechaNacimiento: "1990-04-12",
		Telefono:        "+5491155550000",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana García", prov.usuario.DisplayName)

	p, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, "Ana García", p.DisplayName)
	assert.Equal(t, "30123456", p.DNI)
	assert.Equal(t, "Av. Siempre Viva 742", p.Direccion)
	assert.Equal(t, "femenino", p.Genero)
	assert.Equal(t, "1990-04-12", p.FechaNacimiento)
	assert.Equal(t, "+5491155550000", p.Telefono)
}

func TestSaveValidaDNIYTelefono(t *testing.T) {
	svc, _, store, _ := newTestService(t)

	err := svc.Save(context.Background(), Perfil{DNI: "12AB", Telefono: "no-numerico"})
	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "dni")
	assert.Contains(t, verr.Fields, "telefono")

	// Nothing persisted on validation failure
	_, ok, _ := store.Get(prefs.UserKey("dni", "uid-1"))
	assert.False(t, ok)

	// Empty auxiliary fields are allowed
	assert.NoError(t, svc.Save(context.Background(), Perfil{DisplayName: "Ana"}))
}

func TestCambiarAvatar(t *testing.T) {
	svc, prov, _, up := newTestService(t)

	url, err := svc.CambiarAvatar(context.Background(), []byte("imagen"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/avatar.jpg", url)
	assert.Equal(t, "https://cdn/avatar.jpg", prov.usuario.PhotoURL)
	assert.Equal(t, []byte("imagen"), up.data)
}

func TestCambiarAvatarAbortaSiFallaLaSubida(t *testing.T) {
	svc, prov, _, up := newTestService(t)
	up.err = &apperror.UploadError{Cause: assert.AnError}

	_, err := svc.CambiarAvatar(context.Background(), []byte("imagen"))
	var uerr *apperror.UploadError
	require.ErrorAs(t, err, &uerr)
	assert.Empty(t, prov.usuario.PhotoURL)
}

func TestSinSesion(t *testing.T) {
	svc, prov, _, _ := newTestService(t)
	prov.usuario = nil

	_, err := svc.Load(context.Background())
	var aerr *apperror.AuthError
	require.ErrorAs(t, err, &aerr)

	err = svc.Save(context.Background(), Perfil{})
	require.ErrorAs(t, err, &aerr)

	_, err = svc.CambiarAvatar(context.Background(), []byte("x"))
	require.ErrorAs(t, err, &aerr)
}
