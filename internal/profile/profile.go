// Package profile implements the profile editor: display name and avatar go
// through the identity provider, the auxiliary fields (DNI, dirección, género,
// fecha de nacimiento, teléfono) persist in the local preference store keyed
// by user id.
package profile

import (
	"context"
	"regexp"
	"strings"

	"github.com/joaquin771/rentalia/internal/apperror"
	"github.com/joaquin771/rentalia/internal/auth"
	"github.com/joaquin771/rentalia/internal/media"
	"github.com/joaquin771/rentalia/internal/prefs"
)

var (
	dniRegexp      = regexp.MustCompile(`^\d{7,8}$`)
	telefonoRegexp = regexp.MustCompile(`^\+?\d{6,15}$`)
)

// Perfil is the editable profile view.
type Perfil struct {
	Email           string
	DisplayName     string
	PhotoURL        string
	DNI             string
	Direccion       string
	Genero          string
	FechaNacimiento string
	Telefono        string
}

type Service struct {
	provider auth.Provider
	prefs    prefs.Store
	uploader media.Uploader
	preset   string
}

func NewService(provider auth.Provider, store prefs.Store, uploader media.Uploader, preset string) *Service {
	return &Service{provider: provider, prefs: store, uploader: uploader, preset: preset}
}

// Load assembles the profile from the provider plus local preferences.
func (s *Service) Load(context.Context) (Perfil, error) {
	u := s.provider.Current()
	if u == nil {
		return Perfil{}, apperror.NewAuth(apperror.AuthRequiresRecentLogin)
	}

	p := Perfil{
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
	}
	p.DNI = s.pref("dni", u.UID)
	p.Direccion = s.pref("address", u.UID)
	p.Genero = s.pref("gender", u.UID)
	p.FechaNacimiento = s.pref("dob", u.UID)
	p.Telefono = s.pref("phone", u.UID)
	return p, nil
}

// Save validates and persists the editable fields: auxiliary fields to the
// preference store, display name through the provider.
func (s *Service) Save(ctx context.Context, p Perfil) error {
	u := s.provider.Current()
	if u == nil {
		return apperror.NewAuth(apperror.AuthRequiresRecentLogin)
	}

	fields := make(map[string]string)
	dni := strings.TrimSpace(p.DNI)
	if dni != "" && !dniRegexp.MatchString(dni) {
		fields["dni"] = "debe tener 7 u 8 dígitos"
	}
	telefono := strings.TrimSpace(p.Telefono)
	if telefono != "" && !telefonoRegexp.MatchString(telefono) {
		fields["telefono"] = "número de teléfono inválido"
	}
	if len(fields) > 0 {
		return apperror.NewValidation(fields)
	}

	pairs := map[string]string{
		"dni":     dni,
		"address": strings.TrimSpace(p.Direccion),
		"gender":  strings.TrimSpace(p.Genero),
		"dob":     strings.TrimSpace(p.FechaNacimiento),
		"phone":   telefono,
	}
	for field, value := range pairs {
		if err := s.prefs.Set(prefs.UserKey(field, u.UID), value); err != nil {
			return err
		}
	}

	nombre := strings.TrimSpace(p.DisplayName)
	if nombre != u.DisplayName {
		if err := s.provider.UpdateProfile(ctx, &nombre, nil); err != nil {
			return err
		}
	}
	return nil
}

// CambiarAvatar uploads the picked image and points the profile photo at the
// hosted URL. Upload failure aborts before any profile write; the previous
// hosted image is not deleted.
func (s *Service) CambiarAvatar(ctx context.Context, imagen []byte) (string, error) {
	if s.provider.Current() == nil {
		return "", apperror.NewAuth(apperror.AuthRequiresRecentLogin)
	}

	url, err := s.uploader.Upload(ctx, imagen, s.preset)
	if err != nil {
		return "", err
	}
	if err := s.provider.UpdateProfile(ctx, nil, &url); err != nil {
		return "", err
	}
	return url, nil
}

func (s *Service) pref(field, uid string) string {
	v, _, _ := s.prefs.Get(prefs.UserKey(field, uid))
	return v
}
