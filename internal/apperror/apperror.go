// Package apperror defines the closed error taxonomy for every external
// boundary of the application. SDK/driver errors are mapped into one of these
// types exactly once, at the boundary that produced them, and never leak
// further. Each error carries a user-facing message in Spanish (Mensaje) so
// callers never have to interpret provider codes themselves.
package apperror

import "fmt"

// ─── Validation ──────────────────────────────────────────────────────────────

// ValidationError reports one reason per offending form field. It is produced
// locally, before any network call is attempted.
type ValidationError struct {
	Fields map[string]string
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("error de validacion: %d campos invalidos", len(e.Fields))
}

func (e *ValidationError) Mensaje() string {
	return "Completa todos los campos obligatorios."
}

// ─── Upload ──────────────────────────────────────────────────────────────────

// UploadError means the media host was unreachable or rejected the payload.
// The document write is never attempted after one of these.
type UploadError struct {
	Cause error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("error al subir imagen: %v", e.Cause)
}

func (e *UploadError) Unwrap() error { return e.Cause }

func (e *UploadError) Mensaje() string {
	return "No se pudo subir la imagen. Intenta de nuevo."
}

// ─── Write ───────────────────────────────────────────────────────────────────

type WriteKind int

const (
	WriteNotFound WriteKind = iota
	WritePermission
	WriteNetwork
)

// WriteError means the document store rejected a create/update/delete.
// Document operations are atomic so no partial state is left behind.
type WriteError struct {
	Kind  WriteKind
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("error de escritura (%d): %v", e.Kind, e.Cause)
}

func (e *WriteError) Unwrap() error { return e.Cause }

func (e *WriteError) Mensaje() string {
	switch e.Kind {
	case WriteNotFound:
		return "El registro ya no existe."
	case WritePermission:
		return "No tenés permisos para realizar esta operación."
	default:
		return "Ocurrió un error al guardar. Intenta de nuevo."
	}
}

// ─── Subscription ────────────────────────────────────────────────────────────

// SubscriptionError means a live query could not be established. The list
// degrades to empty/stale with a one-time notice; no automatic retry.
type SubscriptionError struct {
	Cause error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("error al suscribirse: %v", e.Cause)
}

func (e *SubscriptionError) Unwrap() error { return e.Cause }

func (e *SubscriptionError) Mensaje() string {
	return "No se pudieron cargar los productos."
}

// ─── Auth ────────────────────────────────────────────────────────────────────

type AuthKind int

const (
	AuthWrongPassword AuthKind = iota
	AuthUserNotFound
	AuthEmailInUse
	AuthInvalidEmail
	AuthWeakPassword
	AuthTooManyRequests
	AuthNetworkFailed
	AuthRequiresRecentLogin
)

// AuthError is the identity provider boundary error. User-input causes are
// recoverable in place; RequiresRecentLogin forces a re-authentication path.
type AuthError struct {
	Kind  AuthKind
	Cause error
}

func NewAuth(kind AuthKind) *AuthError          { return &AuthError{Kind: kind} }
func WrapAuth(kind AuthKind, err error) *AuthError { return &AuthError{Kind: kind, Cause: err} }

func (e *AuthError) Error() string {
	return fmt.Sprintf("error de autenticacion (%d): %v", e.Kind, e.Cause)
}

func (e *AuthError) Unwrap() error { return e.Cause }

func (e *AuthError) Mensaje() string {
	switch e.Kind {
	case AuthWrongPassword:
		return "La contraseña actual es incorrecta."
	case AuthUserNotFound:
		return "Credenciales inválidas."
	case AuthEmailInUse:
		return "El correo electrónico ya está registrado."
	case AuthInvalidEmail:
		return "Correo electrónico inválido."
	case AuthWeakPassword:
		return "La contraseña no cumple con los requisitos."
	case AuthTooManyRequests:
		return "Demasiados intentos. Esperá unos minutos."
	case AuthNetworkFailed:
		return "No hay conexión. Verificá tu internet."
	case AuthRequiresRecentLogin:
		return "Debes iniciar sesión nuevamente."
	default:
		return "Ocurrió un error. Intentá nuevamente."
	}
}
