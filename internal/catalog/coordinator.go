package catalog

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/joaquin771/rentalia/internal/apperror"
	"github.com/joaquin771/rentalia/internal/media"
	"github.com/joaquin771/rentalia/internal/store"
)

// ErrGuardadoEnCurso rejects a save/delete issued while another one is still
// in flight. No queueing, no cancellation; the caller retries after the
// current operation settles.
var ErrGuardadoEnCurso = errors.New("ya hay un guardado en curso")

// ConfirmFunc asks the user to confirm a destructive action. Returning false
// aborts without side effects.
type ConfirmFunc func(mensaje string) bool

// Coordinator serializes user intent into store mutations. Side effects are
// strictly ordered: a pending image is uploaded before any document write, so
// a document is never observed with a dangling local reference, and a failed
// upload never produces an orphaned document.
//
// The saving flag is the only mutex-like construct here: at most one
// outstanding save/delete per screen instance.
type Coordinator struct {
	store    store.DocumentStore
	uploader media.Uploader
	preset   string
	confirm  ConfirmFunc
	userID   func() string

	saving atomic.Bool
}

func NewCoordinator(ds store.DocumentStore, up media.Uploader, preset string, confirm ConfirmFunc, userID func() string) *Coordinator {
	return &Coordinator{store: ds, uploader: up, preset: preset, confirm: confirm, userID: userID}
}

// Saving reports whether a mutation is currently in flight.
func (c *Coordinator) Saving() bool { return c.saving.Load() }

// Save validates the form and writes the document: update when the form is in
// edit mode, create otherwise. The form is cleared only on success.
func (c *Coordinator) Save(ctx context.Context, form *Form) error {
	if !c.saving.CompareAndSwap(false, true) {
		return ErrGuardadoEnCurso
	}
	defer c.saving.Store(false)

	input, verr := form.Validate()
	if verr != nil {
		return verr
	}

	foto := form.Foto
	if len(form.FotoLocal) > 0 {
		url, err := c.uploader.Upload(ctx, form.FotoLocal, c.preset)
		if err != nil {
			// Abort before any document write
			return err
		}
		foto = url
	}

	precio, _ := input.Precio.Float64()
	fields := map[string]any{
		"nombre":      input.Nombre,
		"descripcion": input.Descripcion,
		"precio":      precio,
		"stock":       input.Stock,
		"categoria":   input.Categoria,
		"foto":        fotoFinal(foto),
	}

	if form.EditingID != "" {
		// Full-object update of the mutable fields; id/createdAt/createdBy
		// stay untouched (the store merges at field level).
		if err := c.store.Update(ctx, store.ColProducts, form.EditingID, fields); err != nil {
			return err
		}
		log.Info().Str("id", form.EditingID).Msg("producto editado")
	} else {
		fields["createdBy"] = c.userID()
		id, err := c.store.Add(ctx, store.ColProducts, fields)
		if err != nil {
			return err
		}
		log.Info().Str("id", id).Msg("producto creado")
	}

	form.Reset()
	return nil
}

// Delete asks for confirmation and removes the document. A declined
// confirmation issues no store call and is not an error. The rendered list
// updates organically through the live subscription, not by manual mutation.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	if !c.confirm("¿Deseás eliminar este producto?") {
		return nil
	}

	if !c.saving.CompareAndSwap(false, true) {
		return ErrGuardadoEnCurso
	}
	defer c.saving.Store(false)

	if err := c.store.Delete(ctx, store.ColProducts, id); err != nil {
		var werr *apperror.WriteError
		if errors.As(err, &werr) && werr.Kind == apperror.WriteNotFound {
			// Already gone (another client deleted it), nothing to undo.
			log.Info().Str("id", id).Msg("producto ya eliminado por otro cliente")
			return nil
		}
		return err
	}
	log.Info().Str("id", id).Msg("producto eliminado")
	return nil
}
