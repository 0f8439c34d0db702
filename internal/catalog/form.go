package catalog

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/joaquin771/rentalia/internal/apperror"
	"github.com/joaquin771/rentalia/internal/model"
)

var validate = validator.New()

func init() {
	// nombre must not contain digit characters
	validate.RegisterValidation("sindigitos", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "0123456789")
	})
	// categoria must belong to the fixed set
	validate.RegisterValidation("categoria", func(fl validator.FieldLevel) bool {
		return model.CategoriaValida(fl.Field().String())
	})
	// Register decimal.Decimal as numeric so min=0 works on precio
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// Form holds the transient input state of the create/edit product modal,
// exactly as typed. EditingID is empty in create mode. FotoLocal carries a
// picked image pending upload; Foto carries an already-hosted URL.
type Form struct {
	Nombre      string
	Descripcion string
	Precio      string
	Stock       string
	Categoria   string
	Foto        string
	FotoLocal   []byte
	EditingID   string
}

// ProductoInput is the coerced, validated form result the coordinator writes.
type ProductoInput struct {
	Nombre      string          `validate:"required,sindigitos"`
	Descripcion string
	Precio      decimal.Decimal `validate:"min=0"`
	Stock       int             `validate:"min=0"`
	Categoria   string          `validate:"required,categoria"`
}

// LoadProducto pre-populates the form for edit mode.
func (f *Form) LoadProducto(p model.Producto) {
	f.Nombre = p.Nombre
	f.Descripcion = p.Descripcion
	f.Precio = p.Precio.String()
	f.Stock = strconv.Itoa(p.Stock)
	f.Categoria = p.Categoria
	if p.Foto != nil {
		f.Foto = *p.Foto
	} else {
		f.Foto = ""
	}
	f.FotoLocal = nil
	f.EditingID = p.ID
}

// Reset clears the form back to create-mode defaults.
func (f *Form) Reset() {
	*f = Form{}
}

// Validate checks the submit-time rules and coerces the numeric fields.
// precio accepts a decimal comma ("10,50" → 10.50). On failure it reports a
// structured reason per offending field and no coerced input is produced.
func (f *Form) Validate() (ProductoInput, *apperror.ValidationError) {
	fields := make(map[string]string)

	nombre := strings.TrimSpace(f.Nombre)
	precioStr := strings.TrimSpace(f.Precio)
	stockStr := strings.TrimSpace(f.Stock)
	categoria := strings.TrimSpace(f.Categoria)

	if nombre == "" {
		fields["nombre"] = "obligatorio"
	}
	if precioStr == "" {
		fields["precio"] = "obligatorio"
	}
	if stockStr == "" {
		fields["stock"] = "obligatorio"
	}
	if categoria == "" {
		fields["categoria"] = "obligatorio"
	}
	if len(fields) > 0 {
		return ProductoInput{}, apperror.NewValidation(fields)
	}

	// Decimal comma normalization before parsing
	precio, err := decimal.NewFromString(strings.ReplaceAll(precioStr, ",", "."))
	if err != nil {
		fields["precio"] = "debe ser un número válido"
	}
	stock, err := strconv.Atoi(stockStr)
	if err != nil {
		fields["stock"] = "debe ser un número entero"
	}
	if len(fields) > 0 {
		return ProductoInput{}, apperror.NewValidation(fields)
	}

	input := ProductoInput{
		Nombre:      nombre,
		Descripcion: strings.TrimSpace(f.Descripcion),
		Precio:      precio,
		Stock:       stock,
		Categoria:   categoria,
	}

	if err := validate.Struct(input); err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			switch fe.Field() {
			case "Nombre":
				fields["nombre"] = "no puede contener números"
			case "Precio":
				fields["precio"] = "no puede ser negativo"
			case "Stock":
				fields["stock"] = "no puede ser negativo"
			case "Categoria":
				fields["categoria"] = "categoría inválida"
			}
		}
		return ProductoInput{}, apperror.NewValidation(fields)
	}

	return input, nil
}

// fotoFinal resolves the foto field for the written document: nil when the
// product has no image, otherwise the hosted URL.
func fotoFinal(url string) *string {
	if url == "" {
		return nil
	}
	return &url
}
