package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tipo clase de artículo seleccionada en el formulario.
// Los valores conocidos vienen de las casillas especiales; cualquier otro
// texto procede del combo de tipos de catálogo y se acepta tal cual.
type Tipo string

const (
	TipoZZ      Tipo = "ZZ"
	TipoLote    Tipo = "LOTE"
	TipoSetPack Tipo = "Set & Pack"
	TipoConsumo Tipo = "Consumo"
	TipoEDTEDP  Tipo = "EDT & EDP"
	TipoMakeUP  Tipo = "MakeUP"
)

// LlevaComposicion indica si el tipo exige composición de lote
func (t Tipo) LlevaComposicion() bool {
	return t == TipoLote || t == TipoSetPack
}

// Unidad unidad de la cantidad neta
type Unidad string

const (
	UnidadUND Unidad = "UND"
	UnidadML  Unidad = "ML"
	UnidadGR  Unidad = "GR"
)

// Valida comprueba que la unidad pertenece al vocabulario cerrado
func (u Unidad) Valida() bool {
	switch u {
	case UnidadUND, UnidadML, UnidadGR:
		return true
	}
	return false
}

// Estado resultado de la decisión diaria
type Estado string

const (
	EstadoSoloRevision      Estado = "Solo Revisión"
	EstadoRevisadoTraducido Estado = "Revisado y Traducido"
)

// Valida comprueba que el estado pertenece al vocabulario cerrado
func (e Estado) Valida() bool {
	return e == EstadoSoloRevision || e == EstadoRevisadoTraducido
}

// TextoTraduccion bloque de textos traducidos para un idioma
type TextoTraduccion struct {
	Descripcion      string
	ModoEmpleo       string
	Precauciones     string
	MasInformaciones string
}

// FormState instantánea tipada de los campos del formulario.
// Sustituye al diccionario de "valores bloqueados": el modo bloqueo consiste
// en conservar un FormState y reaplicarlo a cada registro.
type FormState struct {
	Tipo         Tipo
	TienePT      bool
	TieneES      bool
	TieneIT      bool
	CantidadNeta int
	Unidad       Unidad

	// ComposicionLote solo se emite para LOTE y Set & Pack
	ComposicionLote []string

	TraduccionPT TextoTraduccion
	TraduccionIT TextoTraduccion
}

// Validar comprueba los invariantes del formulario antes de registrar
func (f FormState) Validar() error {
	if f.CantidadNeta <= 0 {
		return fmt.Errorf("%w: la cantidad neta debe ser positiva", ErrValidacion)
	}
	if !f.Unidad.Valida() {
		return fmt.Errorf("%w: unidad desconocida %q", ErrValidacion, string(f.Unidad))
	}
	return nil
}

// EtiquetaPT texto exacto de la columna "Tiene PT"
func (f FormState) EtiquetaPT() string {
	if f.TienePT {
		return "Tiene PT"
	}
	return "No Tiene PT - TRADUZIDO"
}

// EtiquetaES texto exacto de la columna "Tiene ES"
func (f FormState) EtiquetaES() string {
	if f.TieneES {
		return "Tiene ES"
	}
	return "No Tiene ES - TRADUCIDO"
}

// EtiquetaIT texto exacto de la columna "Tiene IT"
func (f FormState) EtiquetaIT() string {
	if f.TieneIT {
		return "Tiene IT"
	}
	return "No Tiene IT - TRADOTTO"
}

// ComposicionCadena serializa la composición: tokens entrecomillados unidos
// por comas, vacío si el tipo no lleva composición
func (f FormState) ComposicionCadena() string {
	if !f.Tipo.LlevaComposicion() || len(f.ComposicionLote) == 0 {
		return ""
	}
	partes := make([]string, 0, len(f.ComposicionLote))
	for _, ean := range f.ComposicionLote {
		ean = strings.TrimSpace(ean)
		if ean != "" {
			partes = append(partes, `"`+ean+`"`)
		}
	}
	return strings.Join(partes, ",")
}

// RevisionEntry una fila inmutable de la partición diaria. SKU y título se
// copian del producto en el momento del registro, no son referencias vivas.
type RevisionEntry struct {
	ID     string
	SKU    string
	Titulo string
	Estado Estado
	Fecha  time.Time
	Form   FormState
}

// NuevaRevision construye una entrada lista para anexar a la partición de hoy
func NuevaRevision(sku, titulo string, estado Estado, form FormState) (RevisionEntry, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return RevisionEntry{}, fmt.Errorf("%w: el campo EAN/SKU/ID no puede estar vacío", ErrValidacion)
	}
	if !estado.Valida() {
		return RevisionEntry{}, fmt.Errorf("%w: estado desconocido %q", ErrValidacion, string(estado))
	}
	if err := form.Validar(); err != nil {
		return RevisionEntry{}, err
	}
	return RevisionEntry{
		ID:     uuid.New().String(),
		SKU:    sku,
		Titulo: strings.TrimSpace(titulo),
		Estado: estado,
		Fecha:  time.Now(),
		Form:   form,
	}, nil
}
