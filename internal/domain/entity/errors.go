package entity

import "errors"

// Errores centinela del dominio. Las capas superiores los comprueban con
// errors.Is y los convierten en mensajes para el usuario.
var (
	// ErrValidacion entrada vacía o mal formada; sin efectos secundarios
	ErrValidacion = errors.New("entrada no válida")

	// ErrNoEncontrado el producto no existe en el catálogo
	ErrNoEncontrado = errors.New("producto no encontrado")

	// ErrSKUDuplicado el SKU ya existe; el alta se rechaza sin tocar el registro
	ErrSKUDuplicado = errors.New("el SKU ya existe en la base de datos")

	// ErrRecursoBloqueado la base de datos o el fichero está en uso por otro proceso
	ErrRecursoBloqueado = errors.New("recurso en uso por otro proceso")

	// ErrParticionCorrupta la partición del día tiene una cabecera inesperada
	ErrParticionCorrupta = errors.New("partición de revisiones corrupta")
)

// ColisionEAN aviso no fatal: el EAN ya pertenece a otro SKU.
// Se informa al usuario pero nunca bloquea el alta ni la fusión.
type ColisionEAN struct {
	EAN    string
	SKU    string
	Titulo string
}
