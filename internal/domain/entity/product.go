package entity

import (
	"sort"
	"strings"
)

// Valores centinela para campos ausentes
const (
	SinEAN    = "NO-EAN"
	SinTitulo = "NO-DESC"
)

// SeparadorEAN separador de la lista de EANs tal y como se persiste
const SeparadorEAN = ","

// Producto una fila del catálogo, con clave única SKU.
// Los EANs son un conjunto secundario no único: el mismo EAN puede
// pertenecer a varios SKUs a la vez.
type Producto struct {
	SKU    string
	Titulo string
	EANs   []string
}

// FilaImportacion una fila cruda de un lote de importación (SKU | Título | EANs)
type FilaImportacion struct {
	Fila   int
	SKU    string
	Titulo string
	EANs   []string
}

// GrupoEANDuplicado un EAN compartido por más de un SKU
type GrupoEANDuplicado struct {
	EAN  string
	SKUs []string
}

// DividirEANs separa la cadena persistida en tokens limpios.
// El centinela NO-EAN produce una lista vacía.
func DividirEANs(cadena string) []string {
	cadena = strings.TrimSpace(cadena)
	if cadena == "" || cadena == SinEAN {
		return nil
	}
	var tokens []string
	for _, t := range strings.Split(cadena, SeparadorEAN) {
		t = strings.TrimSpace(t)
		if t != "" && t != SinEAN {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// CanonicalizarEANs deduplica y ordena lexicográficamente los tokens.
// El orden determinista evita que dos ejecuciones sobre la misma entrada
// persistan cadenas distintas.
func CanonicalizarEANs(tokens []string) []string {
	vistos := make(map[string]struct{}, len(tokens))
	var limpios []string
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" || t == SinEAN {
			continue
		}
		if _, ok := vistos[t]; ok {
			continue
		}
		vistos[t] = struct{}{}
		limpios = append(limpios, t)
	}
	sort.Strings(limpios)
	return limpios
}

// UnirEANs serializa los tokens a la forma persistida; vacío -> NO-EAN
func UnirEANs(tokens []string) string {
	if len(tokens) == 0 {
		return SinEAN
	}
	return strings.Join(tokens, SeparadorEAN)
}

// NuevoProducto normaliza título y EANs aplicando los centinelas
func NuevoProducto(sku, titulo, eans string) Producto {
	titulo = strings.TrimSpace(titulo)
	if titulo == "" {
		titulo = SinTitulo
	}
	return Producto{
		SKU:    strings.TrimSpace(sku),
		Titulo: titulo,
		EANs:   CanonicalizarEANs(DividirEANs(eans)),
	}
}

// TieneEAN comprueba pertenencia exacta del token al conjunto de EANs.
// La comparación es por token completo, nunca por subcadena: consultar "1"
// no debe casar con "123".
func (p Producto) TieneEAN(token string) bool {
	for _, e := range p.EANs {
		if e == token {
			return true
		}
	}
	return false
}

// EANsCadena forma persistida de la lista de EANs
func (p Producto) EANsCadena() string {
	return UnirEANs(p.EANs)
}
