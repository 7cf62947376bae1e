package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config configuración de la aplicación
type Config struct {
	// RutaDB fichero SQLite del catálogo; vacío = catálogo en memoria
	RutaDB string
	// DirRevisiones carpeta de las particiones diarias REV-DD-MM-YYYY.xlsx
	DirRevisiones string
	// DirSalida carpeta de las exportaciones
	DirSalida string
	// TamanoBloque tamaño de bloque de la carga diferida de resultados
	TamanoBloque int
}

// Load carga la configuración desde .env y variables de entorno
func Load() (*Config, error) {
	// .env si existe
	_ = godotenv.Load()

	config := &Config{
		RutaDB:        "db.db",
		DirRevisiones: "REVs",
		DirSalida:     "OUTPUT",
		TamanoBloque:  50,
	}

	if ruta, ok := os.LookupEnv("CONTADOR_DB_PATH"); ok {
		config.RutaDB = ruta
	}
	if dir := os.Getenv("CONTADOR_REVS_DIR"); dir != "" {
		config.DirRevisiones = dir
	}
	if dir := os.Getenv("CONTADOR_OUTPUT_DIR"); dir != "" {
		config.DirSalida = dir
	}

	if crudo := os.Getenv("CONTADOR_BLOCK_SIZE"); crudo != "" {
		bloque, err := strconv.Atoi(crudo)
		if err != nil || bloque <= 0 {
			return nil, fmt.Errorf("CONTADOR_BLOCK_SIZE no válido: %q", crudo)
		}
		config.TamanoBloque = bloque
	}

	if config.DirRevisiones == "" {
		return nil, fmt.Errorf("CONTADOR_REVS_DIR no puede estar vacío")
	}
	if config.DirSalida == "" {
		return nil, fmt.Errorf("CONTADOR_OUTPUT_DIR no puede estar vacío")
	}

	return config, nil
}
