package repository

import "errors"

var (
	// ErrNotFound: no existe una fila que cumpla la condición pedida.
	ErrNotFound = errors.New("not found")

	// ErrConflict: violación de unicidad (ej: email duplicado).
	ErrConflict = errors.New("conflict")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
